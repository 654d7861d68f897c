package morphology

import (
	"context"
	"fmt"
	"strings"
	"time"

	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "morph:"

// CachedAnalyzer keeps analyzer results in Redis. A Redis failure is logged
// and the inner analyzer is used directly; analyzer failures are never cached.
type CachedAnalyzer struct {
	inner  Analyzer
	redis  redis.Cmdable
	ttl    time.Duration
	ns     string
	logger logger.Logger
}

// NewCachedAnalyzer wraps inner. namespace separates backends sharing one Redis.
func NewCachedAnalyzer(inner Analyzer, rdb redis.Cmdable, namespace string, ttl time.Duration, log logger.Logger) *CachedAnalyzer {
	return &CachedAnalyzer{
		inner:  inner,
		redis:  rdb,
		ttl:    ttl,
		ns:     namespace,
		logger: logger.Component(log, "morphology-cache"),
	}
}

func (c *CachedAnalyzer) key(token string) string {
	return fmt.Sprintf("%s%s:%s", cacheKeyPrefix, c.ns, token)
}

func (c *CachedAnalyzer) Analyze(ctx context.Context, token string) (Result, error) {
	key := c.key(token)

	cached, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		if res, ok := decodeResult(cached); ok {
			return res, nil
		}
	case err != redis.Nil:
		c.logger.Warn("lemma cache read failed", map[string]interface{}{"token": token, "error": err})
	}

	res, err := c.inner.Analyze(ctx, token)
	if err != nil {
		return Result{}, err
	}

	if err := c.redis.Set(ctx, key, encodeResult(res), c.ttl).Err(); err != nil {
		c.logger.Warn("lemma cache write failed", map[string]interface{}{"token": token, "error": err})
	}
	return res, nil
}

func encodeResult(r Result) string {
	return string(r.POS) + "|" + r.Lemma
}

func decodeResult(s string) (Result, bool) {
	pos, lemma, ok := strings.Cut(s, "|")
	if !ok || lemma == "" {
		return Result{}, false
	}
	return Result{Lemma: lemma, POS: models.PartOfSpeech(pos)}, true
}

package ticket

import (
	"strings"

	"complaint-workers/internal/matching/text"
)

var acknowledgements = map[string]struct{}{
	"да": {}, "нет": {}, "ок": {}, "окей": {}, "ага": {}, "угу": {}, "хорошо": {},
	"верно": {}, "точно": {}, "спасибо": {}, "yes": {}, "no": {}, "ok": {}, "okay": {},
}

// IsAcknowledgement reports whether a turn carries only confirmation words.
func IsAcknowledgement(turn string) bool {
	words := text.Words(turn)
	if len(words) == 0 {
		return strings.TrimSpace(turn) == ""
	}
	for _, w := range words {
		if _, ok := acknowledgements[w]; !ok {
			return false
		}
	}
	return true
}

// BuildComplaintText joins user turns with single spaces, skipping
// acknowledgements and blank turns.
func BuildComplaintText(turns []string) string {
	parts := make([]string, 0, len(turns))
	for _, turn := range turns {
		turn = strings.TrimSpace(turn)
		if IsAcknowledgement(turn) {
			continue
		}
		parts = append(parts, turn)
	}
	return strings.Join(parts, " ")
}

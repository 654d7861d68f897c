// pkg/registry/registry_test.go
package registry

import (
	"path/filepath"
	"testing"

	apperrors "complaint-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func activity(id string) Activity {
	return Activity{
		ID:                   id,
		DisplayName:          "Match Complaint",
		Category:             "complaint",
		TaskType:             id,
		ImplementationStatus: "completed",
		Timeout:              "10s",
		ErrorCodes:           []string{"SEARCH_FAILED"},
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"complaintText": map[string]interface{}{"type": "string"}},
		},
	}
}

// ==========================
// Shipped Registry
// ==========================

func TestShippedRegistryIsValid(t *testing.T) {
	reg, err := LoadRegistry("../../configs/activity-registry.json")
	require.NoError(t, err)

	require.NoError(t, reg.Validate(apperrors.KnownCodes()))
	for _, taskType := range []string{"match-complaint", "build-ticket", "reload-catalog", "notify-dispatcher"} {
		_, ok := reg.Find(taskType)
		assert.True(t, ok, taskType)
	}
}

// ==========================
// Add / Save / Load
// ==========================

func TestAddSaveLoad(t *testing.T) {
	reg := &ActivityRegistry{Version: "1.0.0"}
	require.NoError(t, reg.Add(activity("match-complaint")))
	require.Error(t, reg.Add(activity("match-complaint")))

	dup := activity("other")
	dup.TaskType = "match-complaint"
	require.Error(t, reg.Add(dup))

	path := filepath.Join(t.TempDir(), "nested", "registry.json")
	require.NoError(t, reg.Save(path))
	assert.NotEmpty(t, reg.LastUpdated)

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	require.Len(t, loaded.Activities, 1)
	assert.Equal(t, "match-complaint", loaded.Activities[0].TaskType)
}

// ==========================
// Validation
// ==========================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Activity)
		want   string
	}{
		{"missing display name", func(a *Activity) { a.DisplayName = "" }, "DisplayName"},
		{"missing task type", func(a *Activity) { a.TaskType = "" }, "TaskType"},
		{"unknown status", func(a *Activity) { a.ImplementationStatus = "shipped" }, "unknown status"},
		{"bad timeout", func(a *Activity) { a.Timeout = "ten seconds" }, "invalid timeout"},
		{"unknown error code", func(a *Activity) { a.ErrorCodes = []string{"TEAPOT"} }, "unknown error code"},
		{"broken schema", func(a *Activity) { a.InputSchema = map[string]interface{}{"type": 42} }, "does not compile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := activity("match-complaint")
			tt.mutate(&a)
			reg := &ActivityRegistry{Activities: []Activity{a}}

			err := reg.Validate(apperrors.KnownCodes())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_EmptyAndDuplicates(t *testing.T) {
	assert.Error(t, (&ActivityRegistry{}).Validate(nil))

	reg := &ActivityRegistry{Activities: []Activity{activity("a"), activity("a")}}
	err := reg.Validate(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate activity ID")
}

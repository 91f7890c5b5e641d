package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestActivity(id string) Activity {
	return Activity{
		ID:          id,
		DisplayName: "Test " + id,
		Category:    CategoryGeneration,
		TaskType:    id,
		Timeout:     "10s",
	}
}

// ==========================
// Persistence Tests
// ==========================

func TestSaveAndLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "activity-registry.json")

	reg := DefaultRegistry()
	require.NoError(t, SaveRegistry(reg, path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, reg.Version, loaded.Version)
	assert.Len(t, loaded.Activities, len(reg.Activities))
	assert.NoError(t, loaded.Validate())
}

func TestLoadOrCreate(t *testing.T) {
	reg, err := LoadOrCreate(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, reg.Activities)
	assert.Equal(t, "1.0.0", reg.Version)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err = LoadOrCreate(bad)
	assert.Error(t, err)
}

// ==========================
// Mutation Tests
// ==========================

func TestAddRejectsDuplicatesAndUnknownStatus(t *testing.T) {
	reg := &ActivityRegistry{}
	require.NoError(t, reg.Add(createTestActivity("a")))
	assert.Error(t, reg.Add(createTestActivity("a")))

	planned := createTestActivity("b")
	planned.ImplementationStatus = StatusPlanned
	assert.NoError(t, reg.Add(planned))
	unknown := createTestActivity("c")
	unknown.ImplementationStatus = "someday"
	assert.Error(t, reg.Add(unknown))
	assert.NotEmpty(t, reg.LastUpdated)
}

func TestUpdateField(t *testing.T) {
	tests := []struct {
		name           string
		field          string
		value          string
		wantErr        bool
		validateOutput func(t *testing.T, a *Activity)
	}{
		{
			name: "status", field: "status", value: StatusVerified,
			validateOutput: func(t *testing.T, a *Activity) { assert.Equal(t, StatusVerified, a.ImplementationStatus) },
		},
		{
			name: "in progress", field: "status", value: StatusInProgress,
			validateOutput: func(t *testing.T, a *Activity) { assert.Equal(t, StatusInProgress, a.ImplementationStatus) },
		},
		{name: "unknown status", field: "status", value: "shipped", wantErr: true},
		{
			name: "retries", field: "retries", value: "2",
			validateOutput: func(t *testing.T, a *Activity) { assert.Equal(t, 2, a.Retries) },
		},
		{
			name: "timeout", field: "timeout", value: "90s",
			validateOutput: func(t *testing.T, a *Activity) { assert.Equal(t, "90s", a.Timeout) },
		},
		{name: "bad retries", field: "retries", value: "two", wantErr: true},
		{name: "bad timeout", field: "timeout", value: "soon", wantErr: true},
		{name: "unknown field", field: "color", value: "red", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &ActivityRegistry{Activities: []Activity{createTestActivity("a")}}
			err := reg.UpdateField("a", tt.field, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			activity, ok := reg.FindActivity("a")
			require.True(t, ok)
			tt.validateOutput(t, activity)
		})
	}

	reg := &ActivityRegistry{}
	assert.Error(t, reg.UpdateField("missing", "status", StatusCompleted))
}

// ==========================
// Validation Tests
// ==========================

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		activities []Activity
		wantErr    string
	}{
		{name: "empty", activities: nil, wantErr: "no activities"},
		{
			name:       "duplicate id",
			activities: []Activity{createTestActivity("a"), createTestActivity("a")},
			wantErr:    "duplicate activity ID",
		},
		{
			name: "duplicate task type",
			activities: func() []Activity {
				b := createTestActivity("b")
				b.TaskType = "a"
				return []Activity{createTestActivity("a"), b}
			}(),
			wantErr: "duplicate task type",
		},
		{
			name: "missing category",
			activities: func() []Activity {
				a := createTestActivity("a")
				a.Category = ""
				return []Activity{a}
			}(),
			wantErr: "Category",
		},
		{
			name: "unknown status",
			activities: func() []Activity {
				a := createTestActivity("a")
				a.ImplementationStatus = "done"
				return []Activity{a}
			}(),
			wantErr: "invalid status",
		},
		{
			name: "bad timeout",
			activities: func() []Activity {
				a := createTestActivity("a")
				a.Timeout = "ten"
				return []Activity{a}
			}(),
			wantErr: "invalid timeout",
		},
		{
			name: "schema does not compile",
			activities: func() []Activity {
				a := createTestActivity("a")
				a.InputSchema = map[string]interface{}{"type": 12}
				return []Activity{a}
			}(),
			wantErr: "input schema",
		},
		{name: "valid", activities: []Activity{createTestActivity("a"), createTestActivity("b")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &ActivityRegistry{Activities: tt.activities}
			err := reg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// ==========================
// Catalog Tests
// ==========================

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	require.NoError(t, reg.Validate())
	require.Len(t, reg.Activities, 5)

	for _, taskType := range []string{
		"validate-generation-request",
		"enhance-room-prompt",
		"generate-design-image",
		"generate-room-design",
		"refine-room-design",
	} {
		activity, ok := reg.FindByTaskType(taskType)
		require.True(t, ok, taskType)
		assert.Equal(t, StatusCompleted, activity.ImplementationStatus)
		assert.Equal(t, 0, activity.Retries)
		assert.Equal(t, []string{WorkflowGeneration}, activity.Workflows)
		assert.NotEmpty(t, activity.InputSchema)
	}

	refine, _ := reg.FindByTaskType("refine-room-design")
	assert.Equal(t, []string{"REFINEMENT_FAILED"}, refine.ErrorCodes)
	assert.Equal(t, "1m30s", refine.Timeout)
}

func TestSyncKeepsStatusAndCustomActivities(t *testing.T) {
	custom := createTestActivity("custom-step")
	stale := createTestActivity("refine-room-design")
	stale.ImplementationStatus = StatusVerified
	stale.Description = "old"

	reg := &ActivityRegistry{Activities: []Activity{custom, stale}}
	Sync(reg)

	require.NoError(t, reg.Validate())
	assert.Len(t, reg.Activities, 6)

	refine, ok := reg.FindActivity("refine-room-design")
	require.True(t, ok)
	assert.Equal(t, StatusVerified, refine.ImplementationStatus)
	assert.NotEqual(t, "old", refine.Description)

	_, ok = reg.FindActivity("custom-step")
	assert.True(t, ok)
}

// pkg/registry/catalog.go
package registry

import (
	"time"

	enhanceprompt "room-redesign-workers/internal/workers/generation/enhance-prompt"
	generatedesign "room-redesign-workers/internal/workers/generation/generate-design"
	generateroomdesign "room-redesign-workers/internal/workers/generation/generate-room-design"
	refinedesign "room-redesign-workers/internal/workers/generation/refine-design"
	validategenerationrequest "room-redesign-workers/internal/workers/generation/validate-generation-request"
)

const (
	CategoryGeneration = "generation"
	WorkflowGeneration = "room-design-generation"
)

// DefaultActivities describes the job types this module implements, with the
// schemas their handlers enforce.
func DefaultActivities() []Activity {
	return []Activity{
		{
			ID:           validategenerationrequest.TaskType,
			DisplayName:  "Validate Generation Request",
			Description:  "Checks a room redesign request and lists every field-level problem",
			TaskType:     validategenerationrequest.TaskType,
			InputSchema:  validategenerationrequest.GetInputSchema(),
			OutputSchema: objectSchema("isValid", "validationErrors"),
			ErrorCodes:   []string{"VALIDATION_FAILED"},
			Timeout:      duration(validategenerationrequest.LoadConfig().Timeout),
			Tags:         []string{"validation"},
		},
		{
			ID:           enhanceprompt.TaskType,
			DisplayName:  "Enhance Room Prompt",
			Description:  "Turns user intent into a detailed prompt, falling back to a local template when the service is unavailable",
			TaskType:     enhanceprompt.TaskType,
			InputSchema:  enhanceprompt.GetInputSchema(),
			OutputSchema: enhanceprompt.GetOutputSchema(),
			ErrorCodes:   []string{},
			Timeout:      duration(enhanceprompt.LoadConfig().Timeout),
			Tags:         []string{"ai", "stage-1"},
		},
		{
			ID:           generatedesign.TaskType,
			DisplayName:  "Generate Design Image",
			Description:  "Renders the redesigned room from the original image and the enhanced prompt",
			TaskType:     generatedesign.TaskType,
			InputSchema:  generatedesign.GetInputSchema(),
			OutputSchema: objectSchema("generatedDesign"),
			ErrorCodes:   []string{"SYNTHESIS_FAILED"},
			Timeout:      duration(generatedesign.LoadConfig().Timeout),
			Tags:         []string{"ai", "stage-2"},
		},
		{
			ID:           generateroomdesign.TaskType,
			DisplayName:  "Generate Room Design",
			Description:  "Runs enhancement then synthesis and reports the outcome to analytics",
			TaskType:     generateroomdesign.TaskType,
			InputSchema:  generateroomdesign.GetInputSchema(),
			OutputSchema: generateroomdesign.GetOutputSchema(),
			ErrorCodes:   []string{"VALIDATION_FAILED", "SYNTHESIS_FAILED"},
			Timeout:      duration(generateroomdesign.LoadConfig().Timeout),
			Tags:         []string{"ai", "pipeline"},
		},
		{
			ID:           refinedesign.TaskType,
			DisplayName:  "Refine Room Design",
			Description:  "Applies a follow-up instruction to a generated design",
			TaskType:     refinedesign.TaskType,
			InputSchema:  refinedesign.GetInputSchema(),
			OutputSchema: objectSchema("refinedDesign"),
			ErrorCodes:   []string{"REFINEMENT_FAILED"},
			Timeout:      duration(refinedesign.LoadConfig().Timeout),
			Tags:         []string{"ai", "refinement"},
		},
	}
}

// DefaultRegistry returns a registry holding DefaultActivities, all marked
// completed and attached to the generation workflow.
func DefaultRegistry() *ActivityRegistry {
	reg := &ActivityRegistry{Version: "1.0.0"}
	for _, activity := range DefaultActivities() {
		reg.Activities = append(reg.Activities, withDefaults(activity))
	}
	reg.touch()
	return reg
}

// Sync brings every built-in activity in reg up to date with the code while
// keeping each entry's status and any activities it does not know about.
func Sync(reg *ActivityRegistry) {
	for _, activity := range DefaultActivities() {
		activity = withDefaults(activity)
		if existing, ok := reg.FindActivity(activity.ID); ok && existing.ImplementationStatus != "" {
			activity.ImplementationStatus = existing.ImplementationStatus
		}
		reg.Upsert(activity)
	}
}

func withDefaults(activity Activity) Activity {
	activity.Category = CategoryGeneration
	activity.Version = "1.0.0"
	activity.ImplementationStatus = StatusCompleted
	activity.Workflows = []string{WorkflowGeneration}
	activity.Retries = 0
	return activity
}

func objectSchema(required ...string) map[string]interface{} {
	req := make([]interface{}, len(required))
	for i, r := range required {
		req[i] = r
	}
	return map[string]interface{}{
		"type":     "object",
		"required": req,
	}
}

func duration(d time.Duration) string {
	return d.String()
}

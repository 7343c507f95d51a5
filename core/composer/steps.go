package composer

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/session"
)

var stepNowFunc = time.Now // mockable

// StepResult is the outcome of validating one step of a draft.
type StepResult struct {
	Errors   map[string]string `json:"errors"`
	Complete bool              `json:"complete"`
}

func completeResult() StepResult {
	return StepResult{Errors: map[string]string{}, Complete: true}
}

// ValidateStep is a pure check of one step's slice of the draft
// against the given role. It never mutates the draft; callers run it
// on every change to the active step and on every step switch so the
// completed-step set is always derived from current data.
func ValidateStep(d Draft, step StepID, role session.Role) StepResult {
	switch step {
	case StepBasic:
		return validateBasic(d.Basic)
	case StepInstructor:
		return validateInstructor(d.Instructor, role)
	case StepContent:
		return validateContent(d.Content)
	case StepMetadata, StepMedia:
		// enrichment only; mutation-time rules (tag uniqueness, asset
		// size and count bounds) cannot leave these steps invalid
		return completeResult()
	}
	return StepResult{Errors: map[string]string{}, Complete: false}
}

// CompletedSteps recomputes the set of currently valid steps. It is a
// derived view; nothing ever caches it across edits.
func CompletedSteps(d Draft, role session.Role) []StepID {
	completed := make([]StepID, 0, len(Steps))
	for _, step := range Steps {
		if ValidateStep(d, step, role).Complete {
			completed = append(completed, step)
		}
	}
	return completed
}

// IncompleteSteps lists steps that do not currently validate, with
// their field errors.
func IncompleteSteps(d Draft, role session.Role) ([]StepID, map[StepID]map[string]string) {
	steps := make([]StepID, 0)
	fields := make(map[StepID]map[string]string)
	for _, step := range Steps {
		if res := ValidateStep(d, step, role); !res.Complete {
			steps = append(steps, step)
			fields[step] = res.Errors
		}
	}
	return steps, fields
}

func validateBasic(b BasicInfo) StepResult {
	res := StepResult{Errors: map[string]string{}}
	if err := core.Validate.Struct(b); err != nil {
		if vErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fErr := range core.TranslateFieldErrors(vErrs) {
				res.Errors[fErr.Field] = fErr.Error
			}
		} else {
			res.Errors["basic"] = err.Error()
		}
	}
	if b.EnrollmentDeadline != nil && b.EnrollmentDeadline.Before(stepNowFunc()) {
		res.Errors["enrollment_deadline"] = "enrollment deadline cannot be in the past"
	}
	res.Complete = len(res.Errors) == 0
	return res
}

func validateInstructor(instr *InstructorRef, role session.Role) StepResult {
	res := StepResult{Errors: map[string]string{}}
	switch role {
	case session.RoleInstructor:
		// derived value, not entered
		res.Complete = true
	case session.RoleAdmin:
		if instr == nil || instr.ID == "" {
			res.Errors["instructor"] = "an instructor must be assigned"
		} else {
			res.Complete = true
		}
	default:
		res.Errors["instructor"] = "insufficient role"
	}
	return res
}

func validateContent(c ContentInfo) StepResult {
	res := StepResult{Errors: map[string]string{}}
	if c.TotalModules < 0 {
		res.Errors["total_modules"] = "must be 0 or more"
	}
	res.Complete = len(res.Errors) == 0
	return res
}

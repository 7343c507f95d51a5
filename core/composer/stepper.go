package composer

import (
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/session"
)

var ErrUnknownStep = errors.New("unknown step")

// Navigate moves the draft's current step. Navigation is free: any
// step may be jumped to unconditionally, the user may look ahead and
// come back. The step being left is revalidated on exit so the
// completed-step set reflects edits made since it last validated;
// validity is surfaced via the indicators, never by blocking the move.
func Navigate(d *Draft, to StepID, role session.Role) (StepResult, error) {
	if !KnownStep(to) {
		return StepResult{}, ErrUnknownStep
	}
	left := ValidateStep(*d, d.CurrentStep, role)
	d.CurrentStep = to
	return left, nil
}

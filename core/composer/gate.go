package composer

import "github.com/trezcool/darasa/core/session"

// The role gate is the single source of truth for role-derived
// permissions within the composer. Submission paths that bypass a
// disabled control (programmatic calls, retries) still go through it.

const reasonInsufficientRole = "insufficient role"

// Decision is the gate's answer for an attempted action.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// CanCompose reports whether the role may author course drafts at all.
func CanCompose(role session.Role) bool {
	return role == session.RoleAdmin || role == session.RoleInstructor
}

// CanAssignInstructor reports whether the instructor step is actionable
// for the role: admins get a picker, instructors an informational
// auto-assignment notice.
func CanAssignInstructor(role session.Role) bool {
	return role == session.RoleAdmin || role == session.RoleInstructor
}

// ResolveInstructor applies role-to-field-ownership rules: for the
// instructor role the assignment is always the session's own identity,
// regardless of what the draft currently holds.
func ResolveInstructor(sess session.Session, d *Draft) {
	if sess.Role == session.RoleInstructor {
		d.Instructor = &InstructorRef{ID: sess.UserID, Label: sess.Name}
	}
}

// CanSubmit decides whether the session may submit the draft.
// Students and anonymous sessions are always denied regardless of
// draft completeness; admins additionally need a selected instructor.
func CanSubmit(sess session.Session, d Draft) Decision {
	switch sess.Role {
	case session.RoleInstructor:
		// own identity is auto-resolved; always allowed on this axis
		return allow()
	case session.RoleAdmin:
		if d.Instructor == nil || d.Instructor.ID == "" {
			return deny("an instructor must be assigned")
		}
		return allow()
	}
	return deny(reasonInsufficientRole)
}

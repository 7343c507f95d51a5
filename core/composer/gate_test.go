package composer

import (
	"testing"

	"github.com/trezcool/darasa/core/session"
)

func TestCanSubmit(t *testing.T) {
	instr := &InstructorRef{ID: "instr-1", Label: "Jane Doe"}

	tests := []struct {
		name        string
		role        session.Role
		instructor  *InstructorRef
		wantAllowed bool
		wantReason  string
	}{
		{name: "student denied", role: session.RoleStudent, instructor: instr, wantReason: "insufficient role"},
		{name: "anonymous denied", role: session.RoleAnonymous, instructor: instr, wantReason: "insufficient role"},
		{name: "admin without instructor", role: session.RoleAdmin, wantReason: "an instructor must be assigned"},
		{name: "admin with instructor", role: session.RoleAdmin, instructor: instr, wantAllowed: true},
		{name: "instructor always allowed", role: session.RoleInstructor, wantAllowed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newTestSession(tt.role)
			d := Draft{OwnerID: sess.UserID, Instructor: tt.instructor}

			decision := CanSubmit(sess, d)
			if decision.Allowed != tt.wantAllowed {
				t.Errorf("CanSubmit() allowed = %v; want %v", decision.Allowed, tt.wantAllowed)
			}
			if decision.Reason != tt.wantReason {
				t.Errorf("CanSubmit() reason = %q; want %q", decision.Reason, tt.wantReason)
			}
		})
	}
}

// A complete draft never makes a student or anonymous session submittable.
func TestCanSubmit_completeDraftStillDenied(t *testing.T) {
	d := Draft{
		Basic: BasicInfo{
			Title:            "Intro to X",
			ShortDescription: "short",
			LongDescription:  "long",
			CategoryID:       "cat-1",
		},
		Instructor: &InstructorRef{ID: "instr-1", Label: "Jane Doe"},
	}

	for _, role := range []session.Role{session.RoleStudent, session.RoleAnonymous} {
		if decision := CanSubmit(newTestSession(role), d); decision.Allowed {
			t.Errorf("CanSubmit(%s) allowed on a complete draft", role)
		}
	}
}

func TestCanAssignInstructor(t *testing.T) {
	tests := []struct {
		role session.Role
		want bool
	}{
		{session.RoleAdmin, true},
		{session.RoleInstructor, true},
		{session.RoleStudent, false},
		{session.RoleAnonymous, false},
	}
	for _, tt := range tests {
		if got := CanAssignInstructor(tt.role); got != tt.want {
			t.Errorf("CanAssignInstructor(%s) = %v; want %v", tt.role, got, tt.want)
		}
	}
}

func TestResolveInstructor(t *testing.T) {
	t.Run("instructor role is always self-assigned", func(t *testing.T) {
		sess := newTestSession(session.RoleInstructor)
		d := Draft{OwnerID: sess.UserID, Instructor: &InstructorRef{ID: "someone-else", Label: "Imposter"}}

		ResolveInstructor(sess, &d)
		if d.Instructor == nil || d.Instructor.ID != sess.UserID {
			t.Fatalf("ResolveInstructor() instructor = %+v; want session identity %s", d.Instructor, sess.UserID)
		}
		if d.Instructor.Label != sess.Name {
			t.Errorf("ResolveInstructor() label = %q; want %q", d.Instructor.Label, sess.Name)
		}
	})

	t.Run("admin pick is left alone", func(t *testing.T) {
		sess := newTestSession(session.RoleAdmin)
		picked := &InstructorRef{ID: "instr-1", Label: "Jane Doe"}
		d := Draft{OwnerID: sess.UserID, Instructor: picked}

		ResolveInstructor(sess, &d)
		if d.Instructor != picked {
			t.Errorf("ResolveInstructor() changed an admin's pick: %+v", d.Instructor)
		}
	})
}

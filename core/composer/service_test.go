package composer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/user"
)

func newTestService(t *testing.T) (*Service, *fakeRepo, *fakeCourseAPI, *fakeDirectory, *recordingNotifier) {
	t.Helper()
	repo := newFakeRepo()
	api := &fakeCourseAPI{}
	dir := &fakeDirectory{users: map[string]user.User{
		"instr-1": {ID: "instr-1", Name: "Jane Doe", Role: string(session.RoleInstructor), IsActive: true},
		"stud-1":  {ID: "stud-1", Name: "John Roe", Role: string(session.RoleStudent), IsActive: true},
	}}
	notifier := &recordingNotifier{}
	return NewService(repo, api, dir, notifier), repo, api, dir, notifier
}

func startDraft(t *testing.T, svc *Service, sess session.Session) Draft {
	t.Helper()
	view, err := svc.Start(sess)
	if err != nil {
		t.Fatalf("Start() err = %v", err)
	}
	return view.Draft
}

func TestServiceStart(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	t.Run("role gate", func(t *testing.T) {
		for _, role := range []session.Role{session.RoleStudent, session.RoleAnonymous} {
			_, err := svc.Start(newTestSession(role))
			if _, ok := errors.Cause(err).(*core.AuthorizationError); !ok {
				t.Errorf("Start(%s) err = %v; want *core.AuthorizationError", role, err)
			}
		}
	})

	t.Run("admin starts empty", func(t *testing.T) {
		sess := newTestSession(session.RoleAdmin)
		view, err := svc.Start(sess)
		if err != nil {
			t.Fatalf("Start() err = %v", err)
		}
		if view.Draft.ID == "" || view.Draft.OwnerID != sess.UserID {
			t.Errorf("Start() draft = %+v", view.Draft)
		}
		if view.Draft.CurrentStep != StepBasic {
			t.Errorf("Start() current step = %s; want basic", view.Draft.CurrentStep)
		}
		if view.Draft.Instructor != nil {
			t.Errorf("Start() pre-assigned instructor %+v for an admin", view.Draft.Instructor)
		}
		if view.Submit.Allowed {
			t.Error("Start() allowed submitting an empty draft")
		}
	})

	t.Run("instructor is auto-assigned", func(t *testing.T) {
		sess := newTestSession(session.RoleInstructor)
		view, err := svc.Start(sess)
		if err != nil {
			t.Fatalf("Start() err = %v", err)
		}
		if view.Draft.Instructor == nil || view.Draft.Instructor.ID != sess.UserID {
			t.Errorf("Start() instructor = %+v; want the session user", view.Draft.Instructor)
		}
	})

	t.Run("resumes the existing draft", func(t *testing.T) {
		sess := newTestSession(session.RoleAdmin)
		first := startDraft(t, svc, sess)
		again := startDraft(t, svc, sess)
		if again.ID != first.ID {
			t.Errorf("Start() created a second draft %s; want %s resumed", again.ID, first.ID)
		}
	})
}

func TestServiceGet_foreignDraft(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	d := startDraft(t, svc, newTestSession(session.RoleAdmin))

	// another composer-capable user cannot even learn the draft exists
	_, err := svc.Get(newTestSession(session.RoleAdmin), d.ID)
	if errors.Cause(err) != ErrNotFound {
		t.Errorf("Get() err = %v; want ErrNotFound", err)
	}
}

func TestServiceUpdateBasic(t *testing.T) {
	svc, repo, _, _, notifier := newTestService(t)
	sess := newTestSession(session.RoleAdmin)
	d := startDraft(t, svc, sess)

	// an invalid slice is still written; errors ride along inline
	_, res, err := svc.UpdateBasic(sess, d.ID, BasicInfo{Title: "  Only a title  "})
	if err != nil {
		t.Fatalf("UpdateBasic() err = %v", err)
	}
	if res.Complete {
		t.Error("UpdateBasic() reported an incomplete slice as complete")
	}
	saved, _ := repo.GetDraft(d.ID)
	if saved.Basic.Title != "Only a title" {
		t.Errorf("UpdateBasic() saved title = %q; want it cleaned and persisted", saved.Basic.Title)
	}
	if len(notifier.changes) == 0 {
		t.Error("UpdateBasic() sent no change notification")
	}

	_, res, err = svc.UpdateBasic(sess, d.ID, validBasic())
	if err != nil {
		t.Fatalf("UpdateBasic() err = %v", err)
	}
	if !res.Complete {
		t.Errorf("UpdateBasic() result = %v; want complete", res.Errors)
	}
}

func TestServiceSetInstructor(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	t.Run("admin picks", func(t *testing.T) {
		sess := newTestSession(session.RoleAdmin)
		d := startDraft(t, svc, sess)

		view, res, err := svc.SetInstructor(sess, d.ID, "instr-1")
		if err != nil {
			t.Fatalf("SetInstructor() err = %v", err)
		}
		if !res.Complete {
			t.Errorf("SetInstructor() result = %v; want complete", res.Errors)
		}
		if view.Draft.Instructor == nil || view.Draft.Instructor.Label != "Jane Doe" {
			t.Errorf("SetInstructor() instructor = %+v", view.Draft.Instructor)
		}
	})

	t.Run("admin picks a non-instructor", func(t *testing.T) {
		sess := newTestSession(session.RoleAdmin)
		d := startDraft(t, svc, sess)

		_, _, err := svc.SetInstructor(sess, d.ID, "stud-1")
		vErr, ok := errors.Cause(err).(*core.ValidationError)
		if !ok {
			t.Fatalf("SetInstructor() err = %v; want *core.ValidationError", err)
		}
		if len(vErr.Fields) == 0 || vErr.Fields[0].Field != "instructor" {
			t.Errorf("SetInstructor() fields = %v", vErr.Fields)
		}
	})

	t.Run("admin picks an unknown user", func(t *testing.T) {
		sess := newTestSession(session.RoleAdmin)
		d := startDraft(t, svc, sess)

		_, _, err := svc.SetInstructor(sess, d.ID, "nope")
		if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
			t.Fatalf("SetInstructor() err = %v; want *core.ValidationError", err)
		}
	})

	t.Run("instructor may not override the derived value", func(t *testing.T) {
		sess := newTestSession(session.RoleInstructor)
		d := startDraft(t, svc, sess)

		_, _, err := svc.SetInstructor(sess, d.ID, "instr-1")
		if _, ok := errors.Cause(err).(*core.AuthorizationError); !ok {
			t.Fatalf("SetInstructor() err = %v; want *core.AuthorizationError", err)
		}
		view, err := svc.Get(sess, d.ID)
		if err != nil {
			t.Fatal(err)
		}
		if view.Draft.Instructor == nil || view.Draft.Instructor.ID != sess.UserID {
			t.Errorf("SetInstructor() changed the derived assignment to %+v", view.Draft.Instructor)
		}
	})
}

func TestServiceAddListItem(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	sess := newTestSession(session.RoleAdmin)
	d := startDraft(t, svc, sess)

	view, err := svc.AddListItem(sess, d.ID, ListTags, "golang")
	if err != nil {
		t.Fatalf("AddListItem() err = %v", err)
	}
	if got := view.Draft.Meta.Tags; len(got) != 1 || got[0] != "golang" {
		t.Fatalf("AddListItem() tags = %v; want [golang]", got)
	}

	// adding the same tag again is a no-op, not an error
	view, err = svc.AddListItem(sess, d.ID, ListTags, "golang")
	if err != nil {
		t.Fatalf("AddListItem() err = %v", err)
	}
	if got := view.Draft.Meta.Tags; len(got) != 1 {
		t.Errorf("AddListItem() tags = %v; want a single occurrence", got)
	}

	// matching is case-sensitive
	view, err = svc.AddListItem(sess, d.ID, ListTags, "Golang")
	if err != nil {
		t.Fatalf("AddListItem() err = %v", err)
	}
	if got := view.Draft.Meta.Tags; len(got) != 2 {
		t.Errorf("AddListItem() tags = %v; want [golang Golang]", got)
	}

	if _, err = svc.AddListItem(sess, d.ID, ListTags, "   "); err == nil {
		t.Error("AddListItem() accepted a blank value")
	}
	if _, err = svc.AddListItem(sess, d.ID, ListField("modules"), "x"); err == nil {
		t.Error("AddListItem() accepted an unknown list")
	}
}

func TestServiceRemoveListItem(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	sess := newTestSession(session.RoleAdmin)
	d := startDraft(t, svc, sess)

	for _, tag := range []string{"a", "b", "c"} {
		if _, err := svc.AddListItem(sess, d.ID, ListTags, tag); err != nil {
			t.Fatal(err)
		}
	}

	view, err := svc.RemoveListItem(sess, d.ID, ListTags, "b")
	if err != nil {
		t.Fatalf("RemoveListItem() err = %v", err)
	}
	if got := strings.Join(view.Draft.Meta.Tags, ","); got != "a,c" {
		t.Errorf("RemoveListItem() tags = %q; want a,c", got)
	}

	// removing a missing value is a no-op
	if _, err = svc.RemoveListItem(sess, d.ID, ListTags, "zzz"); err != nil {
		t.Errorf("RemoveListItem() err = %v; want nil for a missing value", err)
	}
}

// a fetched draft shares its lists' backing arrays with the stored
// copy; removal must compact into fresh storage so the stored draft
// only changes on a successful save
func TestServiceRemoveListItem_storedDraftUntouched(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	sess := newTestSession(session.RoleAdmin)
	d := startDraft(t, svc, sess)

	for _, tag := range []string{"go", "web", "api"} {
		if _, err := svc.AddListItem(sess, d.ID, ListTags, tag); err != nil {
			t.Fatal(err)
		}
	}
	before, _ := repo.GetDraft(d.ID)

	if _, err := svc.RemoveListItem(sess, d.ID, ListTags, "go"); err != nil {
		t.Fatalf("RemoveListItem() err = %v", err)
	}

	if got := strings.Join(before.Meta.Tags, ","); got != "go,web,api" {
		t.Errorf("RemoveListItem() wrote through a previously fetched copy: %q", got)
	}
	saved, _ := repo.GetDraft(d.ID)
	if got := strings.Join(saved.Meta.Tags, ","); got != "web,api" {
		t.Errorf("RemoveListItem() tags = %q; want web,api", got)
	}
}

func TestServiceAttachAsset(t *testing.T) {
	newInput := func(name string, size int) AssetInput {
		return AssetInput{
			Name:        name,
			ContentType: "image/png",
			Size:        int64(size),
			Content:     bytes.NewReader(bytes.Repeat([]byte("x"), size)),
		}
	}

	t.Run("banner replace", func(t *testing.T) {
		svc, _, _, _, _ := newTestService(t)
		sess := newTestSession(session.RoleAdmin)
		d := startDraft(t, svc, sess)

		if _, err := svc.AttachAsset(sess, d.ID, MediaBanner, newInput("first.png", 8), EncodingInline); err != nil {
			t.Fatal(err)
		}
		view, err := svc.AttachAsset(sess, d.ID, MediaBanner, newInput("second.png", 8), EncodingInline)
		if err != nil {
			t.Fatalf("AttachAsset() err = %v", err)
		}
		if view.Draft.Media.BannerImage.Name != "second.png" {
			t.Errorf("AttachAsset() banner = %q; want the re-selection to win", view.Draft.Media.BannerImage.Name)
		}
		if view.Draft.Media.Strategy != EncodingInline {
			t.Errorf("AttachAsset() strategy = %q; want inline", view.Draft.Media.Strategy)
		}
	})

	t.Run("oversized file leaves the draft untouched", func(t *testing.T) {
		svc, repo, _, _, _ := newTestService(t)
		sess := newTestSession(session.RoleAdmin)
		d := startDraft(t, svc, sess)

		in := AssetInput{Name: "huge.png", ContentType: "image/png", Size: 6 << 20, Content: strings.NewReader("")}
		_, err := svc.AttachAsset(sess, d.ID, MediaBanner, in, EncodingInline)
		if _, ok := errors.Cause(err).(*AssetError); !ok {
			t.Fatalf("AttachAsset() err = %v; want *AssetError", err)
		}
		saved, _ := repo.GetDraft(d.ID)
		if saved.Media.BannerImage != nil || saved.Media.Strategy != "" {
			t.Errorf("AttachAsset() mutated the draft on rejection: %+v", saved.Media)
		}
	})

	t.Run("strategy mixing is rejected", func(t *testing.T) {
		svc, _, _, _, _ := newTestService(t)
		sess := newTestSession(session.RoleAdmin)
		d := startDraft(t, svc, sess)

		if _, err := svc.AttachAsset(sess, d.ID, MediaBanner, newInput("banner.png", 8), EncodingInline); err != nil {
			t.Fatal(err)
		}
		_, err := svc.AttachAsset(sess, d.ID, MediaThumbnail, newInput("thumb.png", 8), EncodingUpload)
		if _, ok := errors.Cause(err).(*AssetError); !ok {
			t.Fatalf("AttachAsset() err = %v; want *AssetError on strategy mix", err)
		}
	})

	t.Run("removing all media frees the strategy", func(t *testing.T) {
		svc, _, _, _, _ := newTestService(t)
		sess := newTestSession(session.RoleAdmin)
		d := startDraft(t, svc, sess)

		if _, err := svc.AttachAsset(sess, d.ID, MediaBanner, newInput("banner.png", 8), EncodingInline); err != nil {
			t.Fatal(err)
		}
		view, err := svc.RemoveAsset(sess, d.ID, MediaBanner, 0)
		if err != nil {
			t.Fatalf("RemoveAsset() err = %v", err)
		}
		if view.Draft.Media.Strategy != "" {
			t.Errorf("RemoveAsset() strategy = %q; want it cleared on an empty media step", view.Draft.Media.Strategy)
		}
		if _, err = svc.AttachAsset(sess, d.ID, MediaBanner, newInput("banner2.png", 8), EncodingUpload); err != nil {
			t.Errorf("AttachAsset() err = %v; want the other strategy accepted once media is empty", err)
		}
	})

	t.Run("thumbnail cap", func(t *testing.T) {
		svc, _, _, _, _ := newTestService(t)
		sess := newTestSession(session.RoleAdmin)
		d := startDraft(t, svc, sess)

		for i := 0; i < MaxThumbnails; i++ {
			if _, err := svc.AttachAsset(sess, d.ID, MediaThumbnail, newInput("t.png", 4), EncodingUpload); err != nil {
				t.Fatal(err)
			}
		}
		_, err := svc.AttachAsset(sess, d.ID, MediaThumbnail, newInput("one-too-many.png", 4), EncodingUpload)
		if _, ok := errors.Cause(err).(*AssetError); !ok {
			t.Fatalf("AttachAsset() err = %v; want *AssetError past %d thumbnails", err, MaxThumbnails)
		}

		view, err := svc.RemoveAsset(sess, d.ID, MediaThumbnail, 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(view.Draft.Media.Thumbnails) != MaxThumbnails-1 {
			t.Errorf("RemoveAsset() thumbnails = %d; want %d", len(view.Draft.Media.Thumbnails), MaxThumbnails-1)
		}
	})

	t.Run("thumbnail removal leaves fetched copies intact", func(t *testing.T) {
		svc, repo, _, _, _ := newTestService(t)
		sess := newTestSession(session.RoleAdmin)
		d := startDraft(t, svc, sess)

		for _, name := range []string{"t0.png", "t1.png", "t2.png"} {
			if _, err := svc.AttachAsset(sess, d.ID, MediaThumbnail, newInput(name, 4), EncodingInline); err != nil {
				t.Fatal(err)
			}
		}
		before, _ := repo.GetDraft(d.ID)

		if _, err := svc.RemoveAsset(sess, d.ID, MediaThumbnail, 0); err != nil {
			t.Fatalf("RemoveAsset() err = %v", err)
		}

		if len(before.Media.Thumbnails) != 3 || before.Media.Thumbnails[0].Name != "t0.png" {
			t.Errorf("RemoveAsset() wrote through a previously fetched copy: %+v", before.Media.Thumbnails)
		}
		saved, _ := repo.GetDraft(d.ID)
		if len(saved.Media.Thumbnails) != 2 || saved.Media.Thumbnails[0].Name != "t1.png" {
			t.Errorf("RemoveAsset() thumbnails = %+v; want [t1.png t2.png]", saved.Media.Thumbnails)
		}
	})

	t.Run("removing an absent banner is a silent no-op", func(t *testing.T) {
		svc, _, _, _, notifier := newTestService(t)
		sess := newTestSession(session.RoleAdmin)
		d := startDraft(t, svc, sess)

		seen := len(notifier.changes)
		view, err := svc.RemoveAsset(sess, d.ID, MediaBanner, 0)
		if err != nil {
			t.Fatalf("RemoveAsset() err = %v", err)
		}
		if view.Draft.Media.BannerImage != nil {
			t.Errorf("RemoveAsset() banner = %+v; want nil", view.Draft.Media.BannerImage)
		}
		if len(notifier.changes) != seen {
			t.Error("RemoveAsset() notified a change for a banner that was already absent")
		}
	})
}

func TestServiceNavigate(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	sess := newTestSession(session.RoleAdmin)
	d := startDraft(t, svc, sess)

	_, left, err := svc.Navigate(sess, d.ID, StepMedia)
	if err != nil {
		t.Fatalf("Navigate() err = %v", err)
	}
	if left.Complete {
		t.Error("Navigate() reported the empty basic step as complete on exit")
	}
	saved, _ := repo.GetDraft(d.ID)
	if saved.CurrentStep != StepMedia {
		t.Errorf("Navigate() persisted step = %s; want media", saved.CurrentStep)
	}

	_, _, err = svc.Navigate(sess, d.ID, StepID("review"))
	if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
		t.Errorf("Navigate() err = %v; want *core.ValidationError for an unknown step", err)
	}
}

func TestServiceSubmit(t *testing.T) {
	fill := func(t *testing.T, svc *Service, sess session.Session, d Draft) {
		t.Helper()
		if _, _, err := svc.UpdateBasic(sess, d.ID, validBasic()); err != nil {
			t.Fatal(err)
		}
		if sess.Role == session.RoleAdmin {
			if _, _, err := svc.SetInstructor(sess, d.ID, "instr-1"); err != nil {
				t.Fatal(err)
			}
		}
	}

	t.Run("admin end to end", func(t *testing.T) {
		svc, repo, api, _, _ := newTestService(t)
		sess := newTestSession(session.RoleAdmin)
		d := startDraft(t, svc, sess)
		fill(t, svc, sess, d)

		crs, err := svc.Submit(sess, d.ID)
		if err != nil {
			t.Fatalf("Submit() err = %v", err)
		}
		if crs.ID == "" {
			t.Error("Submit() returned a course without an ID")
		}
		if len(api.created) != 1 {
			t.Fatalf("Submit() created %d courses; want 1", len(api.created))
		}
		nc := api.created[0]
		if nc.InstructorID != "instr-1" {
			t.Errorf("Submit() payload instructor = %q; want instr-1", nc.InstructorID)
		}
		if nc.Tags == nil || nc.Thumbnails == nil {
			t.Error("Submit() payload has nil lists; untouched steps must contribute empty ones")
		}
		if _, err := repo.GetDraft(d.ID); errors.Cause(err) != ErrNotFound {
			t.Errorf("Submit() left the draft behind after success (err = %v)", err)
		}
	})

	t.Run("instructor identity is re-derived", func(t *testing.T) {
		svc, repo, api, _, _ := newTestService(t)
		sess := newTestSession(session.RoleInstructor)
		d := startDraft(t, svc, sess)
		fill(t, svc, sess, d)

		// a stale assignment on the stored draft never reaches the payload
		stored, _ := repo.GetDraft(d.ID)
		stored.Instructor = &InstructorRef{ID: "someone-else", Label: "Imposter"}
		if _, err := repo.SaveDraft(stored); err != nil {
			t.Fatal(err)
		}

		if _, err := svc.Submit(sess, d.ID); err != nil {
			t.Fatalf("Submit() err = %v", err)
		}
		if got := api.created[0].InstructorID; got != sess.UserID {
			t.Errorf("Submit() payload instructor = %q; want the session user %q", got, sess.UserID)
		}
	})

	t.Run("incomplete draft", func(t *testing.T) {
		svc, repo, api, _, _ := newTestService(t)
		sess := newTestSession(session.RoleAdmin)
		d := startDraft(t, svc, sess)

		_, err := svc.Submit(sess, d.ID)
		if _, ok := errors.Cause(err).(*IncompleteStepsError); !ok {
			t.Fatalf("Submit() err = %v; want *IncompleteStepsError", err)
		}
		if len(api.created) != 0 {
			t.Error("Submit() reached the course API with an incomplete draft")
		}
		if _, err := repo.GetDraft(d.ID); err != nil {
			t.Errorf("Submit() discarded the draft on failure (err = %v)", err)
		}
	})

	t.Run("draft preserved on course API failure", func(t *testing.T) {
		svc, repo, api, _, _ := newTestService(t)
		sess := newTestSession(session.RoleAdmin)
		d := startDraft(t, svc, sess)
		fill(t, svc, sess, d)

		apiErr := errors.New("course api is down")
		api.err = apiErr
		if _, err := svc.Submit(sess, d.ID); errors.Cause(err) != apiErr {
			t.Fatalf("Submit() err = %v; want the course API failure surfaced unchanged", err)
		}
		if _, err := repo.GetDraft(d.ID); err != nil {
			t.Errorf("Submit() discarded the draft on failure (err = %v)", err)
		}

		// the failed attempt releases the in-flight mark; a retry succeeds
		api.err = nil
		if _, err := svc.Submit(sess, d.ID); err != nil {
			t.Errorf("Submit() retry err = %v", err)
		}
	})

	t.Run("one submission in flight", func(t *testing.T) {
		svc, repo, _, _, _ := newTestService(t)
		sess := newTestSession(session.RoleAdmin)
		d := startDraft(t, svc, sess)
		fill(t, svc, sess, d)

		if err := repo.BeginSubmit(d.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Submit(sess, d.ID); errors.Cause(err) != ErrSubmitInFlight {
			t.Errorf("Submit() err = %v; want ErrSubmitInFlight", err)
		}
	})
}

func TestServiceCancel(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	sess := newTestSession(session.RoleAdmin)
	d := startDraft(t, svc, sess)

	if err := svc.Cancel(sess, d.ID); err != nil {
		t.Fatalf("Cancel() err = %v", err)
	}
	if _, err := repo.GetDraft(d.ID); errors.Cause(err) != ErrNotFound {
		t.Errorf("Cancel() left the draft behind (err = %v)", err)
	}

	if err := svc.Cancel(sess, d.ID); errors.Cause(err) != ErrNotFound {
		t.Errorf("Cancel() err = %v; want ErrNotFound for a gone draft", err)
	}
}

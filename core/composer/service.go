package composer

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound       = errors.New("draft not found")
	ErrSubmitInFlight = errors.New("a submission is already in progress")

	nowFunc = time.Now // mockable
)

// MediaField names the draft fields that hold assets.
type MediaField string

const (
	MediaBanner    MediaField = "banner_image"
	MediaThumbnail MediaField = "thumbnails"
)

type (
	// Repository stores in-progress drafts. Drafts never reach the
	// course tables; submission is all-or-nothing.
	Repository interface {
		CreateDraft(d Draft) (Draft, error)
		GetDraft(id string) (Draft, error)
		GetDraftByOwner(ownerID string) (Draft, error)
		SaveDraft(d Draft) (Draft, error)
		DeleteDraft(id string) error
		// BeginSubmit atomically marks the draft as submitting;
		// returns ErrSubmitInFlight while a submission is in progress.
		BeginSubmit(id string) error
		EndSubmit(id string)
	}

	// CourseAPI is the external collaborator that receives the
	// assembled payload. Its success or failure is surfaced back to
	// the caller unchanged.
	CourseAPI interface {
		Create(nc course.NewCourse) (course.Course, error)
	}

	// InstructorDirectory resolves instructor picks for the admin path.
	InstructorDirectory interface {
		GetUserByID(id string) (user.User, error)
	}

	// Notifier receives a draft-changed notification after every
	// successful mutation (for unsaved-changes warnings upstream).
	Notifier interface {
		DraftChanged(d Draft)
	}

	Service struct {
		repo        Repository
		courses     CourseAPI
		instructors InstructorDirectory
		notifier    Notifier // optional
	}
)

func NewService(repo Repository, courses CourseAPI, instructors InstructorDirectory, notifier Notifier) *Service {
	return &Service{repo: repo, courses: courses, instructors: instructors, notifier: notifier}
}

// DraftView is the composer state handed to the UI: the draft plus the
// derived step results for every step.
type DraftView struct {
	Draft          Draft                 `json:"draft"`
	CompletedSteps []StepID              `json:"completed_steps"`
	StepResults    map[StepID]StepResult `json:"step_results"`
	Submit         Decision              `json:"submit"`
}

func (svc *Service) view(d Draft, sess session.Session) DraftView {
	results := make(map[StepID]StepResult, len(Steps))
	for _, step := range Steps {
		results[step] = ValidateStep(d, step, sess.Role)
	}
	return DraftView{
		Draft:          d,
		CompletedSteps: CompletedSteps(d, sess.Role),
		StepResults:    results,
		Submit:         CanSubmit(sess, d),
	}
}

// getOwned fetches a draft and enforces ownership. Foreign drafts are
// reported as not found rather than forbidden.
func (svc *Service) getOwned(sess session.Session, id string) (Draft, error) {
	if !CanCompose(sess.Role) {
		return Draft{}, core.NewAuthorizationError(reasonInsufficientRole)
	}
	d, err := svc.repo.GetDraft(id)
	if err != nil {
		return Draft{}, err
	}
	if d.OwnerID != sess.UserID {
		return Draft{}, ErrNotFound
	}
	return d, nil
}

func (svc *Service) save(d Draft) (Draft, error) {
	d.UpdatedAt = nowFunc().UTC()
	d, err := svc.repo.SaveDraft(d)
	if err != nil {
		return Draft{}, err
	}
	if svc.notifier != nil {
		svc.notifier.DraftChanged(d)
	}
	return d, nil
}

// Start opens the composer: it returns the session owner's in-progress
// draft if one exists, otherwise a fresh empty one. For the instructor
// role the instructor assignment is resolved immediately and stays
// out of the user's hands.
func (svc *Service) Start(sess session.Session) (DraftView, error) {
	if !CanCompose(sess.Role) {
		return DraftView{}, core.NewAuthorizationError(reasonInsufficientRole)
	}

	if d, err := svc.repo.GetDraftByOwner(sess.UserID); err == nil {
		return svc.view(d, sess), nil
	} else if errors.Cause(err) != ErrNotFound {
		return DraftView{}, err
	}

	now := nowFunc().UTC()
	d := Draft{
		ID:          uuid.New().String(),
		OwnerID:     sess.UserID,
		CurrentStep: StepBasic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ResolveInstructor(sess, &d)
	d, err := svc.repo.CreateDraft(d)
	if err != nil {
		return DraftView{}, err
	}
	if svc.notifier != nil {
		svc.notifier.DraftChanged(d)
	}
	return svc.view(d, sess), nil
}

func (svc *Service) Get(sess session.Session, id string) (DraftView, error) {
	d, err := svc.getOwned(sess, id)
	if err != nil {
		return DraftView{}, err
	}
	return svc.view(d, sess), nil
}

// UpdateBasic replaces the basic step slice. Field errors are returned
// inline with the saved draft; they never block the write nor editing
// of other steps.
func (svc *Service) UpdateBasic(sess session.Session, id string, b BasicInfo) (DraftView, StepResult, error) {
	d, err := svc.getOwned(sess, id)
	if err != nil {
		return DraftView{}, StepResult{}, err
	}

	b.Title = core.CleanString(b.Title)
	b.ShortDescription = core.CleanString(b.ShortDescription)
	b.LongDescription = core.CleanString(b.LongDescription)
	d.Basic = b

	if d, err = svc.save(d); err != nil {
		return DraftView{}, StepResult{}, err
	}
	return svc.view(d, sess), ValidateStep(d, StepBasic, sess.Role), nil
}

// UpdateContent replaces the content step slice; its ordered lists are
// deduplicated on entry.
func (svc *Service) UpdateContent(sess session.Session, id string, c ContentInfo) (DraftView, StepResult, error) {
	d, err := svc.getOwned(sess, id)
	if err != nil {
		return DraftView{}, StepResult{}, err
	}

	c.WhatYoullLearn = dedupe(c.WhatYoullLearn)
	c.Prerequisites = dedupe(c.Prerequisites)
	c.Subtitles = dedupe(c.Subtitles)
	d.Content = c

	if d, err = svc.save(d); err != nil {
		return DraftView{}, StepResult{}, err
	}
	return svc.view(d, sess), ValidateStep(d, StepContent, sess.Role), nil
}

// UpdateMetadata replaces the metadata step slice; tags stay unique
// (case-sensitive) and ordered.
func (svc *Service) UpdateMetadata(sess session.Session, id string, m Metadata) (DraftView, StepResult, error) {
	d, err := svc.getOwned(sess, id)
	if err != nil {
		return DraftView{}, StepResult{}, err
	}

	m.Tags = dedupe(m.Tags)
	d.Meta = m

	if d, err = svc.save(d); err != nil {
		return DraftView{}, StepResult{}, err
	}
	return svc.view(d, sess), ValidateStep(d, StepMetadata, sess.Role), nil
}

// SetInstructor assigns the draft's instructor. Only admins pick; for
// the instructor role the value is derived from the session and any
// attempt to set it is refused rather than silently ignored.
func (svc *Service) SetInstructor(sess session.Session, id, instructorID string) (DraftView, StepResult, error) {
	d, err := svc.getOwned(sess, id)
	if err != nil {
		return DraftView{}, StepResult{}, err
	}
	if sess.Role != session.RoleAdmin {
		return DraftView{}, StepResult{}, core.NewAuthorizationError("the instructor is auto-assigned for your role")
	}

	instr, err := svc.instructors.GetUserByID(instructorID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return DraftView{}, StepResult{}, core.NewValidationError(err, core.FieldError{Field: "instructor", Error: "instructor not found"})
		}
		return DraftView{}, StepResult{}, errors.Wrap(err, "finding instructor")
	}
	if !instr.IsInstructor() {
		return DraftView{}, StepResult{}, core.NewValidationError(nil, core.FieldError{Field: "instructor", Error: "selected user is not an instructor"})
	}
	d.Instructor = &InstructorRef{ID: instr.ID, Label: instr.Name}

	if d, err = svc.save(d); err != nil {
		return DraftView{}, StepResult{}, err
	}
	return svc.view(d, sess), ValidateStep(d, StepInstructor, sess.Role), nil
}

// AddListItem appends a value to one of the draft's ordered lists.
// Empty values are rejected; adding an existing value is idempotent
// and leaves a single occurrence.
func (svc *Service) AddListItem(sess session.Session, id string, field ListField, value string) (DraftView, error) {
	d, err := svc.getOwned(sess, id)
	if err != nil {
		return DraftView{}, err
	}
	list := d.list(field)
	if list == nil {
		return DraftView{}, core.NewValidationError(nil, core.FieldError{Field: string(field), Error: "unknown list"})
	}

	value = core.CleanString(value)
	if value == "" {
		return DraftView{}, core.NewValidationError(nil, core.FieldError{Field: string(field), Error: "this field is required"})
	}
	for _, v := range *list {
		if v == value { // case-sensitive
			return svc.view(d, sess), nil
		}
	}
	*list = append(*list, value)

	if d, err = svc.save(d); err != nil {
		return DraftView{}, err
	}
	return svc.view(d, sess), nil
}

// RemoveListItem removes a value from one of the ordered lists; a
// missing value is a no-op.
func (svc *Service) RemoveListItem(sess session.Session, id string, field ListField, value string) (DraftView, error) {
	d, err := svc.getOwned(sess, id)
	if err != nil {
		return DraftView{}, err
	}
	list := d.list(field)
	if list == nil {
		return DraftView{}, core.NewValidationError(nil, core.FieldError{Field: string(field), Error: "unknown list"})
	}

	// compact into a fresh slice: the fetched draft shares its lists'
	// backing arrays with the stored copy, which must not change
	// before a successful save
	kept := make([]string, 0, len(*list))
	var removed bool
	for _, v := range *list {
		if v == value {
			removed = true
			continue
		}
		kept = append(kept, v)
	}
	if !removed {
		return svc.view(d, sess), nil
	}
	*list = kept

	if d, err = svc.save(d); err != nil {
		return DraftView{}, err
	}
	return svc.view(d, sess), nil
}

// AttachAsset encodes a selected file and stores it on the draft. A
// rejected file (oversized, unreadable, wrong strategy) leaves the
// draft untouched. The first attachment fixes the draft's encoding
// strategy; switching requires removing existing media first.
func (svc *Service) AttachAsset(sess session.Session, id string, field MediaField, in AssetInput, strategy AssetEncoding) (DraftView, error) {
	d, err := svc.getOwned(sess, id)
	if err != nil {
		return DraftView{}, err
	}

	if d.Media.Strategy != "" && d.Media.Strategy != strategy {
		return DraftView{}, newAssetError(string(field), "draft already uses the "+string(d.Media.Strategy)+" strategy; remove existing media first")
	}
	if field == MediaThumbnail && len(d.Media.Thumbnails) >= MaxThumbnails {
		return DraftView{}, newAssetError(string(field), "at most 4 thumbnails are allowed")
	}

	ref, err := EncodeAsset(in, strategy)
	if err != nil {
		return DraftView{}, err
	}

	switch field {
	case MediaBanner:
		// re-selection replaces the previous pick, last write wins
		d.Media.BannerImage = &ref
	case MediaThumbnail:
		d.Media.Thumbnails = append(d.Media.Thumbnails, ref)
	default:
		return DraftView{}, newAssetError(string(field), "unknown media field")
	}
	d.Media.Strategy = strategy

	if d, err = svc.save(d); err != nil {
		return DraftView{}, err
	}
	return svc.view(d, sess), nil
}

// RemoveAsset nulls the field outright; there is no soft-delete state.
func (svc *Service) RemoveAsset(sess session.Session, id string, field MediaField, index int) (DraftView, error) {
	d, err := svc.getOwned(sess, id)
	if err != nil {
		return DraftView{}, err
	}

	switch field {
	case MediaBanner:
		if d.Media.BannerImage == nil {
			// already absent, nothing changed to save or notify
			return svc.view(d, sess), nil
		}
		d.Media.BannerImage = nil
	case MediaThumbnail:
		if index < 0 || index >= len(d.Media.Thumbnails) {
			return DraftView{}, newAssetError(string(field), "no thumbnail at this position")
		}
		kept := make([]AssetRef, 0, len(d.Media.Thumbnails)-1)
		kept = append(kept, d.Media.Thumbnails[:index]...)
		kept = append(kept, d.Media.Thumbnails[index+1:]...)
		d.Media.Thumbnails = kept
	default:
		return DraftView{}, newAssetError(string(field), "unknown media field")
	}
	if d.Media.Empty() {
		d.Media.Strategy = ""
	}

	if d, err = svc.save(d); err != nil {
		return DraftView{}, err
	}
	return svc.view(d, sess), nil
}

// Navigate moves the current step, revalidating the step being left.
func (svc *Service) Navigate(sess session.Session, id string, to StepID) (DraftView, StepResult, error) {
	d, err := svc.getOwned(sess, id)
	if err != nil {
		return DraftView{}, StepResult{}, err
	}

	left, err := Navigate(&d, to, sess.Role)
	if err != nil {
		return DraftView{}, StepResult{}, core.NewValidationError(err, core.FieldError{Field: "step", Error: err.Error()})
	}

	if d, err = svc.save(d); err != nil {
		return DraftView{}, StepResult{}, err
	}
	return svc.view(d, sess), left, nil
}

// Submit re-validates everything, assembles the flat payload and hands
// it to the course API. The draft is discarded only on success; any
// failure preserves it unchanged so the user can retry without
// re-entering data. At most one submission per draft is in flight.
func (svc *Service) Submit(sess session.Session, id string) (course.Course, error) {
	d, err := svc.getOwned(sess, id)
	if err != nil {
		return course.Course{}, err
	}

	if err := svc.repo.BeginSubmit(d.ID); err != nil {
		return course.Course{}, err
	}
	defer svc.repo.EndSubmit(d.ID)

	// the instructor assignment is re-derived, never trusted from the draft
	ResolveInstructor(sess, &d)

	nc, err := Assemble(d, sess)
	if err != nil {
		return course.Course{}, err
	}

	crs, err := svc.courses.Create(nc)
	if err != nil {
		// surfaced unchanged; the draft stays intact for a retry
		return course.Course{}, err
	}

	if err := svc.repo.DeleteDraft(d.ID); err != nil {
		return course.Course{}, errors.Wrap(err, "discarding submitted draft")
	}
	if svc.notifier != nil {
		svc.notifier.DraftChanged(d)
	}
	return crs, nil
}

// Cancel discards the draft. This is the only data-discarding action.
func (svc *Service) Cancel(sess session.Session, id string) error {
	d, err := svc.getOwned(sess, id)
	if err != nil {
		return err
	}
	if err := svc.repo.DeleteDraft(d.ID); err != nil {
		return err
	}
	if svc.notifier != nil {
		svc.notifier.DraftChanged(d)
	}
	return nil
}

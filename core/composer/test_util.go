package composer

import (
	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/user"
)

// in-memory fakes for Service tests

type fakeRepo struct {
	drafts     map[string]Draft
	submitting map[string]bool
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		drafts:     make(map[string]Draft),
		submitting: make(map[string]bool),
	}
}

func (repo *fakeRepo) CreateDraft(d Draft) (Draft, error) {
	repo.drafts[d.ID] = d
	return d, nil
}

func (repo *fakeRepo) GetDraft(id string) (Draft, error) {
	if d, ok := repo.drafts[id]; ok {
		return d, nil
	}
	return Draft{}, ErrNotFound
}

func (repo *fakeRepo) GetDraftByOwner(ownerID string) (Draft, error) {
	for _, d := range repo.drafts {
		if d.OwnerID == ownerID {
			return d, nil
		}
	}
	return Draft{}, ErrNotFound
}

func (repo *fakeRepo) SaveDraft(d Draft) (Draft, error) {
	if _, ok := repo.drafts[d.ID]; !ok {
		return Draft{}, ErrNotFound
	}
	repo.drafts[d.ID] = d
	return d, nil
}

func (repo *fakeRepo) DeleteDraft(id string) error {
	delete(repo.drafts, id)
	delete(repo.submitting, id)
	return nil
}

func (repo *fakeRepo) BeginSubmit(id string) error {
	if repo.submitting[id] {
		return ErrSubmitInFlight
	}
	repo.submitting[id] = true
	return nil
}

func (repo *fakeRepo) EndSubmit(id string) {
	delete(repo.submitting, id)
}

type fakeCourseAPI struct {
	created []course.NewCourse
	err     error
}

func (api *fakeCourseAPI) Create(nc course.NewCourse) (course.Course, error) {
	if api.err != nil {
		return course.Course{}, api.err
	}
	api.created = append(api.created, nc)
	return course.Course{ID: uuid.New().String(), Title: nc.Title, InstructorID: nc.InstructorID}, nil
}

type fakeDirectory struct {
	users map[string]user.User
}

func (dir *fakeDirectory) GetUserByID(id string) (user.User, error) {
	if usr, ok := dir.users[id]; ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

type recordingNotifier struct {
	changes []string
}

func (n *recordingNotifier) DraftChanged(d Draft) {
	n.changes = append(n.changes, d.ID)
}

func newTestSession(role session.Role) session.Session {
	return session.Session{
		Role:   role,
		UserID: uuid.New().String(),
		Name:   "Test " + string(role),
		Email:  string(role) + "@test.test",
	}
}

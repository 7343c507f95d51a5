package inmemdb

import (
	"github.com/trezcool/darasa/core/composer"
)

type draftRepository struct {
	db *draftTable
}

func NewDraftRepository(db *DB) composer.Repository {
	return &draftRepository{db: db.draft}
}

func (repo *draftRepository) CreateDraft(d composer.Draft) (composer.Draft, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[d.ID] = &d
	return d, nil
}

func (repo *draftRepository) GetDraft(id string) (composer.Draft, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if d, ok := repo.db.table[id]; ok {
		return *d, nil
	}
	return composer.Draft{}, composer.ErrNotFound
}

func (repo *draftRepository) GetDraftByOwner(ownerID string) (composer.Draft, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, d := range repo.db.table {
		if d.OwnerID == ownerID {
			return *d, nil
		}
	}
	return composer.Draft{}, composer.ErrNotFound
}

func (repo *draftRepository) SaveDraft(d composer.Draft) (composer.Draft, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[d.ID]; !ok {
		return composer.Draft{}, composer.ErrNotFound
	}
	repo.db.table[d.ID] = &d
	return d, nil
}

func (repo *draftRepository) DeleteDraft(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.table, id)
	delete(repo.db.submitting, id)
	return nil
}

func (repo *draftRepository) BeginSubmit(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.db.submitting[id] {
		return composer.ErrSubmitInFlight
	}
	repo.db.submitting[id] = true
	return nil
}

func (repo *draftRepository) EndSubmit(id string) {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.submitting, id)
}

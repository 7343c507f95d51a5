package sqlxrepos

import (
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/composer"
)

type draftRepository struct {
	db *sqlx.DB
}

func NewDraftRepository(db *sql.DB) composer.Repository {
	return &draftRepository{db: sqlx.NewDb(db, "postgres")}
}

// draftRow stores the whole draft as a JSONB document. Drafts are
// short-lived scratch space; only the owner and submission flag need
// their own columns.
type draftRow struct {
	ID         string         `db:"id"`
	OwnerID    string         `db:"owner_id"`
	Data       types.JSONText `db:"data"`
	Submitting bool           `db:"submitting"`
	CreatedAt  null.Time      `db:"created_at"`
	UpdatedAt  null.Time      `db:"updated_at"`
}

func (row draftRow) draft() (composer.Draft, error) {
	var d composer.Draft
	if err := row.Data.Unmarshal(&d); err != nil {
		return composer.Draft{}, errors.Wrap(err, "decoding draft")
	}
	d.ID = row.ID
	d.OwnerID = row.OwnerID
	d.CreatedAt = row.CreatedAt.Time
	d.UpdatedAt = row.UpdatedAt.Time
	return d, nil
}

func newDraftRow(d composer.Draft) (draftRow, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return draftRow{}, errors.Wrap(err, "encoding draft")
	}
	return draftRow{
		ID:        d.ID,
		OwnerID:   d.OwnerID,
		Data:      data,
		CreatedAt: null.TimeFrom(d.CreatedAt),
		UpdatedAt: null.TimeFrom(d.UpdatedAt),
	}, nil
}

func (repo *draftRepository) CreateDraft(d composer.Draft) (composer.Draft, error) {
	row, err := newDraftRow(d)
	if err != nil {
		return composer.Draft{}, err
	}
	q := `
		INSERT INTO course_draft (id, owner_id, data, created_at, updated_at)
		VALUES (:id, :owner_id, :data, :created_at, :updated_at)`
	if _, err = repo.db.NamedExec(q, row); err != nil {
		return composer.Draft{}, errors.Wrap(err, "creating draft")
	}
	return d, nil
}

func (repo *draftRepository) getDraft(where string, args ...interface{}) (composer.Draft, error) {
	var row draftRow
	q := `SELECT id, owner_id, data, submitting, created_at, updated_at FROM course_draft WHERE ` + where
	if err := repo.db.Get(&row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return composer.Draft{}, composer.ErrNotFound
		}
		return composer.Draft{}, errors.Wrap(err, "getting draft")
	}
	return row.draft()
}

func (repo *draftRepository) GetDraft(id string) (composer.Draft, error) {
	return repo.getDraft(`id = $1`, id)
}

func (repo *draftRepository) GetDraftByOwner(ownerID string) (composer.Draft, error) {
	return repo.getDraft(`owner_id = $1`, ownerID)
}

func (repo *draftRepository) SaveDraft(d composer.Draft) (composer.Draft, error) {
	row, err := newDraftRow(d)
	if err != nil {
		return composer.Draft{}, err
	}
	q := `UPDATE course_draft SET data = :data, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExec(q, row)
	if err != nil {
		return composer.Draft{}, errors.Wrap(err, "saving draft")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return composer.Draft{}, composer.ErrNotFound
	}
	return d, nil
}

func (repo *draftRepository) DeleteDraft(id string) error {
	if _, err := repo.db.Exec(`DELETE FROM course_draft WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting draft")
	}
	return nil
}

// BeginSubmit takes the submission flag atomically so concurrent
// submits of the same draft cannot both proceed.
func (repo *draftRepository) BeginSubmit(id string) error {
	res, err := repo.db.Exec(`UPDATE course_draft SET submitting = TRUE WHERE id = $1 AND NOT submitting`, id)
	if err != nil {
		return errors.Wrap(err, "marking draft submitting")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := repo.GetDraft(id); err != nil {
			return err
		}
		return composer.ErrSubmitInFlight
	}
	return nil
}

func (repo *draftRepository) EndSubmit(id string) {
	_, _ = repo.db.Exec(`UPDATE course_draft SET submitting = FALSE WHERE id = $1`, id)
}

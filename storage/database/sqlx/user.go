package sqlxrepos

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sql.DB) user.Repository {
	return &userRepository{db: sqlx.NewDb(db, "postgres")}
}

// userRow mirrors the "user" table; the domain model carries no db tags.
type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	Role         string    `db:"role"`
	IsActive     bool      `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    null.Time `db:"created_at"`
	UpdatedAt    null.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func (row userRow) user() user.User {
	return user.User{
		ID:           row.ID,
		Name:         row.Name,
		Username:     row.Username,
		Email:        row.Email,
		Role:         row.Role,
		IsActive:     row.IsActive,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
		LastLogin:    row.LastLogin.Time,
	}
}

func newUserRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     usr.Username,
		Email:        usr.Email,
		Role:         usr.Role,
		IsActive:     usr.IsActive,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    null.TimeFrom(usr.CreatedAt),
		UpdatedAt:    null.TimeFrom(usr.UpdatedAt),
		LastLogin:    null.NewTime(usr.LastLogin, !usr.LastLogin.IsZero()),
	}
}

const userColumns = `id, name, username, email, role, is_active, password_hash, created_at, updated_at, last_login`

func (repo *userRepository) CheckUsernameUniqueness(username, email string, excludedUsers ...user.User) error {
	args := []interface{}{username, email}
	q := `SELECT username, email FROM "user" WHERE (username = $1 OR email = $2)`
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for i, usr := range excludedUsers {
			ids = append(ids, fmt.Sprintf("$%d", i+3))
			args = append(args, usr.ID)
		}
		q += ` AND id NOT IN (` + strings.Join(ids, ",") + `)`
	}
	q += ` LIMIT 1`

	var row struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	if err := repo.db.Get(&row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return errors.Wrap(err, "checking uniqueness")
	}
	if row.Username == username {
		return user.ErrUsernameExists
	}
	return user.ErrEmailExists
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	q := `
		INSERT INTO "user" (` + userColumns + `)
		VALUES (:id, :name, :username, :email, :role, :is_active, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExec(q, newUserRow(usr)); err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	return repo.selectUsers(`SELECT `+userColumns+` FROM "user" ORDER BY created_at`, nil)
}

func (repo *userRepository) getUser(where string, args ...interface{}) (user.User, error) {
	var row userRow
	q := `SELECT ` + userColumns + ` FROM "user" WHERE ` + where
	if err := repo.db.Get(&row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.user(), nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	return repo.getUser(`id = $1`, id)
}

func (repo *userRepository) GetUserByUsername(username string) (user.User, error) {
	return repo.getUser(`username = $1`, username)
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	return repo.getUser(`email = $1`, email)
}

func (repo *userRepository) GetUserByUsernameOrEmail(username string) (user.User, error) {
	return repo.getUser(`username = $1 OR email = $1`, username)
}

func (repo *userRepository) FilterUsers(filter user.QueryFilter) ([]user.User, error) {
	where := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where = append(where, `(name ILIKE `+p+` OR username ILIKE `+p+` OR email ILIKE `+p+`)`)
	}
	if filter.Role != "" {
		where = append(where, `role = `+arg(filter.Role))
	}
	if filter.IsActive != nil {
		where = append(where, `is_active = `+arg(*filter.IsActive))
	}
	if !filter.CreatedFrom.IsZero() {
		where = append(where, `created_at >= `+arg(filter.CreatedFrom))
	}
	if !filter.CreatedTo.IsZero() {
		where = append(where, `created_at <= `+arg(filter.CreatedTo))
	}

	q := `SELECT ` + userColumns + ` FROM "user"`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at`
	return repo.selectUsers(q, args)
}

func (repo *userRepository) selectUsers(q string, args []interface{}) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.user())
	}
	return users, nil
}

// UpdateUser only saves set fields.
func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	set := make([]string, 0, 8)
	args := make([]interface{}, 0, 8)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if usr.Name != "" {
		set = append(set, `name = `+arg(usr.Name))
	}
	if usr.Username != "" {
		set = append(set, `username = `+arg(usr.Username))
	}
	if usr.Email != "" {
		set = append(set, `email = `+arg(usr.Email))
	}
	if usr.Role != "" {
		set = append(set, `role = `+arg(usr.Role))
	}
	if usr.PasswordHash != nil {
		set = append(set, `password_hash = `+arg(usr.PasswordHash))
	}
	if isActive != nil {
		set = append(set, `is_active = `+arg(*isActive))
	}
	if !usr.LastLogin.IsZero() {
		set = append(set, `last_login = `+arg(usr.LastLogin))
	}
	if !usr.UpdatedAt.IsZero() {
		set = append(set, `updated_at = `+arg(usr.UpdatedAt))
	}
	if len(set) == 0 {
		return repo.GetUserByID(usr.ID)
	}

	q := `UPDATE "user" SET ` + strings.Join(set, ", ") + ` WHERE id = ` + arg(usr.ID)
	res, err := repo.db.Exec(q, args...)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(usr.ID)
}

func (repo *userRepository) DeleteUsersByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting users")
	}
	if _, err = repo.db.Exec(repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}

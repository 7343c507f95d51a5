package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

func NewCourseRepository(db *sql.DB) course.Repository {
	return &courseRepository{db: sqlx.NewDb(db, "postgres")}
}

// courseRow mirrors the course table joined with the instructor's name.
// List and asset fields live in JSONB columns.
type courseRow struct {
	ID                  string         `db:"id"`
	Title               string         `db:"title"`
	ShortDescription    string         `db:"short_description"`
	LongDescription     string         `db:"long_description"`
	CategoryID          string         `db:"category_id"`
	Level               string         `db:"level"`
	Language            string         `db:"language"`
	Tags                types.JSONText `db:"tags"`
	Price               float64        `db:"price"`
	AccessType          string         `db:"access_type"`
	EnrollmentDeadline  null.Time      `db:"enrollment_deadline"`
	TotalModules        int            `db:"total_modules"`
	TotalDuration       string         `db:"total_duration"`
	WhatYoullLearn      types.JSONText `db:"what_youll_learn"`
	Prerequisites       types.JSONText `db:"prerequisites"`
	Subtitles           types.JSONText `db:"subtitles"`
	Published           bool           `db:"published"`
	CertificateIncluded bool           `db:"certificate_included"`
	InstructorID        string         `db:"instructor_id"`
	InstructorName      string         `db:"instructor_name"`
	BannerImage         types.JSONText `db:"banner_image"`
	Thumbnails          types.JSONText `db:"thumbnails"`
	CreatedAt           null.Time      `db:"created_at"`
	UpdatedAt           null.Time      `db:"updated_at"`
}

func (row courseRow) course() (course.Course, error) {
	crs := course.Course{
		ID:                  row.ID,
		Title:               row.Title,
		ShortDescription:    row.ShortDescription,
		LongDescription:     row.LongDescription,
		CategoryID:          row.CategoryID,
		Level:               row.Level,
		Language:            row.Language,
		Price:               row.Price,
		AccessType:          row.AccessType,
		EnrollmentDeadline:  row.EnrollmentDeadline,
		TotalModules:        row.TotalModules,
		TotalDuration:       row.TotalDuration,
		Published:           row.Published,
		CertificateIncluded: row.CertificateIncluded,
		InstructorID:        row.InstructorID,
		InstructorName:      row.InstructorName,
		CreatedAt:           row.CreatedAt.Time,
		UpdatedAt:           row.UpdatedAt.Time,
	}
	for _, f := range []struct {
		data types.JSONText
		dst  interface{}
	}{
		{row.Tags, &crs.Tags},
		{row.WhatYoullLearn, &crs.WhatYoullLearn},
		{row.Prerequisites, &crs.Prerequisites},
		{row.Subtitles, &crs.Subtitles},
		{row.Thumbnails, &crs.Thumbnails},
	} {
		if len(f.data) > 0 {
			if err := f.data.Unmarshal(f.dst); err != nil {
				return course.Course{}, errors.Wrap(err, "decoding course")
			}
		}
	}
	if len(row.BannerImage) > 0 {
		banner := new(course.Asset)
		if err := row.BannerImage.Unmarshal(banner); err != nil {
			return course.Course{}, errors.Wrap(err, "decoding course")
		}
		crs.BannerImage = banner
	}
	return crs, nil
}

func newCourseRow(crs course.Course) (courseRow, error) {
	row := courseRow{
		ID:                  crs.ID,
		Title:               crs.Title,
		ShortDescription:    crs.ShortDescription,
		LongDescription:     crs.LongDescription,
		CategoryID:          crs.CategoryID,
		Level:               crs.Level,
		Language:            crs.Language,
		Price:               crs.Price,
		AccessType:          crs.AccessType,
		EnrollmentDeadline:  crs.EnrollmentDeadline,
		TotalModules:        crs.TotalModules,
		TotalDuration:       crs.TotalDuration,
		Published:           crs.Published,
		CertificateIncluded: crs.CertificateIncluded,
		InstructorID:        crs.InstructorID,
		CreatedAt:           null.TimeFrom(crs.CreatedAt),
		UpdatedAt:           null.TimeFrom(crs.UpdatedAt),
	}
	for _, f := range []struct {
		src interface{}
		dst *types.JSONText
	}{
		{emptyIfNil(crs.Tags), &row.Tags},
		{emptyIfNil(crs.WhatYoullLearn), &row.WhatYoullLearn},
		{emptyIfNil(crs.Prerequisites), &row.Prerequisites},
		{emptyIfNil(crs.Subtitles), &row.Subtitles},
		{crs.Thumbnails, &row.Thumbnails},
	} {
		data, err := json.Marshal(f.src)
		if err != nil {
			return courseRow{}, errors.Wrap(err, "encoding course")
		}
		*f.dst = data
	}
	if crs.BannerImage != nil {
		data, err := json.Marshal(crs.BannerImage)
		if err != nil {
			return courseRow{}, errors.Wrap(err, "encoding course")
		}
		row.BannerImage = data
	}
	return row, nil
}

func emptyIfNil(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}

const (
	courseColumns = `c.id, c.title, c.short_description, c.long_description, c.category_id, c.level, c.language,
		c.tags, c.price, c.access_type, c.enrollment_deadline, c.total_modules, c.total_duration,
		c.what_youll_learn, c.prerequisites, c.subtitles, c.published, c.certificate_included,
		c.instructor_id, u.name AS instructor_name, c.banner_image, c.thumbnails, c.created_at, c.updated_at`
	courseFrom = ` FROM course c JOIN "user" u ON u.id = c.instructor_id`
)

func (repo *courseRepository) CreateCourse(crs course.Course) (course.Course, error) {
	row, err := newCourseRow(crs)
	if err != nil {
		return course.Course{}, err
	}
	q := `
		INSERT INTO course (id, title, short_description, long_description, category_id, level, language,
			tags, price, access_type, enrollment_deadline, total_modules, total_duration,
			what_youll_learn, prerequisites, subtitles, published, certificate_included,
			instructor_id, banner_image, thumbnails, created_at, updated_at)
		VALUES (:id, :title, :short_description, :long_description, :category_id, :level, :language,
			:tags, :price, :access_type, :enrollment_deadline, :total_modules, :total_duration,
			:what_youll_learn, :prerequisites, :subtitles, :published, :certificate_included,
			:instructor_id, :banner_image, :thumbnails, :created_at, :updated_at)`
	if _, err = repo.db.NamedExec(q, row); err != nil {
		return course.Course{}, errors.Wrap(err, "creating course")
	}
	return repo.GetCourseByID(crs.ID)
}

func (repo *courseRepository) QueryAllCourses() ([]course.Course, error) {
	return repo.selectCourses(`SELECT `+courseColumns+courseFrom+` ORDER BY c.created_at`, nil)
}

func (repo *courseRepository) GetCourseByID(id string) (course.Course, error) {
	var row courseRow
	q := `SELECT ` + courseColumns + courseFrom + ` WHERE c.id = $1`
	if err := repo.db.Get(&row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return row.course()
}

func (repo *courseRepository) FilterCourses(filter course.QueryFilter) ([]course.Course, error) {
	where := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		where = append(where, `c.title ILIKE `+arg("%"+filter.Search+"%"))
	}
	if filter.CategoryID != "" {
		where = append(where, `c.category_id = `+arg(filter.CategoryID))
	}
	if filter.Published != nil {
		where = append(where, `c.published = `+arg(*filter.Published))
	}
	if filter.Instructor != "" {
		where = append(where, `c.instructor_id = `+arg(filter.Instructor))
	}

	q := `SELECT ` + courseColumns + courseFrom
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY c.created_at`
	return repo.selectCourses(q, args)
}

func (repo *courseRepository) selectCourses(q string, args []interface{}) ([]course.Course, error) {
	var rows []courseRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		crs, err := row.course()
		if err != nil {
			return nil, err
		}
		courses = append(courses, crs)
	}
	return courses, nil
}

func (repo *courseRepository) DeleteCoursesByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM course WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting courses")
	}
	if _, err = repo.db.Exec(repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting courses")
	}
	return nil
}

func (repo *courseRepository) CreateCategory(cat course.Category) (course.Category, error) {
	if _, err := repo.db.Exec(`INSERT INTO category (id, name) VALUES ($1, $2)`, cat.ID, cat.Name); err != nil {
		return course.Category{}, errors.Wrap(err, "creating category")
	}
	return cat, nil
}

func (repo *courseRepository) QueryAllCategories() ([]course.Category, error) {
	var rows []struct {
		ID   string `db:"id"`
		Name string `db:"name"`
	}
	if err := repo.db.Select(&rows, `SELECT id, name FROM category ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "querying categories")
	}
	cats := make([]course.Category, 0, len(rows))
	for _, row := range rows {
		cats = append(cats, course.Category{ID: row.ID, Name: row.Name})
	}
	return cats, nil
}

func (repo *courseRepository) GetCategoryByID(id string) (course.Category, error) {
	var row struct {
		ID   string `db:"id"`
		Name string `db:"name"`
	}
	if err := repo.db.Get(&row, `SELECT id, name FROM category WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Category{}, course.ErrCategoryNotFound
		}
		return course.Category{}, errors.Wrap(err, "getting category")
	}
	return course.Category{ID: row.ID, Name: row.Name}, nil
}

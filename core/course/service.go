package course

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("course not found")
	ErrCategoryNotFound = errors.New("category not found")
)

type (
	Repository interface {
		CreateCourse(crs Course) (Course, error)
		QueryAllCourses() ([]Course, error)
		GetCourseByID(id string) (Course, error)
		// FilterCourses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Course.Title.
		FilterCourses(filter QueryFilter) ([]Course, error)
		DeleteCoursesByID(ids ...string) error

		CreateCategory(cat Category) (Category, error)
		QueryAllCategories() ([]Category, error)
		GetCategoryByID(id string) (Category, error)
	}

	// InstructorFinder resolves an instructor ID to their account, for
	// payload validation and the publish notification email.
	InstructorFinder interface {
		GetUserByID(id string) (user.User, error)
	}

	Service struct {
		repo        Repository
		instructors InstructorFinder
		mailSvc     core.EmailService
	}
)

func NewService(repo Repository, instructors InstructorFinder, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, instructors: instructors, mailSvc: mailSvc}
}

// Create persists a new course from an assembled payload. The payload
// is accepted whole or not at all; no partial writes.
func (svc *Service) Create(nc NewCourse) (Course, error) {
	if err := core.Validate.Struct(nc); err != nil {
		return Course{}, err
	}

	if _, err := svc.repo.GetCategoryByID(nc.CategoryID); err != nil {
		if errors.Cause(err) == ErrCategoryNotFound {
			return Course{}, core.NewValidationError(err, core.FieldError{Field: "category_id", Error: err.Error()})
		}
		return Course{}, errors.Wrap(err, "checking category")
	}

	instr, err := svc.instructors.GetUserByID(nc.InstructorID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Course{}, core.NewValidationError(err, core.FieldError{Field: "instructor_id", Error: "instructor not found"})
		}
		return Course{}, errors.Wrap(err, "checking instructor")
	}

	now := time.Now().UTC()
	crs := Course{
		ID:                  uuid.New().String(),
		Title:               nc.Title,
		ShortDescription:    nc.ShortDescription,
		LongDescription:     nc.LongDescription,
		CategoryID:          nc.CategoryID,
		Level:               nc.Level,
		Language:            nc.Language,
		Tags:                nc.Tags,
		Price:               nc.Price,
		AccessType:          nc.AccessType,
		EnrollmentDeadline:  null.TimeFromPtr(nc.EnrollmentDeadline),
		TotalModules:        nc.TotalModules,
		TotalDuration:       nc.TotalDuration,
		WhatYoullLearn:      nc.WhatYoullLearn,
		Prerequisites:       nc.Prerequisites,
		Subtitles:           nc.Subtitles,
		Published:           nc.Published,
		CertificateIncluded: nc.CertificateIncluded,
		InstructorID:        instr.ID,
		InstructorName:      instr.Name,
		BannerImage:         nc.BannerImage,
		Thumbnails:          nc.Thumbnails,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	crs, err = svc.repo.CreateCourse(crs)
	if err != nil {
		return Course{}, err
	}

	if crs.Published && instr.Email != "" {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: instr.Name, Address: instr.Email}},
			Subject:      "Your course is live",
			TemplateName: "course-published",
			TemplateData: struct {
				Instructor user.User
				Course     Course
			}{instr, crs},
		})
	}
	return crs, nil
}

func (svc *Service) QueryAll() ([]Course, error) {
	return svc.repo.QueryAllCourses()
}

func (svc *Service) GetByID(id string) (Course, error) {
	return svc.repo.GetCourseByID(id)
}

func (svc *Service) Filter(filter QueryFilter) ([]Course, error) {
	return svc.repo.FilterCourses(filter)
}

func (svc *Service) Delete(ids ...string) error {
	return svc.repo.DeleteCoursesByID(ids...)
}

func (svc *Service) CreateCategory(name string) (Category, error) {
	name = core.CleanString(name)
	if name == "" {
		return Category{}, core.NewValidationError(nil, core.FieldError{Field: "name", Error: "this field is required"})
	}
	return svc.repo.CreateCategory(Category{ID: uuid.New().String(), Name: name})
}

func (svc *Service) QueryCategories() ([]Category, error) {
	return svc.repo.QueryAllCategories()
}

package course

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Access types
const (
	AccessFree     = "free"
	AccessPaid     = "paid"
	AccessLifetime = "lifetime"
)

// Levels
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
	LevelAllLevels    = "all"
)

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Asset is the wire form of a course media file: either a
// self-contained inline payload or a reference to a deferred upload.
type Asset struct {
	Encoding    string `json:"encoding"` // "inline" | "upload"
	Data        string `json:"data,omitempty"`
	UploadID    string `json:"upload_id,omitempty"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type Course struct {
	ID                  string      `json:"id"`
	Title               string      `json:"title"`
	ShortDescription    string      `json:"short_description"`
	LongDescription     string      `json:"long_description"`
	CategoryID          string      `json:"category_id"`
	Level               string      `json:"level"`
	Language            string      `json:"language"`
	Tags                []string    `json:"tags"`
	Price               float64     `json:"price"`
	AccessType          string      `json:"access_type"`
	EnrollmentDeadline  null.Time   `json:"enrollment_deadline,omitempty"`
	TotalModules        int         `json:"total_modules"`
	TotalDuration       string      `json:"total_duration"`
	WhatYoullLearn      []string    `json:"what_youll_learn"`
	Prerequisites       []string    `json:"prerequisites"`
	Subtitles           []string    `json:"subtitles"`
	Published           bool        `json:"published"`
	CertificateIncluded bool        `json:"certificate_included"`
	InstructorID        string      `json:"instructor_id"`
	InstructorName      string      `json:"instructor_name"`
	BannerImage         *Asset      `json:"banner_image,omitempty"`
	Thumbnails          []Asset     `json:"thumbnails"`
	CreatedAt           time.Time   `json:"created_at"` // UTC
	UpdatedAt           time.Time   `json:"updated_at"` // UTC
}

// NewCourse is the single flat payload the composer assembles from a
// completed draft. Ordered lists are never nil on the wire.
type NewCourse struct {
	Title               string     `json:"title" validate:"required,min=2"`
	ShortDescription    string     `json:"short_description" validate:"required"`
	LongDescription     string     `json:"long_description" validate:"required"`
	CategoryID          string     `json:"category_id" validate:"required"`
	Level               string     `json:"level"`
	Language            string     `json:"language"`
	Tags                []string   `json:"tags"`
	Price               float64    `json:"price" validate:"gte=0"`
	AccessType          string     `json:"access_type"`
	EnrollmentDeadline  *time.Time `json:"enrollment_deadline,omitempty"`
	TotalModules        int        `json:"total_modules"`
	TotalDuration       string     `json:"total_duration"`
	WhatYoullLearn      []string   `json:"what_youll_learn"`
	Prerequisites       []string   `json:"prerequisites"`
	Subtitles           []string   `json:"subtitles"`
	Published           bool       `json:"published"`
	CertificateIncluded bool       `json:"certificate_included"`
	InstructorID        string     `json:"instructor_id" validate:"required"`
	BannerImage         *Asset     `json:"banner_image,omitempty"`
	Thumbnails          []Asset    `json:"thumbnails" validate:"max=4"`
}

type QueryFilter struct {
	Search     string `query:"search"`
	CategoryID string `query:"category_id"`
	Published  *bool  `query:"published"`
	Instructor string `query:"instructor"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.CategoryID == "" && qf.Published == nil && qf.Instructor == ""
}

package composer

import (
	"strings"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/session"
)

// IncompleteStepsError names the steps that failed re-validation at
// submission time, with their field errors.
type IncompleteStepsError struct {
	Steps  []StepID
	Fields map[StepID]map[string]string
}

func (err IncompleteStepsError) Error() string {
	names := make([]string, 0, len(err.Steps))
	for _, s := range err.Steps {
		names = append(names, string(s))
	}
	return "incomplete steps: " + strings.Join(names, ", ")
}

// Assemble merges a completed draft into the single flat payload the
// course API expects. Every step is re-validated here; a previously
// computed completed-step set is never trusted at submission time.
// The instructor assignment is re-derived from the session, so a
// draft that never visited the instructor step still assembles for
// the instructor role. Ordered lists are always present in the
// payload, never nil.
func Assemble(d Draft, sess session.Session) (course.NewCourse, error) {
	ResolveInstructor(sess, &d)

	if steps, fields := IncompleteSteps(d, sess.Role); len(steps) > 0 {
		return course.NewCourse{}, &IncompleteStepsError{Steps: steps, Fields: fields}
	}
	if decision := CanSubmit(sess, d); !decision.Allowed {
		return course.NewCourse{}, core.NewAuthorizationError(decision.Reason)
	}

	nc := course.NewCourse{
		Title:               d.Basic.Title,
		ShortDescription:    d.Basic.ShortDescription,
		LongDescription:     d.Basic.LongDescription,
		CategoryID:          d.Basic.CategoryID,
		Level:               d.Basic.Level,
		Language:            d.Basic.Language,
		Tags:                emptyIfNil(d.Meta.Tags),
		Price:               d.Basic.Price,
		AccessType:          d.Basic.AccessType,
		EnrollmentDeadline:  d.Basic.EnrollmentDeadline,
		TotalModules:        d.Content.TotalModules,
		TotalDuration:       d.Content.TotalDuration,
		WhatYoullLearn:      emptyIfNil(d.Content.WhatYoullLearn),
		Prerequisites:       emptyIfNil(d.Content.Prerequisites),
		Subtitles:           emptyIfNil(d.Content.Subtitles),
		Published:           d.Meta.Published,
		CertificateIncluded: d.Meta.CertificateIncluded,
		InstructorID:        d.Instructor.ID,
		Thumbnails:          make([]course.Asset, 0, len(d.Media.Thumbnails)),
	}
	if d.Media.BannerImage != nil {
		banner := wireAsset(*d.Media.BannerImage)
		nc.BannerImage = &banner
	}
	for _, ref := range d.Media.Thumbnails {
		nc.Thumbnails = append(nc.Thumbnails, wireAsset(ref))
	}
	return nc, nil
}

func wireAsset(ref AssetRef) course.Asset {
	return course.Asset{
		Encoding:    string(ref.Encoding),
		Data:        ref.Data,
		UploadID:    ref.UploadID,
		Name:        ref.Name,
		ContentType: ref.ContentType,
		Size:        ref.Size,
	}
}

func emptyIfNil(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}

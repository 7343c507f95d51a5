package composer

import (
	"time"
)

// StepID identifies one coherent region of the draft. Fields are
// partitioned by step; no two steps own the same field.
type StepID string

const (
	StepBasic      StepID = "basic"
	StepInstructor StepID = "instructor"
	StepContent    StepID = "content"
	StepMetadata   StepID = "metadata"
	StepMedia      StepID = "media"
)

var Steps = []StepID{StepBasic, StepInstructor, StepContent, StepMetadata, StepMedia}

func KnownStep(s StepID) bool {
	for _, step := range Steps {
		if s == step {
			return true
		}
	}
	return false
}

// AssetEncoding discriminates the two media strategies. An asset is
// either a self-contained inline payload or a deferred-upload handle,
// never both.
type AssetEncoding string

const (
	EncodingInline AssetEncoding = "inline"
	EncodingUpload AssetEncoding = "url"
)

// AssetRef references a selected media file. Encoding is the tag:
// Data is only set for inline assets, UploadID only for deferred ones.
type AssetRef struct {
	Encoding    AssetEncoding `json:"encoding"`
	Name        string        `json:"name"`
	ContentType string        `json:"content_type"`
	Size        int64         `json:"size"`
	Data        string        `json:"data,omitempty"`      // base64, inline only
	UploadID    string        `json:"upload_id,omitempty"` // deferred only
}

func (a AssetRef) IsInline() bool   { return a.Encoding == EncodingInline }
func (a AssetRef) IsDeferred() bool { return a.Encoding == EncodingUpload }

// InstructorRef is the draft's instructor assignment: the picked (or
// auto-assigned) user's ID plus a display label.
type InstructorRef struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type (
	// BasicInfo is the slice of the draft owned by the basic step.
	BasicInfo struct {
		Title              string     `json:"title" validate:"required,min=2"`
		ShortDescription   string     `json:"short_description" validate:"required"`
		LongDescription    string     `json:"long_description" validate:"required"`
		CategoryID         string     `json:"category_id" validate:"required"`
		Level              string     `json:"level"`
		Language           string     `json:"language"`
		Price              float64    `json:"price" validate:"gte=0"`
		AccessType         string     `json:"access_type"`
		EnrollmentDeadline *time.Time `json:"enrollment_deadline,omitempty"`
	}

	// ContentInfo is owned by the content step; structure fields are
	// enrichment, none is hard-required.
	ContentInfo struct {
		TotalModules   int      `json:"total_modules" validate:"gte=0"`
		TotalDuration  string   `json:"total_duration"`
		WhatYoullLearn []string `json:"what_youll_learn"`
		Prerequisites  []string `json:"prerequisites"`
		Subtitles      []string `json:"subtitles"`
	}

	// Metadata is owned by the metadata step.
	Metadata struct {
		Tags                []string `json:"tags"`
		Published           bool     `json:"published"`
		CertificateIncluded bool     `json:"certificate_included"`
	}

	// Media is owned by the media step. Strategy is fixed by the first
	// attached asset and cleared when the last one is removed, so the
	// two encodings never coexist within one draft.
	Media struct {
		Strategy    AssetEncoding `json:"strategy,omitempty"`
		BannerImage *AssetRef     `json:"banner_image,omitempty"`
		Thumbnails  []AssetRef    `json:"thumbnails"`
	}
)

func (m Media) Empty() bool { return m.BannerImage == nil && len(m.Thumbnails) == 0 }

// Draft is the single in-progress, unsaved course record being
// assembled by the composer. It is mutated field-by-field as the user
// works through the steps and discarded on submission or cancellation;
// it is never partially persisted to the course tables.
type Draft struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`

	CurrentStep StepID `json:"current_step"`

	Basic      BasicInfo      `json:"basic"`
	Instructor *InstructorRef `json:"instructor"`
	Content    ContentInfo    `json:"content"`
	Meta       Metadata       `json:"metadata"`
	Media      Media          `json:"media"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// ListField names the ordered string lists that support item-level
// add/remove operations.
type ListField string

const (
	ListTags           ListField = "tags"
	ListWhatYoullLearn ListField = "what_youll_learn"
	ListPrerequisites  ListField = "prerequisites"
	ListSubtitles      ListField = "subtitles"
)

func (d *Draft) list(field ListField) *[]string {
	switch field {
	case ListTags:
		return &d.Meta.Tags
	case ListWhatYoullLearn:
		return &d.Content.WhatYoullLearn
	case ListPrerequisites:
		return &d.Content.Prerequisites
	case ListSubtitles:
		return &d.Content.Subtitles
	}
	return nil
}

// dedupe drops empty and repeated values, keeping first occurrences in
// order. Matching is case-sensitive.
func dedupe(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

package entities

import (
	"time"

	"gorm.io/datatypes"
)

type Subject string

const (
	SubjectMathematics     Subject = "Mathematics"
	SubjectScience         Subject = "Science"
	SubjectEnglish         Subject = "English"
	SubjectHistory         Subject = "History"
	SubjectGeography       Subject = "Geography"
	SubjectComputerScience Subject = "Computer Science"
)

// Subjects lists every subject the catalog accepts, in display order.
var Subjects = []Subject{
	SubjectMathematics,
	SubjectScience,
	SubjectEnglish,
	SubjectHistory,
	SubjectGeography,
	SubjectComputerScience,
}

func (s Subject) Valid() bool {
	for _, known := range Subjects {
		if s == known {
			return true
		}
	}
	return false
}

type VideoStatus string

const (
	VideoStatusDraft     VideoStatus = "draft"
	VideoStatusPublished VideoStatus = "published"
)

func (s VideoStatus) Valid() bool {
	return s == VideoStatusDraft || s == VideoStatusPublished
}

// Video is the canonical catalog record. Per-user state such as completion is
// never stored here.
type Video struct {
	ID          string                                `gorm:"primaryKey;size:64" json:"id"`
	Title       string                                `gorm:"size:512" json:"title"`
	Description string                                `gorm:"type:text" json:"description"`
	Subject     Subject                               `gorm:"index;size:50" json:"subject"`
	Class       ClassLevel                            `gorm:"index;size:10" json:"class"`
	Duration    string                                `gorm:"size:20" json:"duration"` // display string, e.g. "12:45"
	Views       int64                                 `gorm:"default:0" json:"views"`
	Status      VideoStatus                           `gorm:"index;size:20;default:'draft'" json:"status"`
	Thumbnail   string                                `gorm:"size:2048" json:"thumbnail"`
	Sources     datatypes.JSONType[map[string]string] `json:"sources"` // quality label -> source reference
	Tags        datatypes.JSONSlice[string]           `json:"tags,omitempty"`
	UploadedAt  time.Time                             `gorm:"index" json:"uploadDate"`
}

func (Video) TableName() string {
	return "videos"
}

// SourceFor returns the source reference for a quality label.
func (v *Video) SourceFor(quality string) (string, bool) {
	src, ok := v.Sources.Data()[quality]
	return src, ok
}

// HasTag reports whether the video carries the exact tag.
func (v *Video) HasTag(tag string) bool {
	for _, t := range v.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// MergeTags appends tags that are not yet present, keeping existing order.
// Blank tags are dropped and surrounding whitespace is trimmed by the caller.
func (v *Video) MergeTags(tags []string) bool {
	changed := false
	for _, tag := range tags {
		if tag == "" || v.HasTag(tag) {
			continue
		}
		v.Tags = append(v.Tags, tag)
		changed = true
	}
	return changed
}

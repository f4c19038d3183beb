package migration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/mrlokans/lessonstore/internal/database/videos"
	"github.com/mrlokans/lessonstore/internal/entities"
)

// legacyNamespace derives stable ids for legacy records that never had one,
// so a retried sweep overwrites instead of duplicating.
var legacyNamespace = uuid.MustParse("3b8f6c2e-0d4a-4f7e-9a15-6c2b8e0d4f71")

var uploadLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// looseString accepts a JSON string or number. Older builds wrote the class
// level as a bare number.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = looseString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = looseString(num.String())
	return nil
}

// legacyVideo is a catalog entry as the key/value build stored it. Every
// field is optional.
type legacyVideo struct {
	ID          looseString       `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Subject     string            `json:"subject"`
	Class       looseString       `json:"class"`
	Duration    looseString       `json:"duration"`
	Views       looseString       `json:"views"`
	Status      string            `json:"status"`
	Thumbnail   string            `json:"thumbnail"`
	Sources     map[string]string `json:"sources"`
	Tags        []string          `json:"tags"`
	UploadDate  string            `json:"uploadDate"`
}

// legacyCatalog is the list under the legacy "videos" key.
type legacyCatalog []legacyVideo

// normalize turns legacy entries into catalog records: missing ids are
// derived from content and position, missing upload dates become now,
// missing status becomes published and tags are trimmed and deduplicated.
func (c legacyCatalog) normalize(now time.Time) []entities.Video {
	out := make([]entities.Video, 0, len(c))
	for i, lv := range c {
		v := entities.Video{
			ID:          strings.TrimSpace(string(lv.ID)),
			Title:       lv.Title,
			Description: lv.Description,
			Subject:     entities.Subject(lv.Subject),
			Class:       entities.ClassLevel(lv.Class),
			Duration:    string(lv.Duration),
			Status:      entities.VideoStatus(lv.Status),
			Thumbnail:   lv.Thumbnail,
			Tags:        videos.CleanTags(lv.Tags),
			UploadedAt:  parseUploadDate(lv.UploadDate, now),
		}
		if v.ID == "" {
			v.ID = uuid.NewSHA1(legacyNamespace, []byte(fmt.Sprintf("%d|%s|%s", i, lv.Title, lv.UploadDate))).String()
		}
		if !v.Status.Valid() {
			v.Status = entities.VideoStatusPublished
		}
		if views, err := strconv.ParseFloat(string(lv.Views), 64); err == nil && views > 0 {
			v.Views = int64(views)
		}
		sources := lv.Sources
		if sources == nil {
			sources = map[string]string{}
		}
		v.Sources = datatypes.NewJSONType(sources)
		out = append(out, v)
	}
	return out
}

func parseUploadDate(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.UTC()
	}
	for _, layout := range uploadLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return now.UTC()
}

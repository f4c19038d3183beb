package entities

import "time"

// KVEntry is one whole JSON value in the scalar store.
type KVEntry struct {
	Key       string    `gorm:"primaryKey;size:200" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}

// Scalar store keys.
const (
	KVKeyUsers         = "users"
	KVKeyLegacyVideos  = "videos"
	KVKeyMigrationMark = "migration:videos"

	kvPrefixCompletions = "completions:"
	kvPrefixProgress    = "progress:"
)

func CompletionsKey(userID string) string {
	return kvPrefixCompletions + userID
}

func ProgressKey(userID string) string {
	return kvPrefixProgress + userID
}

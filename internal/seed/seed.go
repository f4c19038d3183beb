// Package seed holds the fixed initial catalog and accounts written on first
// start and by an explicit catalog reset.
//
// Seed records carry fixed ids so that watch state recorded against them
// survives a reset.
package seed

import (
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mrlokans/lessonstore/internal/entities"
)

//go:embed assets
var assets embed.FS

type seedVideo struct {
	entities.Video
	AgeDays int `json:"ageDays"`
}

// Videos returns a fresh copy of the initial catalog. Upload dates are placed
// relative to now so the catalog reads as recent.
func Videos(now time.Time) ([]entities.Video, error) {
	var raw []seedVideo
	if err := readAsset("assets/videos.json", &raw); err != nil {
		return nil, err
	}

	videos := make([]entities.Video, 0, len(raw))
	for _, r := range raw {
		v := r.Video
		v.UploadedAt = now.AddDate(0, 0, -r.AgeDays).UTC()
		videos = append(videos, v)
	}
	return videos, nil
}

// HashFunc turns a plaintext seed password into its stored form.
type HashFunc func(password string) (string, error)

// Users returns the initial accounts with passwords passed through hash.
func Users(now time.Time, hash HashFunc) (entities.UserTable, error) {
	var users entities.UserTable
	if err := readAsset("assets/users.json", &users); err != nil {
		return nil, err
	}

	for i := range users {
		hashed, err := hash(users[i].Password)
		if err != nil {
			return nil, fmt.Errorf("hash seed password for %s: %w", users[i].Email, err)
		}
		users[i].Password = hashed
		users[i].CreatedAt = now.UTC()
	}
	return users, nil
}

func readAsset(name string, dest any) error {
	data, err := assets.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read seed asset %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode seed asset %s: %w", name, err)
	}
	return nil
}

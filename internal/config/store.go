package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ytget/yt-mp3/internal/model"
	"github.com/ytget/yt-mp3/internal/platform"
)

// Settings file location under the user config directory
const (
	ConfigDirName  = "yt-mp3"
	ConfigFileName = "settings.json"
)

// fileSettings is the on-disk shape of Settings
type fileSettings struct {
	DownloadDir          string `json:"download_directory,omitempty"`
	DefaultBitrate       int    `json:"default_bitrate,omitempty"`
	FFmpegPath           string `json:"ffmpeg_path,omitempty"`
	Backend              string `json:"backend,omitempty"`
	YTDLPPath            string `json:"ytdlp_path,omitempty"`
	FetchTimeout         string `json:"fetch_timeout,omitempty"`
	FetchRetries         *int   `json:"fetch_retries,omitempty"`
	AutoRevealOnComplete bool   `json:"auto_reveal_on_complete"`
}

// JSONStore persists Settings as a JSON file
type JSONStore struct {
	path string
}

// NewJSONStore creates a store backed by path
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// DefaultStorePath returns <user config dir>/yt-mp3/settings.json
func DefaultStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(dir, ConfigDirName, ConfigFileName), nil
}

// Path returns the file backing the store
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads settings on top of the defaults. A missing file yields the defaults.
func (s *JSONStore) Load() (Settings, error) {
	settings := Default()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("reading settings: %w", err)
	}

	var fs fileSettings
	if err := json.Unmarshal(data, &fs); err != nil {
		return settings, fmt.Errorf("parsing settings %s: %w", s.path, err)
	}

	if fs.DownloadDir != "" {
		settings.DownloadDir = fs.DownloadDir
	}
	if fs.DefaultBitrate != 0 {
		settings.DefaultBitrate = model.Bitrate(fs.DefaultBitrate)
	}
	if fs.FFmpegPath != "" {
		settings.FFmpegPath = fs.FFmpegPath
	}
	if fs.Backend != "" {
		settings.Backend = fs.Backend
	}
	if fs.YTDLPPath != "" {
		settings.YTDLPPath = fs.YTDLPPath
	}
	if fs.FetchTimeout != "" {
		d, err := time.ParseDuration(fs.FetchTimeout)
		if err != nil {
			return settings, fmt.Errorf("parsing %s: %w", KeyFetchTimeout, err)
		}
		settings = settings.WithFetchTimeout(d)
	}
	if fs.FetchRetries != nil {
		settings = settings.WithFetchRetries(*fs.FetchRetries)
	}
	settings.AutoRevealOnComplete = fs.AutoRevealOnComplete

	return settings, nil
}

// Save writes settings, creating the parent directory if needed
func (s *JSONStore) Save(settings Settings) error {
	if err := platform.CreateDirectoryIfNotExists(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	retries := settings.FetchRetries
	fs := fileSettings{
		DownloadDir:          settings.DownloadDir,
		DefaultBitrate:       int(settings.DefaultBitrate),
		FFmpegPath:           settings.FFmpegPath,
		Backend:              settings.Backend,
		YTDLPPath:            settings.YTDLPPath,
		FetchTimeout:         settings.FetchTimeout.String(),
		FetchRetries:         &retries,
		AutoRevealOnComplete: settings.AutoRevealOnComplete,
	}

	data, err := json.MarshalIndent(fs, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return os.Rename(tmp, s.path)
}

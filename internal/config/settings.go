// Package config holds the immutable application settings, their JSON file
// store and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ytget/yt-mp3/internal/extractor"
	"github.com/ytget/yt-mp3/internal/model"
	"github.com/ytget/yt-mp3/internal/platform"
)

// Settings keys, used as JSON field names and environment variable suffixes
const (
	KeyDownloadDir        = "download_directory"
	KeyDefaultBitrate     = "default_bitrate"
	KeyFFmpegPath         = "ffmpeg_path"
	KeyBackend            = "backend"
	KeyYTDLPPath          = "ytdlp_path"
	KeyFetchTimeout       = "fetch_timeout"
	KeyFetchRetries       = "fetch_retries"
	KeyAutoRevealComplete = "auto_reveal_on_complete"
)

// EnvPrefix prefixes every environment override, e.g. YTMP3_DOWNLOAD_DIRECTORY
const EnvPrefix = "YTMP3_"

// Default values
const (
	DefaultSubdir             = "yt-mp3"
	DefaultFFmpegPath         = "ffmpeg"
	DefaultBackend            = extractor.BackendNative
	DefaultYTDLPPath          = "yt-dlp"
	DefaultFetchTimeout       = 30 * time.Second
	DefaultFetchRetries       = 2
	DefaultAutoRevealComplete = false
)

// Limits
const (
	MinFetchTimeout = time.Second
	MaxFetchTimeout = 5 * time.Minute
	MinFetchRetries = 0
	MaxFetchRetries = 5
)

// Settings is an immutable configuration value. The With* methods return
// modified copies.
type Settings struct {
	DownloadDir          string
	DefaultBitrate       model.Bitrate
	FFmpegPath           string
	Backend              string
	YTDLPPath            string
	FetchTimeout         time.Duration
	FetchRetries         int
	AutoRevealOnComplete bool
}

// Default returns the built-in settings
func Default() Settings {
	dir, err := platform.GetHomeDownloadsDir()
	if err != nil {
		dir = filepath.Join(os.TempDir(), "downloads")
	}
	return Settings{
		DownloadDir:          filepath.Join(dir, DefaultSubdir),
		DefaultBitrate:       model.DefaultBitrate,
		FFmpegPath:           DefaultFFmpegPath,
		Backend:              DefaultBackend,
		YTDLPPath:            DefaultYTDLPPath,
		FetchTimeout:         DefaultFetchTimeout,
		FetchRetries:         DefaultFetchRetries,
		AutoRevealOnComplete: DefaultAutoRevealComplete,
	}
}

// Validate fills empty fields with defaults, clamps ranges and rejects
// values that cannot be fixed up.
func (s Settings) Validate() (Settings, error) {
	def := Default()

	if strings.TrimSpace(s.DownloadDir) == "" {
		s.DownloadDir = def.DownloadDir
	}
	if s.DefaultBitrate == 0 {
		s.DefaultBitrate = def.DefaultBitrate
	}
	if !s.DefaultBitrate.IsValid() {
		return s, fmt.Errorf("unsupported default bitrate: %d", int(s.DefaultBitrate))
	}
	if s.FFmpegPath == "" {
		s.FFmpegPath = def.FFmpegPath
	}
	if s.YTDLPPath == "" {
		s.YTDLPPath = def.YTDLPPath
	}
	switch s.Backend {
	case "":
		s.Backend = def.Backend
	case extractor.BackendNative, extractor.BackendYTDLP:
	default:
		return s, fmt.Errorf("unknown backend %q (want %s or %s)", s.Backend, extractor.BackendNative, extractor.BackendYTDLP)
	}
	if s.FetchTimeout == 0 {
		s.FetchTimeout = def.FetchTimeout
	}

	s = s.WithFetchTimeout(s.FetchTimeout).WithFetchRetries(s.FetchRetries)
	return s, nil
}

// WithDownloadDir returns a copy with the download directory set
func (s Settings) WithDownloadDir(dir string) Settings {
	s.DownloadDir = dir
	return s
}

// WithDefaultBitrate returns a copy with the default bitrate set
func (s Settings) WithDefaultBitrate(b model.Bitrate) Settings {
	s.DefaultBitrate = b
	return s
}

// WithFetchTimeout returns a copy with the metadata timeout clamped to its limits
func (s Settings) WithFetchTimeout(d time.Duration) Settings {
	if d < MinFetchTimeout {
		d = MinFetchTimeout
	}
	if d > MaxFetchTimeout {
		d = MaxFetchTimeout
	}
	s.FetchTimeout = d
	return s
}

// WithFetchRetries returns a copy with the retry count clamped to its limits
func (s Settings) WithFetchRetries(n int) Settings {
	if n < MinFetchRetries {
		n = MinFetchRetries
	}
	if n > MaxFetchRetries {
		n = MaxFetchRetries
	}
	s.FetchRetries = n
	return s
}

// LoadDotEnv loads .env style files into the process environment. Missing
// files are ignored; variables already set are not overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// EnvName returns the environment variable name for a settings key
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

// ApplyEnv overrides s with YTMP3_* environment variables
func ApplyEnv(s Settings) (Settings, error) {
	return applyLookup(s, os.LookupEnv)
}

func applyLookup(s Settings, lookup func(string) (string, bool)) (Settings, error) {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvName(key))
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}

	if v, ok := get(KeyDownloadDir); ok {
		s.DownloadDir = v
	}
	if v, ok := get(KeyDefaultBitrate); ok {
		b, err := model.ParseBitrate(v)
		if err != nil {
			return s, fmt.Errorf("%s: %w", EnvName(KeyDefaultBitrate), err)
		}
		s.DefaultBitrate = b
	}
	if v, ok := get(KeyFFmpegPath); ok {
		s.FFmpegPath = v
	}
	if v, ok := get(KeyBackend); ok {
		s.Backend = strings.ToLower(v)
	}
	if v, ok := get(KeyYTDLPPath); ok {
		s.YTDLPPath = v
	}
	if v, ok := get(KeyFetchTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return s, fmt.Errorf("%s: %w", EnvName(KeyFetchTimeout), err)
		}
		s = s.WithFetchTimeout(d)
	}
	if v, ok := get(KeyFetchRetries); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return s, fmt.Errorf("%s: %w", EnvName(KeyFetchRetries), err)
		}
		s = s.WithFetchRetries(n)
	}
	if v, ok := get(KeyAutoRevealComplete); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return s, fmt.Errorf("%s: %w", EnvName(KeyAutoRevealComplete), err)
		}
		s.AutoRevealOnComplete = b
	}
	return s, nil
}

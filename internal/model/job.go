package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Bitrate is an MP3 target bitrate in kbps
type Bitrate int

// Supported bitrates, highest first
const (
	Bitrate320 Bitrate = 320
	Bitrate256 Bitrate = 256
	Bitrate192 Bitrate = 192
	Bitrate160 Bitrate = 160
	Bitrate128 Bitrate = 128
	Bitrate96  Bitrate = 96
	Bitrate64  Bitrate = 64
	Bitrate48  Bitrate = 48
)

// DefaultBitrate is used when nothing else is configured
const DefaultBitrate = Bitrate192

// Bitrates lists every supported bitrate in display order
var Bitrates = []Bitrate{
	Bitrate320, Bitrate256, Bitrate192, Bitrate160,
	Bitrate128, Bitrate96, Bitrate64, Bitrate48,
}

// IsValid reports whether b is one of the supported bitrates
func (b Bitrate) IsValid() bool {
	for _, v := range Bitrates {
		if v == b {
			return true
		}
	}
	return false
}

// Kbps returns the bitrate as a plain integer
func (b Bitrate) Kbps() int {
	return int(b)
}

// BitsPerSecond returns the bitrate in bits per second
func (b Bitrate) BitsPerSecond() int {
	return int(b) * 1000
}

// String returns the quality label, e.g. "192K"
func (b Bitrate) String() string {
	return fmt.Sprintf("%dK", int(b))
}

// EncoderArg returns the value for ffmpeg's -b:a flag, e.g. "192k"
func (b Bitrate) EncoderArg() string {
	return fmt.Sprintf("%dk", int(b))
}

// ParseBitrate accepts "192K", "192k" or "192"
func ParseBitrate(s string) (Bitrate, error) {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(strings.TrimSpace(s), "K"), "k")
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid bitrate %q", s)
	}
	b := Bitrate(n)
	if !b.IsValid() {
		return 0, fmt.Errorf("unsupported bitrate %q", s)
	}
	return b, nil
}

// JobRequest describes what the user asked for. It is not modified once a job starts.
type JobRequest struct {
	URL                  string
	TargetBitrate        Bitrate
	DestinationDirectory string
}

// Validate checks the request fields that do not depend on the network
func (r JobRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("url is empty")
	}
	if !r.TargetBitrate.IsValid() {
		return fmt.Errorf("unsupported bitrate: %d", int(r.TargetBitrate))
	}
	if strings.TrimSpace(r.DestinationDirectory) == "" {
		return fmt.Errorf("destination directory is empty")
	}
	return nil
}

// ProgressSnapshot is the latest progress of the running stage.
// Each update replaces the previous snapshot.
type ProgressSnapshot struct {
	Stage        Stage
	Percent      int    // 0 to 100, only meaningful when PercentKnown
	PercentKnown bool   // false while the total size or duration is unknown
	Throughput   string // human readable speed (e.g., "1.2 MB/s"), empty if unknown
}

// Job represents one request to acquire and transcode a single URL
type Job struct {
	ID                 string
	Request            JobRequest
	State              JobState
	Title              string
	DownloadedFilePath string
	FinalFilePath      string
	Progress           ProgressSnapshot
	Error              *ErrorInfo
	CreatedAt          time.Time
	DownloadStartedAt  time.Time
	TranscodeStartedAt time.Time
	FinishedAt         time.Time
}

// HasTitle reports whether the metadata stage resolved a title
func (j Job) HasTitle() bool {
	return j.Title != ""
}

// DownloadDuration returns how long the download stage took, zero if it did not finish
func (j Job) DownloadDuration() time.Duration {
	if j.DownloadStartedAt.IsZero() || j.TranscodeStartedAt.IsZero() {
		return 0
	}
	return j.TranscodeStartedAt.Sub(j.DownloadStartedAt)
}

// TranscodeDuration returns how long the transcode stage took, zero if it did not finish
func (j Job) TranscodeDuration() time.Duration {
	if j.TranscodeStartedAt.IsZero() || j.FinishedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.TranscodeStartedAt)
}

// GetDisplayTitle returns the title or the URL when the title is unknown
func (j Job) GetDisplayTitle() string {
	if j.Title != "" {
		return j.Title
	}
	return j.Request.URL
}

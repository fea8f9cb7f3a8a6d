// Package extractor adapts external extraction services (the native YouTube
// client and the yt-dlp executable) to one small interface used by the
// metadata and download stages.
package extractor

import (
	"context"
	"errors"
	"time"

	"github.com/ytget/yt-mp3/internal/model"
)

var (
	// ErrNoResult means the service resolved nothing for the URL
	ErrNoResult = errors.New("no result for URL")

	// ErrNoAudioFormat means no audio-only stream exists at or below the bitrate cap
	ErrNoAudioFormat = errors.New("no audio stream at or below requested bitrate")
)

// Info is the metadata-only view of a URL
type Info struct {
	ID           string
	Title        string // empty when the service result has no title
	Duration     time.Duration
	IsCollection bool // the result is a playlist or other multi-item container
}

// Progress is one byte-level progress report from a running download
type Progress struct {
	DownloadedBytes int64
	TotalBytes      int64 // 0 when the stream length is unknown
	BytesPerSecond  float64
}

// DownloadRequest describes a single audio download
type DownloadRequest struct {
	URL        string
	MaxBitrate model.Bitrate
	Dir        string
	// Prefix is the file name without extension; the service appends the
	// extension of the stream it selects.
	Prefix string
}

// DownloadResult describes what the service fetched
type DownloadResult struct {
	Title  string
	Format AudioFormat
}

// Extractor is the contract of an extraction service
type Extractor interface {
	// Info fetches metadata only and never downloads media
	Info(ctx context.Context, url string) (*Info, error)

	// Download fetches the best audio-only stream whose bitrate does not
	// exceed req.MaxBitrate into req.Dir. onProgress may be nil.
	Download(ctx context.Context, req DownloadRequest, onProgress func(Progress)) (*DownloadResult, error)
}

// Backend names accepted by New
const (
	BackendNative = "native"
	BackendYTDLP  = "ytdlp"
)

// Progress reporting interval shared by the backends
const (
	ProgressInterval = 250 * time.Millisecond
)

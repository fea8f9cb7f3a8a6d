package download

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ytget/yt-mp3/internal/extractor"
	"github.com/ytget/yt-mp3/internal/model"
	"github.com/ytget/yt-mp3/internal/platform"
)

var (
	// ErrNoOutputFile means the backend reported success but nothing matches the prefix
	ErrNoOutputFile = errors.New("no output file after download")

	// ErrService wraps any extraction or network fault
	ErrService = errors.New("download service error")

	// ErrCancelled is returned when the context is cancelled mid-download
	ErrCancelled = fmt.Errorf("download cancelled: %w", context.Canceled)
)

// Bytes per megabyte used for throughput strings
const (
	bytesPerMB = 1024 * 1024
)

// Request describes one download
type Request struct {
	URL     string
	Bitrate model.Bitrate
	Dir     string
	// Prefix is the temporary file name prefix; generated when empty
	Prefix string
	// Title is used when the backend does not report one
	Title string
}

// Progress is a byte-level progress report
type Progress struct {
	Percent         int
	PercentKnown    bool
	BytesPerSecond  float64
	DownloadedBytes int64
	TotalBytes      int64
}

// Throughput formats the transfer rate, or "" when none was measured
func (p Progress) Throughput() string {
	return FormatThroughput(p.BytesPerSecond)
}

// FormatThroughput renders bytes per second as "1.2 MB/s"
func FormatThroughput(bytesPerSecond float64) string {
	if bytesPerSecond <= 0 {
		return ""
	}
	return fmt.Sprintf("%.1f MB/s", bytesPerSecond/bytesPerMB)
}

// Result is a finished download
type Result struct {
	FilePath string
	Title    string
	Prefix   string
	Format   extractor.AudioFormat
	Bytes    int64
	Elapsed  time.Duration
}

// Service handles download operations
type Service struct {
	source Source
}

// NewService creates a new download service
func NewService(source Source) *Service {
	return &Service{source: source}
}

// Download fetches the best audio stream at or below req.Bitrate into req.Dir.
// Partial files are removed on failure or cancellation.
func (s *Service) Download(ctx context.Context, req Request, onProgress func(Progress)) (*Result, error) {
	if req.Prefix == "" {
		req.Prefix = platform.NewTempPrefix()
	}
	if err := platform.CreateDirectoryIfNotExists(req.Dir); err != nil {
		return nil, fmt.Errorf("%w: creating destination directory: %v", ErrService, err)
	}

	started := time.Now()
	log.Printf("Download started: %s (%s, prefix %s)", req.URL, req.Bitrate, req.Prefix)

	tracker := newProgressTracker(ctx, onProgress)
	res, err := s.source.Download(ctx, extractor.DownloadRequest{
		URL:        req.URL,
		MaxBitrate: req.Bitrate,
		Dir:        req.Dir,
		Prefix:     req.Prefix,
	}, tracker.update)

	if err != nil {
		tracker.stop()
		s.cleanup(req)
		if ctx.Err() != nil {
			log.Printf("Download cancelled: %s", req.URL)
			return nil, ErrCancelled
		}
		log.Printf("Download failed for %s: %v", req.URL, err)
		return nil, fmt.Errorf("%w: %v", ErrService, err)
	}

	if ctx.Err() != nil {
		tracker.stop()
		s.cleanup(req)
		return nil, ErrCancelled
	}

	path, err := platform.FindByPrefix(req.Dir, req.Prefix)
	if err != nil {
		tracker.stop()
		s.cleanup(req)
		return nil, fmt.Errorf("%w: %v", ErrNoOutputFile, err)
	}

	tracker.finish()

	result := &Result{
		FilePath: path,
		Title:    req.Title,
		Prefix:   req.Prefix,
		Elapsed:  time.Since(started),
	}
	if res != nil {
		result.Format = res.Format
		if res.Title != "" {
			result.Title = res.Title
		}
	}
	if size, err := platform.FileSize(path); err == nil {
		result.Bytes = size
	}

	log.Printf("Download finished: %s -> %s (%d bytes in %s)", req.URL, path, result.Bytes, result.Elapsed.Round(time.Millisecond))
	return result, nil
}

func (s *Service) cleanup(req Request) {
	if removed, err := platform.RemoveByPrefix(req.Dir, req.Prefix); err != nil {
		log.Printf("Failed to clean up %s*: %v", req.Prefix, err)
	} else if removed > 0 {
		log.Printf("Removed %d partial file(s) for %s", removed, req.Prefix)
	}
}

// progressTracker turns backend byte counts into non-decreasing percent and
// drops everything once the context is done or the tracker is stopped.
type progressTracker struct {
	ctx      context.Context
	report   func(Progress)
	mu       sync.Mutex
	stopped  bool
	last     int
	anyKnown bool
	previous Progress
}

func newProgressTracker(ctx context.Context, report func(Progress)) *progressTracker {
	return &progressTracker{ctx: ctx, report: report, last: -1}
}

func (t *progressTracker) update(update extractor.Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped || t.report == nil || t.ctx.Err() != nil {
		return
	}

	p := Progress{
		BytesPerSecond:  update.BytesPerSecond,
		DownloadedBytes: update.DownloadedBytes,
		TotalBytes:      update.TotalBytes,
	}

	if update.TotalBytes > 0 {
		percent := int(float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100)
		if percent > 100 {
			percent = 100
		}
		if percent < t.last {
			percent = t.last
		}
		t.last = percent
		t.anyKnown = true
		p.Percent = percent
		p.PercentKnown = true
	}

	t.previous = p
	t.report(p)
}

// finish emits 100 when the total size was ever known
func (t *progressTracker) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped || t.report == nil || t.ctx.Err() != nil {
		t.stopped = true
		return
	}
	t.stopped = true

	if t.anyKnown && t.last < 100 {
		p := t.previous
		p.Percent = 100
		p.PercentKnown = true
		t.report(p)
	}
}

func (t *progressTracker) stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

// Package metadata resolves a video URL to its canonical form and title.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ytget/yt-mp3/internal/extractor"
	"github.com/ytget/yt-mp3/internal/platform"
)

var (
	ErrNotFound            = errors.New("video not found")
	ErrPlaylistUnsupported = errors.New("playlists are not supported")
	ErrNoTitle             = errors.New("video has no title")
	ErrService             = errors.New("extraction service error")

	// ErrSuperseded is returned by FetchForJob when a newer fetch for the
	// same job replaced this one
	ErrSuperseded = fmt.Errorf("superseded by a newer fetch: %w", context.Canceled)
)

// Defaults used when the fetcher is built with zero values
const (
	DefaultTimeout = 30 * time.Second
	RetryBackoff   = 500 * time.Millisecond
)

// InfoSource is the metadata half of an extractor.Extractor
type InfoSource interface {
	Info(ctx context.Context, url string) (*extractor.Info, error)
}

// Result is a successful metadata fetch
type Result struct {
	CanonicalURL string
	Title        string
	Duration     time.Duration
}

// Fetcher fetches titles with a per-attempt timeout and bounded retry
type Fetcher struct {
	source  InfoSource
	timeout time.Duration
	retries int
	backoff time.Duration

	mu       sync.Mutex
	seq      uint64
	inflight map[string]inflightFetch
}

type inflightFetch struct {
	seq        uint64
	cancel     context.CancelFunc
	superseded *bool
}

// NewFetcher creates a new metadata fetcher
func NewFetcher(source InfoSource, timeout time.Duration, retries int) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if retries < 0 {
		retries = 0
	}
	return &Fetcher{
		source:   source,
		timeout:  timeout,
		retries:  retries,
		backoff:  RetryBackoff,
		inflight: make(map[string]inflightFetch),
	}
}

// FetchForJob is FetchTitle with at most one fetch in flight per job id.
// Starting a fetch cancels the previous one for the same job, which then
// returns ErrSuperseded.
func (f *Fetcher) FetchForJob(ctx context.Context, jobID, url string) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	f.mu.Lock()
	if prev, ok := f.inflight[jobID]; ok {
		*prev.superseded = true
		prev.cancel()
	}
	f.seq++
	mine := f.seq
	replaced := false
	f.inflight[jobID] = inflightFetch{seq: mine, cancel: cancel, superseded: &replaced}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		if cur, ok := f.inflight[jobID]; ok && cur.seq == mine {
			delete(f.inflight, jobID)
		}
		f.mu.Unlock()
	}()

	res, err := f.FetchTitle(ctx, url)
	f.mu.Lock()
	wasReplaced := replaced
	f.mu.Unlock()

	if wasReplaced {
		return nil, ErrSuperseded
	}
	return res, err
}

// FetchTitle normalizes url and fetches its title. Only service errors are
// retried; caller cancellation is returned as the context error.
func (f *Fetcher) FetchTitle(ctx context.Context, url string) (*Result, error) {
	canonical, err := platform.NormalizeURL(url)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(f.backoff * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			log.Printf("Retrying metadata fetch for %s, attempt %d", canonical, attempt+1)
		}

		res, err := f.fetchOnce(ctx, canonical)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		if !errors.Is(err, ErrService) {
			return nil, err
		}
		log.Printf("Metadata fetch attempt %d failed for %s: %v", attempt+1, canonical, err)
	}

	return nil, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, canonical string) (*Result, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	info, err := f.source.Info(attemptCtx, canonical)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(err, extractor.ErrNoResult):
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		case errors.Is(err, context.DeadlineExceeded):
			return nil, fmt.Errorf("%w: timed out after %s", ErrService, f.timeout)
		default:
			return nil, fmt.Errorf("%w: %v", ErrService, err)
		}
	}

	switch {
	case info == nil:
		return nil, ErrNotFound
	case info.IsCollection:
		return nil, ErrPlaylistUnsupported
	case info.Title == "":
		return nil, ErrNoTitle
	}

	return &Result{CanonicalURL: canonical, Title: info.Title, Duration: info.Duration}, nil
}

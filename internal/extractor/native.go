package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/ytget/yt-mp3/internal/platform"
)

// Partial download suffix, skipped by platform.FindByPrefix
const (
	PartialSuffix = ".part"
)

// Native talks to YouTube directly through the kkdai client
type Native struct {
	metaClient   *youtube.Client
	streamClient *youtube.Client
}

// NewNative creates a native extractor. timeout bounds metadata requests and
// connection setup of media streams; stream bodies are bounded by ctx only.
func NewNative(timeout time.Duration) *Native {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
	}

	return &Native{
		metaClient: &youtube.Client{
			HTTPClient: &http.Client{Timeout: timeout},
		},
		streamClient: &youtube.Client{
			HTTPClient: &http.Client{Transport: transport},
		},
	}
}

// Info implements Extractor
func (n *Native) Info(ctx context.Context, url string) (*Info, error) {
	parsed, err := platform.ParseVideoURL(url)
	if err != nil {
		return nil, err
	}

	if parsed.Kind == platform.URLKindCollection {
		return &Info{ID: parsed.ListID, IsCollection: true}, nil
	}

	video, err := n.metaClient.GetVideoContext(ctx, parsed.Canonical())
	if err != nil {
		return nil, classifyNativeError(err)
	}

	return &Info{
		ID:       video.ID,
		Title:    strings.TrimSpace(video.Title),
		Duration: video.Duration,
	}, nil
}

// Download implements Extractor
func (n *Native) Download(ctx context.Context, req DownloadRequest, onProgress func(Progress)) (*DownloadResult, error) {
	video, err := n.streamClient.GetVideoContext(ctx, req.URL)
	if err != nil {
		return nil, classifyNativeError(err)
	}

	formats, byID := audioFormats(video)
	selected, err := SelectAudioFormat(formats, req.MaxBitrate)
	if err != nil {
		return nil, err
	}

	finalPath := filepath.Join(req.Dir, req.Prefix+"."+selected.Ext())
	partPath := finalPath + PartialSuffix

	file, err := os.Create(partPath)
	if err != nil {
		return nil, fmt.Errorf("opening output file: %w", err)
	}

	stream, size, err := n.streamClient.GetStreamContext(ctx, video, byID[selected.ID])
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("starting stream: %w", classifyNativeError(err))
	}
	defer stream.Close()

	if size <= 0 {
		size = selected.ContentLength
	}

	var writer io.Writer = file
	var progress *progressWriter
	if onProgress != nil {
		progress = newProgressWriter(size, onProgress)
		writer = io.MultiWriter(file, progress)
	}

	_, copyErr := copyWithContext(ctx, writer, stream)
	closeErr := file.Close()
	if copyErr != nil {
		return nil, copyErr
	}
	if closeErr != nil {
		return nil, fmt.Errorf("closing output file: %w", closeErr)
	}
	if progress != nil {
		progress.Finish()
	}

	if err := os.Rename(partPath, finalPath); err != nil {
		return nil, fmt.Errorf("finalizing output file: %w", err)
	}

	return &DownloadResult{Title: strings.TrimSpace(video.Title), Format: selected}, nil
}

// audioFormats returns the audio-only formats of a video
func audioFormats(video *youtube.Video) ([]AudioFormat, map[string]*youtube.Format) {
	formats := make([]AudioFormat, 0, len(video.Formats))
	byID := make(map[string]*youtube.Format, len(video.Formats))

	for i := range video.Formats {
		f := &video.Formats[i]
		if f.AudioChannels == 0 || f.Width != 0 || f.Height != 0 {
			continue
		}
		id := fmt.Sprintf("%d", f.ItagNo)
		byID[id] = f
		formats = append(formats, AudioFormat{
			ID:            id,
			MimeType:      f.MimeType,
			Bitrate:       bitrateForFormat(f),
			ContentLength: f.ContentLength,
		})
	}
	return formats, byID
}

// bitrateForFormat prefers the average bitrate, which is what the yt-dlp
// abr filter compares against; the peak bitrate is the fallback.
func bitrateForFormat(f *youtube.Format) int {
	if f.AverageBitrate > 0 {
		return f.AverageBitrate
	}
	if f.Bitrate > 0 {
		return f.Bitrate
	}
	return 0
}

func classifyNativeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var statusErr *youtube.ErrPlayabiltyStatus
	switch {
	case errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return fmt.Errorf("%w: %v", ErrNoResult, err)
	case errors.As(err, &statusErr) && strings.EqualFold(statusErr.Status, "ERROR"):
		return fmt.Errorf("%w: %v", ErrNoResult, err)
	}
	return err
}

// progressWriter counts bytes and reports them at most every ProgressInterval
type progressWriter struct {
	mu         sync.Mutex
	total      int64
	written    int64
	started    time.Time
	lastReport time.Time
	report     func(Progress)
}

func newProgressWriter(total int64, report func(Progress)) *progressWriter {
	now := time.Now()
	return &progressWriter{total: total, started: now, report: report}
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.mu.Lock()
	p.written += int64(len(b))
	now := time.Now()
	due := now.Sub(p.lastReport) >= ProgressInterval
	if due {
		p.lastReport = now
	}
	snapshot := p.snapshot(now)
	p.mu.Unlock()

	if due {
		p.report(snapshot)
	}
	return len(b), nil
}

// Finish emits the final byte count
func (p *progressWriter) Finish() {
	p.mu.Lock()
	snapshot := p.snapshot(time.Now())
	p.mu.Unlock()
	p.report(snapshot)
}

func (p *progressWriter) snapshot(now time.Time) Progress {
	var speed float64
	if elapsed := now.Sub(p.started).Seconds(); elapsed > 0 {
		speed = float64(p.written) / elapsed
	}
	return Progress{DownloadedBytes: p.written, TotalBytes: p.total, BytesPerSecond: speed}
}

// copyWithContext copies src to dst and stops at the first read after ctx is done
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			w, err := dst.Write(buf[:n])
			written += int64(w)
			if err != nil {
				return written, err
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return written, ctx.Err()
			}
			return written, readErr
		}
	}
}

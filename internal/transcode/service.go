// Package transcode converts downloaded audio to MP3 with an ffmpeg
// subprocess, reporting time-based progress parsed from its status stream.
package transcode

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ytget/yt-mp3/internal/model"
	"github.com/ytget/yt-mp3/internal/platform"
)

// FFmpeg constants for MP3 encoding
const (
	FFmpegCommand      = "ffmpeg"
	AudioCodec         = "libmp3lame"
	ProgressPipeTarget = "pipe:2"
	OutputExtension    = "mp3"

	// stderrTailLines bounds the encoder output kept for error reports
	stderrTailLines = 20
	// waitDelay bounds how long Wait blocks on inherited pipes after a kill
	waitDelay = 2 * time.Second
)

var (
	// ErrCancelled is returned when the context is cancelled mid-transcode
	ErrCancelled = fmt.Errorf("transcode cancelled: %w", context.Canceled)

	// ErrFinalize means encoding succeeded but the MP3 could not be moved to
	// its final name. The converted file stays at Result.TempPath.
	ErrFinalize = errors.New("failed to save converted file")
)

// EncoderError reports an encoder failure. ExitCode is -1 when the process
// could not be started and 0 when a clean exit produced no usable output.
type EncoderError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *EncoderError) Error() string {
	msg := fmt.Sprintf("encoder failed (exit code %d)", e.ExitCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

func (e *EncoderError) Unwrap() error {
	return e.Err
}

// Request describes one conversion
type Request struct {
	InputPath string
	// BaseName is the sanitized file name without extension
	BaseName string
	Bitrate  model.Bitrate
	Dir      string
}

// Result describes the artifacts of a conversion
type Result struct {
	FinalPath string
	TempPath  string
	Bytes     int64
	Duration  time.Duration // source duration reported by the encoder
	Elapsed   time.Duration
}

// Service runs the encoder
type Service struct {
	ffmpegPath string
}

// NewService creates a transcoder using the given ffmpeg executable
func NewService(ffmpegPath string) *Service {
	if ffmpegPath == "" {
		ffmpegPath = FFmpegCommand
	}
	return &Service{ffmpegPath: ffmpegPath}
}

// Check verifies the encoder executable can be resolved
func (s *Service) Check() error {
	if _, err := exec.LookPath(s.ffmpegPath); err != nil {
		return &EncoderError{ExitCode: -1, Err: fmt.Errorf("ffmpeg not found at %q: %w", s.ffmpegPath, err)}
	}
	return nil
}

// BuildFFmpegArgs builds the ffmpeg command arguments
func (s *Service) BuildFFmpegArgs(inputPath, outputPath string, bitrate model.Bitrate) []string {
	return []string{
		"-hide_banner",
		"-y", // Overwrite temp output
		"-i", inputPath,
		"-vn", // Audio only
		"-c:a", AudioCodec,
		"-b:a", bitrate.EncoderArg(),
		"-progress", ProgressPipeTarget, // Progress to stderr
		"-nostats",
		outputPath,
	}
}

// Transcode converts req.InputPath to <BaseName>.mp3 in req.Dir. The source
// file is deleted only after a successful rename; on failure it is kept, and
// on cancellation the temporary output is left for the caller.
func (s *Service) Transcode(ctx context.Context, req Request, onProgress func(percent int)) (*Result, error) {
	started := time.Now()

	if err := s.Check(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(req.InputPath); err != nil {
		return nil, &EncoderError{ExitCode: -1, Err: fmt.Errorf("input file: %w", err)}
	}
	if err := platform.CreateDirectoryIfNotExists(req.Dir); err != nil {
		return nil, &EncoderError{ExitCode: -1, Err: fmt.Errorf("creating destination directory: %w", err)}
	}

	result := &Result{TempPath: filepath.Join(req.Dir, platform.NewTempPrefix()+"."+OutputExtension)}
	log.Printf("Transcode started: %s -> %s (%s)", req.InputPath, result.TempPath, req.Bitrate)

	cmd := exec.CommandContext(ctx, s.ffmpegPath, s.BuildFFmpegArgs(req.InputPath, result.TempPath, req.Bitrate)...)
	cmd.WaitDelay = waitDelay

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &EncoderError{ExitCode: -1, Err: fmt.Errorf("failed to create stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		return nil, &EncoderError{ExitCode: -1, Err: fmt.Errorf("failed to start ffmpeg: %w", err)}
	}

	parser := NewProgressParser()
	tail := newLineTail(stderrTailLines)

	// The pipe must be drained before Wait
	s.monitorProgress(ctx, stderr, parser, tail, onProgress)
	waitErr := cmd.Wait()
	result.Duration = parser.TotalDuration()
	result.Elapsed = time.Since(started)

	if ctx.Err() != nil {
		log.Printf("Transcode cancelled: %s", req.InputPath)
		return result, ErrCancelled
	}

	if waitErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		log.Printf("Transcode failed for %s: exit code %d", req.InputPath, exitCode)
		return result, &EncoderError{ExitCode: exitCode, Stderr: tail.String(), Err: waitErr}
	}

	size, err := platform.FileSize(result.TempPath)
	if err != nil || size == 0 {
		return result, &EncoderError{ExitCode: 0, Stderr: tail.String(), Err: errors.New("converted file is empty")}
	}
	result.Bytes = size

	finalPath, err := platform.ClaimFileName(req.Dir, req.BaseName, OutputExtension)
	if err != nil {
		log.Printf("Failed to claim output name for %s: %v", req.BaseName, err)
		return result, fmt.Errorf("%w: converted file kept at %s: %v", ErrFinalize, result.TempPath, err)
	}
	if err := os.Rename(result.TempPath, finalPath); err != nil {
		_ = platform.RemoveIfExists(finalPath)
		log.Printf("Failed to move %s to %s: %v", result.TempPath, finalPath, err)
		return result, fmt.Errorf("%w: converted file kept at %s: %v", ErrFinalize, result.TempPath, err)
	}
	result.FinalPath = finalPath
	result.TempPath = ""

	if err := platform.RemoveIfExists(req.InputPath); err != nil {
		log.Printf("Failed to remove source file %s: %v", req.InputPath, err)
	}

	if onProgress != nil {
		onProgress(100)
	}

	log.Printf("Transcode finished: %s (%d bytes in %s)", finalPath, size, result.Elapsed.Round(time.Millisecond))
	return result, nil
}

// monitorProgress reads encoder status output until the pipe closes
func (s *Service) monitorProgress(ctx context.Context, stderr io.Reader, parser *ProgressParser, tail *lineTail, onProgress func(int)) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		percent, ok := parser.ParseLine(line)
		if ok {
			if onProgress != nil && ctx.Err() == nil {
				onProgress(percent)
			}
			continue
		}
		if !isStatusLine(line) {
			tail.Add(line)
		}
	}
}

// isStatusLine matches the key=value lines of -progress output
func isStatusLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	key, _, found := strings.Cut(line, "=")
	return found && !strings.ContainsAny(key, " \t:")
}

// lineTail keeps the last n lines written to it
type lineTail struct {
	n     int
	lines []string
}

func newLineTail(n int) *lineTail {
	return &lineTail{n: n}
}

func (t *lineTail) Add(line string) {
	t.lines = append(t.lines, line)
	if len(t.lines) > t.n {
		t.lines = t.lines[len(t.lines)-t.n:]
	}
}

func (t *lineTail) String() string {
	return strings.Join(t.lines, "\n")
}

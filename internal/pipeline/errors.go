package pipeline

import (
	"errors"

	"github.com/ytget/yt-mp3/internal/download"
	"github.com/ytget/yt-mp3/internal/metadata"
	"github.com/ytget/yt-mp3/internal/model"
	"github.com/ytget/yt-mp3/internal/platform"
	"github.com/ytget/yt-mp3/internal/transcode"
)

var (
	// ErrNotReady is returned by StartDownload outside MetadataReady
	ErrNotReady = errors.New("job is not ready to download")

	// ErrURLMismatch is returned when StartDownload names a different URL than the submitted one
	ErrURLMismatch = errors.New("request URL does not match the submitted job")

	// ErrClosed is returned after Close
	ErrClosed = errors.New("orchestrator is closed")
)

// classify translates a stage error into the caller-facing ErrorInfo
func classify(stage model.Stage, err error) model.ErrorInfo {
	info := model.ErrorInfo{Stage: stage, Message: err.Error()}

	var encErr *transcode.EncoderError
	switch {
	case errors.Is(err, platform.ErrInvalidURL):
		info.Kind = model.ErrorKindInvalidURL
		info.Message = "not a single-video YouTube URL: " + err.Error()
	case errors.Is(err, metadata.ErrNotFound):
		info.Kind = model.ErrorKindNotFound
		info.Message = "video not found: " + err.Error()
	case errors.Is(err, metadata.ErrPlaylistUnsupported):
		info.Kind = model.ErrorKindPlaylistUnsupported
		info.Message = "playlists are not supported, submit a single video URL"
	case errors.Is(err, metadata.ErrNoTitle):
		info.Kind = model.ErrorKindNoTitle
		info.Message = "video has no title"
	case errors.Is(err, metadata.ErrService), errors.Is(err, download.ErrService):
		info.Kind = model.ErrorKindServiceError
		info.Retryable = true
		info.Message = "service error, try again: " + err.Error()
	case errors.Is(err, download.ErrNoOutputFile):
		info.Kind = model.ErrorKindNoOutputFile
	case errors.As(err, &encErr):
		info.Kind = model.ErrorKindEncoderFailure
	case errors.Is(err, transcode.ErrFinalize):
		info.Kind = model.ErrorKindSaveFailure
	default:
		info.Kind = model.ErrorKindInternal
	}
	return info
}

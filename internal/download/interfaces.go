package download

import (
	"context"

	"github.com/ytget/yt-mp3/internal/extractor"
)

// Downloader defines the interface for the download stage.
type Downloader interface {
	// Download blocks until the file is on disk, the backend fails or ctx is
	// cancelled. onProgress may be nil and is never called after ctx is done.
	Download(ctx context.Context, req Request, onProgress func(Progress)) (*Result, error)
}

// Source is the download half of an extractor.Extractor
type Source interface {
	Download(ctx context.Context, req extractor.DownloadRequest, onProgress func(extractor.Progress)) (*extractor.DownloadResult, error)
}

package transcode

import (
	"context"
)

// Transcoder defines the interface for the transcode stage.
type Transcoder interface {
	// Transcode converts req.InputPath to MP3. On failure or cancellation the
	// returned Result, when non-nil, names the artifacts left on disk.
	Transcode(ctx context.Context, req Request, onProgress func(percent int)) (*Result, error)

	// Check verifies the encoder executable can be resolved
	Check() error
}

package extractor

import (
	"fmt"
	"time"
)

// New returns the extractor for a backend name
func New(backend string, timeout time.Duration, ytdlpPath, ffmpegPath string) (Extractor, error) {
	switch backend {
	case BackendNative, "":
		return NewNative(timeout), nil
	case BackendYTDLP:
		return NewYTDLP(ytdlpPath, ffmpegPath), nil
	default:
		return nil, fmt.Errorf("unknown extractor backend: %q", backend)
	}
}

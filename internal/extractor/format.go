package extractor

import (
	"fmt"
	"strings"

	"github.com/ytget/yt-mp3/internal/model"
)

// AudioFormat is one audio-only stream offered by the service
type AudioFormat struct {
	ID            string
	MimeType      string
	Bitrate       int // bits per second
	ContentLength int64
}

// Ext returns the file extension implied by the MIME type
func (f AudioFormat) Ext() string {
	return mimeToExt(f.MimeType)
}

// Kbps returns the bitrate rounded down to kbps
func (f AudioFormat) Kbps() int {
	return f.Bitrate / 1000
}

// SelectAudioFormat returns the highest-bitrate format whose bitrate does not
// exceed ceiling. It never picks a format above the ceiling; formats without
// a known bitrate are ignored. Ties keep the earliest format.
func SelectAudioFormat(formats []AudioFormat, ceiling model.Bitrate) (AudioFormat, error) {
	limit := ceiling.BitsPerSecond()

	best := -1
	for i, f := range formats {
		if f.Bitrate <= 0 || f.Bitrate > limit {
			continue
		}
		if best == -1 || f.Bitrate > formats[best].Bitrate {
			best = i
		}
	}

	if best == -1 {
		return AudioFormat{}, fmt.Errorf("%w (%s, %d candidates)", ErrNoAudioFormat, ceiling, len(formats))
	}
	return formats[best], nil
}

// FormatSelector returns the yt-dlp format expression with the same
// upper-bound semantics as SelectAudioFormat.
func FormatSelector(ceiling model.Bitrate) string {
	return fmt.Sprintf("bestaudio[abr<=%d]", ceiling.Kbps())
}

// mimeToExt maps "audio/webm; codecs=opus" style MIME types to an extension
func mimeToExt(mime string) string {
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	parts := strings.Split(strings.TrimSpace(mime), "/")
	if len(parts) == 2 {
		switch parts[1] {
		case "mp4":
			return "m4a"
		case "3gpp":
			return "3gp"
		case "mpeg":
			return "mp3"
		default:
			return parts[1]
		}
	}
	return "bin"
}

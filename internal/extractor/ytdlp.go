package extractor

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

// Markers yt-dlp prints when a video does not exist
var ytdlpNotFoundMarkers = []string{
	"Video unavailable",
	"This video is not available",
	"Incomplete YouTube ID",
	"does not exist",
}

// YTDLP delegates extraction to the yt-dlp executable
type YTDLP struct {
	executable string
	ffmpegPath string
}

// NewYTDLP creates a yt-dlp backed extractor. Empty paths let the library
// resolve yt-dlp and ffmpeg from PATH or its own cache.
func NewYTDLP(executable, ffmpegPath string) *YTDLP {
	return &YTDLP{executable: executable, ffmpegPath: ffmpegPath}
}

func (y *YTDLP) command() *ytdlp.Command {
	cmd := ytdlp.New()
	if y.executable != "" {
		cmd.SetExecutable(y.executable)
	}
	return cmd
}

// InstallYTDLP downloads a yt-dlp binary into the library cache when none is
// available on PATH.
func InstallYTDLP(ctx context.Context) error {
	_, err := ytdlp.Install(ctx, nil)
	return err
}

// Info implements Extractor
func (y *YTDLP) Info(ctx context.Context, url string) (*Info, error) {
	res, err := y.command().
		SkipDownload().
		DumpSingleJSON().
		FlatPlaylist().
		Run(ctx, url)
	if err != nil {
		return nil, classifyYTDLPError(ctx, res, err)
	}

	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("parsing yt-dlp output: %w", err)
	}
	if len(infos) == 0 || infos[0] == nil {
		return nil, ErrNoResult
	}

	info := infos[0]
	result := &Info{
		ID:           info.ID,
		IsCollection: info.Type == ytdlp.ExtractedTypePlaylist || info.Type == ytdlp.ExtractedTypeMultiVideo,
	}
	if info.Title != nil {
		result.Title = strings.TrimSpace(*info.Title)
	}
	if info.Duration != nil {
		result.Duration = time.Duration(*info.Duration * float64(time.Second))
	}
	return result, nil
}

// Download implements Extractor
func (y *YTDLP) Download(ctx context.Context, req DownloadRequest, onProgress func(Progress)) (*DownloadResult, error) {
	dl := y.command().
		NoPlaylist().
		ForceOverwrites().
		Format(FormatSelector(req.MaxBitrate)).
		Output(filepath.Join(req.Dir, req.Prefix+".%(ext)s"))

	if y.ffmpegPath != "" {
		dl.FFmpegLocation(y.ffmpegPath)
	}

	var title string
	dl.ProgressFunc(ProgressInterval, func(update ytdlp.ProgressUpdate) {
		if update.Info != nil && update.Info.Title != nil && title == "" {
			title = strings.TrimSpace(*update.Info.Title)
		}
		if onProgress != nil {
			onProgress(progressFromUpdate(&update))
		}
	})

	res, err := dl.Run(ctx, req.URL)
	if err != nil {
		return nil, classifyYTDLPError(ctx, res, err)
	}

	if title == "" && res != nil {
		if infos, err := res.GetExtractedInfo(); err == nil && len(infos) > 0 && infos[0].Title != nil {
			title = strings.TrimSpace(*infos[0].Title)
		}
	}

	return &DownloadResult{Title: title}, nil
}

func progressFromUpdate(update *ytdlp.ProgressUpdate) Progress {
	p := Progress{
		DownloadedBytes: int64(update.DownloadedBytes),
		TotalBytes:      int64(update.TotalBytes),
	}
	if !update.Started.IsZero() {
		if elapsed := time.Since(update.Started).Seconds(); elapsed > 0 {
			p.BytesPerSecond = float64(update.DownloadedBytes) / elapsed
		}
	}
	return p
}

func classifyYTDLPError(ctx context.Context, res *ytdlp.Result, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var stderr string
	if res != nil {
		stderr = res.Stderr
	}
	message := err.Error() + "\n" + stderr

	for _, marker := range ytdlpNotFoundMarkers {
		if strings.Contains(message, marker) {
			return fmt.Errorf("%w: %v", ErrNoResult, err)
		}
	}
	if strings.Contains(message, "Requested format is not available") {
		return fmt.Errorf("%w: %v", ErrNoAudioFormat, err)
	}

	log.Printf("yt-dlp failed: %v", err)
	return fmt.Errorf("yt-dlp: %w", err)
}

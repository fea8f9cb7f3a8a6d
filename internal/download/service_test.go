package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/yt-mp3/internal/extractor"
	"github.com/ytget/yt-mp3/internal/model"
)

type fakeSource struct {
	fn func(ctx context.Context, req extractor.DownloadRequest, onProgress func(extractor.Progress)) (*extractor.DownloadResult, error)
}

func (f *fakeSource) Download(ctx context.Context, req extractor.DownloadRequest, onProgress func(extractor.Progress)) (*extractor.DownloadResult, error) {
	return f.fn(ctx, req, onProgress)
}

func writeOutput(t *testing.T, req extractor.DownloadRequest, ext string) string {
	t.Helper()
	path := filepath.Join(req.Dir, req.Prefix+"."+ext)
	require.NoError(t, os.WriteFile(path, []byte("audio bytes"), 0o644))
	return path
}

func TestDownload_Success(t *testing.T) {
	dir := t.TempDir()
	var gotReq extractor.DownloadRequest

	src := &fakeSource{fn: func(_ context.Context, req extractor.DownloadRequest, onProgress func(extractor.Progress)) (*extractor.DownloadResult, error) {
		gotReq = req
		for _, n := range []int64{0, 250, 500, 400, 900} {
			onProgress(extractor.Progress{DownloadedBytes: n, TotalBytes: 1000, BytesPerSecond: 2 * bytesPerMB})
		}
		writeOutput(t, req, "webm")
		return &extractor.DownloadResult{Title: "Song", Format: extractor.AudioFormat{ID: "251", Bitrate: 160_000}}, nil
	}}

	var reports []Progress
	res, err := NewService(src).Download(context.Background(), Request{
		URL:     "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Bitrate: model.Bitrate192,
		Dir:     dir,
	}, func(p Progress) { reports = append(reports, p) })
	require.NoError(t, err)

	assert.Equal(t, model.Bitrate192, gotReq.MaxBitrate)
	assert.NotEmpty(t, gotReq.Prefix)
	assert.Equal(t, filepath.Join(dir, gotReq.Prefix+".webm"), res.FilePath)
	assert.Equal(t, "Song", res.Title)
	assert.Equal(t, "251", res.Format.ID)
	assert.EqualValues(t, len("audio bytes"), res.Bytes)

	require.NotEmpty(t, reports)
	prev := -1
	for _, p := range reports {
		require.True(t, p.PercentKnown)
		assert.GreaterOrEqual(t, p.Percent, prev)
		prev = p.Percent
	}
	assert.Equal(t, 100, reports[len(reports)-1].Percent)
	assert.Equal(t, "2.0 MB/s", reports[0].Throughput())
}

func TestDownload_UnknownTotalEmitsThroughputOnly(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{fn: func(_ context.Context, req extractor.DownloadRequest, onProgress func(extractor.Progress)) (*extractor.DownloadResult, error) {
		onProgress(extractor.Progress{DownloadedBytes: 100, BytesPerSecond: 1000})
		writeOutput(t, req, "m4a")
		return &extractor.DownloadResult{}, nil
	}}

	var reports []Progress
	res, err := NewService(src).Download(context.Background(), Request{Dir: dir, Bitrate: model.Bitrate128, Title: "fallback"},
		func(p Progress) { reports = append(reports, p) })
	require.NoError(t, err)
	assert.Equal(t, "fallback", res.Title)

	require.Len(t, reports, 1)
	assert.False(t, reports[0].PercentKnown)
	assert.Greater(t, reports[0].BytesPerSecond, 0.0)
}

func TestDownload_NoOutputFile(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{fn: func(_ context.Context, req extractor.DownloadRequest, _ func(extractor.Progress)) (*extractor.DownloadResult, error) {
		// Only a partial artifact is left behind
		require.NoError(t, os.WriteFile(filepath.Join(req.Dir, req.Prefix+".webm.part"), nil, 0o644))
		return &extractor.DownloadResult{Title: "x"}, nil
	}}

	_, err := NewService(src).Download(context.Background(), Request{Dir: dir, Bitrate: model.Bitrate192, Prefix: "temp_1"}, nil)
	assert.ErrorIs(t, err, ErrNoOutputFile)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "partial artifacts should be removed")
}

func TestDownload_ServiceError(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{fn: func(_ context.Context, req extractor.DownloadRequest, _ func(extractor.Progress)) (*extractor.DownloadResult, error) {
		writeOutput(t, req, "webm.part")
		return nil, errors.New("HTTP 403")
	}}

	_, err := NewService(src).Download(context.Background(), Request{Dir: dir, Bitrate: model.Bitrate192}, nil)
	assert.ErrorIs(t, err, ErrService)
	assert.NotErrorIs(t, err, ErrCancelled)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestDownload_CancelledStopsProgress(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	src := &fakeSource{fn: func(ctx context.Context, req extractor.DownloadRequest, onProgress func(extractor.Progress)) (*extractor.DownloadResult, error) {
		onProgress(extractor.Progress{DownloadedBytes: 10, TotalBytes: 100})
		cancel()
		onProgress(extractor.Progress{DownloadedBytes: 50, TotalBytes: 100})
		return nil, ctx.Err()
	}}

	var reports []Progress
	_, err := NewService(src).Download(ctx, Request{Dir: dir, Bitrate: model.Bitrate192},
		func(p Progress) { reports = append(reports, p) })
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, reports, 1)
}

func TestDownload_CreatesDestination(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	src := &fakeSource{fn: func(_ context.Context, req extractor.DownloadRequest, _ func(extractor.Progress)) (*extractor.DownloadResult, error) {
		writeOutput(t, req, "webm")
		return &extractor.DownloadResult{Title: "t"}, nil
	}}

	_, err := NewService(src).Download(context.Background(), Request{Dir: dir, Bitrate: model.Bitrate192}, nil)
	require.NoError(t, err)
}

func TestFormatThroughput(t *testing.T) {
	assert.Equal(t, "", FormatThroughput(0))
	assert.Equal(t, "1.5 MB/s", FormatThroughput(1.5*bytesPerMB))
}

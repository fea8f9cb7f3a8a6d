// Package download implements the audio acquisition stage. It drives an
// extraction backend (native client or yt-dlp via github.com/lrstanley/go-ytdlp)
// into a per-job temporary prefix, turns byte counts into monotonic progress
// and locates the finished file by prefix once the backend reports success.
package download

package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Operating system constants
const (
	OSDarwin  = "darwin"
	OSWindows = "windows"
	OSLinux   = "linux"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// Command constants for different operating systems
const (
	OpenCommand     = "open"
	ExplorerCommand = "explorer"
	XDGOpenCommand  = "xdg-open"
)

// Command flags and parameters
const (
	MacOSSelectFlag    = "-R"
	WindowsSelectParam = "/select,"
)

// File naming constants
const (
	TempFilePrefix      = "temp_"
	CollisionSeparator  = "_"
	IllegalNameChars    = `<>:"/\|?*`
	NameReplacementChar = "_"
	DefaultFileName     = "audio"
	DownloadsDirName    = "Downloads"

	// MaxFileNameBytes is the common per-component limit of ext4, APFS and NTFS
	MaxFileNameBytes = 255
	// maxClaimAttempts bounds the collision suffix search
	maxClaimAttempts = 10000
)

// LinuxFileManagers are tried when xdg-open is unavailable
var (
	LinuxFileManagers = []string{"nautilus", "dolphin", "thunar", "nemo", "pcmanfm"}
)

// SkippedExtensions are in-progress artifacts that never count as a finished file
var (
	SkippedExtensions = []string{".part", ".ytdl"}
)

// ErrFileNotFound is returned when no file matches a temporary prefix
var ErrFileNotFound = errors.New("file not found")

// CreateDirectoryIfNotExists creates a directory if it doesn't exist.
// Concurrent creators are fine: MkdirAll succeeds when the directory already exists.
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// GetHomeDownloadsDir returns the user's Downloads directory
func GetHomeDownloadsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, DownloadsDirName), nil
}

// SanitizeFileName replaces characters that are illegal in file names, and
// spaces, with underscores.
func SanitizeFileName(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if r == ' ' || strings.ContainsRune(IllegalNameChars, r) {
			b.WriteString(NameReplacementChar)
			continue
		}
		b.WriteRune(r)
	}

	name := b.String()
	if name == "" {
		return DefaultFileName
	}
	return name
}

// ClaimFileName reserves dir/baseName.ext, or the first free
// dir/baseName_<n>.ext for n = 1, 2, 3, ..., by creating it exclusively as an
// empty placeholder. baseName is cut at a rune boundary so the whole name
// stays within MaxFileNameBytes. The caller renames its file over the
// placeholder, or removes it on failure.
func ClaimFileName(dir, baseName, ext string) (string, error) {
	ext = "." + strings.TrimPrefix(ext, ".")

	for n := 0; n < maxClaimAttempts; n++ {
		suffix := ""
		if n > 0 {
			suffix = CollisionSeparator + strconv.Itoa(n)
		}
		base := TruncateUTF8(baseName, MaxFileNameBytes-len(suffix)-len(ext))
		if base == "" {
			base = DefaultFileName
		}
		candidate := filepath.Join(dir, base+suffix+ext)

		f, err := os.OpenFile(candidate, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			if err := f.Close(); err != nil {
				_ = os.Remove(candidate)
				return "", err
			}
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("claiming %s: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("no free file name for %s%s in %s", baseName, ext, dir)
}

// TruncateUTF8 returns the longest prefix of s that fits in maxBytes without
// splitting a multibyte character
func TruncateUTF8(s string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// NewTempPrefix returns a time-derived file name prefix for one job's artifacts
func NewTempPrefix() string {
	return TempFilePrefix + strconv.FormatInt(time.Now().UnixNano(), 10)
}

// FindByPrefix returns the finished file in dir whose name starts with prefix.
// The extension is chosen by the extraction service, so any extension matches
// except in-progress artifacts.
func FindByPrefix(dir, prefix string) (string, error) {
	matches, err := listByPrefix(dir, prefix)
	if err != nil {
		return "", err
	}

	for _, name := range matches {
		if isPartialArtifact(name) {
			continue
		}
		return filepath.Join(dir, name), nil
	}

	return "", fmt.Errorf("%w: %s*", ErrFileNotFound, filepath.Join(dir, prefix))
}

// RemoveByPrefix deletes every file in dir whose name starts with prefix,
// including partial artifacts. It returns the number of removed files.
func RemoveByPrefix(dir, prefix string) (int, error) {
	if prefix == "" {
		return 0, fmt.Errorf("refusing to remove files with an empty prefix")
	}

	matches, err := listByPrefix(dir, prefix)
	if err != nil {
		return 0, err
	}

	removed := 0
	var firstErr error
	for _, name := range matches {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed++
	}
	return removed, firstErr
}

// RemoveIfExists deletes path and ignores a missing file
func RemoveIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// FileSize returns the size of path in bytes
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// OpenFileInManager opens the file manager and selects the specified file
func OpenFileInManager(filePath string) error {
	if !fileExists(filePath) {
		return fmt.Errorf("file does not exist: %s", filePath)
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	switch runtime.GOOS {
	case OSDarwin:
		return exec.Command(OpenCommand, MacOSSelectFlag, absPath).Run()
	case OSWindows:
		return exec.Command(ExplorerCommand, WindowsSelectParam, absPath).Run()
	case OSLinux:
		return openFileInManagerLinux(absPath)
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

// openFileInManagerLinux opens file manager on Linux
func openFileInManagerLinux(filePath string) error {
	// Most Linux file managers cannot select a file, open the directory instead
	dir := filepath.Dir(filePath)

	if err := exec.Command(XDGOpenCommand, dir).Run(); err == nil {
		return nil
	}

	for _, fm := range LinuxFileManagers {
		if _, err := exec.LookPath(fm); err == nil {
			return exec.Command(fm, dir).Run()
		}
	}

	return fmt.Errorf("no suitable file manager found")
}

func listByPrefix(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func isPartialArtifact(name string) bool {
	for _, ext := range SkippedExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

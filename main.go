package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ytget/yt-mp3/internal/config"
	"github.com/ytget/yt-mp3/internal/download"
	"github.com/ytget/yt-mp3/internal/extractor"
	"github.com/ytget/yt-mp3/internal/metadata"
	"github.com/ytget/yt-mp3/internal/model"
	"github.com/ytget/yt-mp3/internal/pipeline"
	"github.com/ytget/yt-mp3/internal/platform"
	"github.com/ytget/yt-mp3/internal/transcode"
	"github.com/ytget/yt-mp3/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppName    = "yt-mp3"
	LogFile    = "yt-mp3.log"
	InstallTTL = 5 * time.Minute
)

// Exit codes
const (
	exitOK        = 0
	exitFailed    = 1
	exitUsage     = 2
	exitCancelled = 130
)

type options struct {
	url          string
	bitrate      string
	dir          string
	backend      string
	ffmpeg       string
	ytdlp        string
	timeout      time.Duration
	retries      int
	reveal       bool
	plain        bool
	verbose      bool
	lang         string
	configPath   string
	envFile      string
	save         bool
	installYTDLP bool
	showVersion  bool
}

func parseFlags() (*options, map[string]bool) {
	o := &options{}
	flag.StringVar(&o.url, "url", "", "YouTube video URL (may also be given as the first argument)")
	flag.StringVar(&o.bitrate, "bitrate", "", "target MP3 bitrate: 320K, 256K, 192K, 160K, 128K, 96K, 64K or 48K")
	flag.StringVar(&o.dir, "dir", "", "destination directory")
	flag.StringVar(&o.backend, "backend", "", "extraction backend: native or ytdlp")
	flag.StringVar(&o.ffmpeg, "ffmpeg", "", "ffmpeg executable")
	flag.StringVar(&o.ytdlp, "ytdlp", "", "yt-dlp executable (ytdlp backend)")
	flag.DurationVar(&o.timeout, "timeout", 0, "metadata fetch timeout")
	flag.IntVar(&o.retries, "retries", 0, "metadata fetch retries on service errors")
	flag.BoolVar(&o.reveal, "reveal", false, "show the MP3 in the file manager when done")
	flag.BoolVar(&o.plain, "plain", false, "log progress instead of running the terminal UI")
	flag.BoolVar(&o.verbose, "v", false, "log every progress update in plain mode")
	flag.StringVar(&o.lang, "lang", "en", "UI language: en, ru, pt or system")
	flag.StringVar(&o.configPath, "config", "", "settings file (default: user config dir)")
	flag.StringVar(&o.envFile, "env", ".env", "dotenv file with YTMP3_* overrides")
	flag.BoolVar(&o.save, "save", false, "persist the effective settings to the settings file")
	flag.BoolVar(&o.installYTDLP, "install-ytdlp", false, "download a yt-dlp binary into the cache and exit")
	flag.BoolVar(&o.showVersion, "version", false, "print version and exit")
	flag.Parse()

	if o.url == "" && flag.NArg() > 0 {
		o.url = flag.Arg(0)
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return o, set
}

// loadSettings layers file settings, environment and flags, in that order
func loadSettings(o *options, set map[string]bool) (config.Settings, *config.JSONStore, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return config.Settings{}, nil, err
	}

	path := o.configPath
	if path == "" {
		p, err := config.DefaultStorePath()
		if err != nil {
			return config.Settings{}, nil, err
		}
		path = p
	}
	store := config.NewJSONStore(path)

	s, err := store.Load()
	if err != nil {
		return config.Settings{}, nil, err
	}
	if s, err = config.ApplyEnv(s); err != nil {
		return config.Settings{}, nil, err
	}

	if set["bitrate"] {
		b, err := model.ParseBitrate(o.bitrate)
		if err != nil {
			return config.Settings{}, nil, err
		}
		s = s.WithDefaultBitrate(b)
	}
	if set["dir"] {
		dir, err := filepath.Abs(o.dir)
		if err != nil {
			return config.Settings{}, nil, err
		}
		s = s.WithDownloadDir(dir)
	}
	if set["backend"] {
		s.Backend = o.backend
	}
	if set["ffmpeg"] {
		s.FFmpegPath = o.ffmpeg
	}
	if set["ytdlp"] {
		s.YTDLPPath = o.ytdlp
	}
	if set["timeout"] {
		s = s.WithFetchTimeout(o.timeout)
	}
	if set["retries"] {
		s = s.WithFetchRetries(o.retries)
	}
	if set["reveal"] {
		s.AutoRevealOnComplete = o.reveal
	}

	s, err = s.Validate()
	return s, store, err
}

func main() {
	os.Exit(run())
}

func run() int {
	o, set := parseFlags()
	if o.showVersion {
		fmt.Printf("%s v%s\n", AppName, version)
		return exitOK
	}

	if o.installYTDLP {
		ctx, cancel := context.WithTimeout(context.Background(), InstallTTL)
		defer cancel()
		if err := extractor.InstallYTDLP(ctx); err != nil {
			log.Printf("Failed to install yt-dlp: %v", err)
			return exitFailed
		}
		log.Printf("yt-dlp installed")
		return exitOK
	}

	if err := checkLanguage(ui.NewLocalization(), o.lang); err != nil {
		log.Printf("Invalid configuration: %v", err)
		return exitUsage
	}

	settings, store, err := loadSettings(o, set)
	if err != nil {
		log.Printf("Invalid configuration: %v", err)
		return exitUsage
	}
	if o.save {
		if err := store.Save(settings); err != nil {
			log.Printf("Failed to save settings: %v", err)
			return exitFailed
		}
		log.Printf("Settings saved to %s", store.Path())
	}

	if o.plain && o.url == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -plain [flags] <youtube-url>\n", AppName)
		flag.PrintDefaults()
		return exitUsage
	}

	if !o.plain {
		// Keep log output off the terminal the UI draws on
		f, err := tea.LogToFile(filepath.Join(os.TempDir(), LogFile), AppName)
		if err != nil {
			log.Printf("Failed to open log file: %v", err)
			return exitFailed
		}
		defer f.Close()
	}
	log.Printf("%s v%s starting (backend %s)", AppName, version, settings.Backend)

	ext, err := extractor.New(settings.Backend, settings.FetchTimeout, settings.YTDLPPath, settings.FFmpegPath)
	if err != nil {
		log.Printf("Failed to create extractor: %v", err)
		return exitUsage
	}
	transcoder := transcode.NewService(settings.FFmpegPath)
	if err := transcoder.Check(); err != nil {
		log.Printf("Warning: %v", err)
	}
	if err := platform.CreateDirectoryIfNotExists(settings.DownloadDir); err != nil {
		log.Printf("failed to ensure downloads dir: %v", err)
	}

	deps := pipeline.Deps{
		Validator:  platform.NewURLValidator(),
		Fetcher:    metadata.NewFetcher(ext, settings.FetchTimeout, settings.FetchRetries),
		Downloader: download.NewService(ext),
		Transcoder: transcoder,
	}

	if o.plain {
		return runPlain(settings, deps, o)
	}
	return runTUI(settings, deps, o)
}

func runPlain(settings config.Settings, deps pipeline.Deps, o *options) int {
	logger := log.Default()
	orch := pipeline.New(settings, deps,
		pipeline.WithLogger(logger),
		pipeline.WithListener(pipeline.LogListener{Logger: logger, Verbose: o.verbose}),
	)
	defer orch.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = orch.Cancel()
	}()

	if _, err := orch.Submit(o.url); err != nil {
		log.Printf("Submit failed: %v", err)
		return exitFailed
	}
	job, err := orch.Wait(context.Background())
	if err != nil {
		return exitFailed
	}

	if job.State == model.JobStateMetadataReady && ctx.Err() == nil {
		if err := startDownload(ctx, orch); err != nil {
			log.Printf("Failed to start download: %v", err)
			return exitFailed
		}
		if job, err = orch.Wait(context.Background()); err != nil {
			return exitFailed
		}
	}

	switch job.State {
	case model.JobStateCompleted:
		fmt.Println(job.FinalFilePath)
		return exitOK
	case model.JobStateCancelled, model.JobStateMetadataReady:
		return exitCancelled
	default:
		return exitFailed
	}
}

// jobRunner is the part of the orchestrator plain mode drives
type jobRunner interface {
	StartDownload(req model.JobRequest) error
	Cancel() error
}

// startDownload starts the download with the stored defaults. The signal
// watcher may have fired while the job was still MetadataReady, when Cancel
// is a no-op, so ctx is checked again once the job is in flight.
func startDownload(ctx context.Context, orch jobRunner) error {
	if err := orch.StartDownload(model.JobRequest{}); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return orch.Cancel()
	}
	return nil
}

// checkLanguage rejects -lang values the UI has no texts for
func checkLanguage(loc *ui.Localization, lang string) error {
	if lang == "system" {
		return nil
	}
	if _, ok := loc.GetAvailableLanguages()[lang]; !ok {
		return fmt.Errorf("unsupported language %q", lang)
	}
	return nil
}

func runTUI(settings config.Settings, deps pipeline.Deps, o *options) int {
	loc := ui.NewLocalization()
	loc.SetLanguage(o.lang)

	bridge := ui.NewBridge()
	orch := pipeline.New(settings, deps, pipeline.WithListener(bridge))
	defer orch.Close()

	m := ui.NewModel(orch, ui.Config{
		Bitrate:      settings.DefaultBitrate,
		Dir:          settings.DownloadDir,
		InitialURL:   o.url,
		Localization: loc,
	})

	if err := ui.Run(m, bridge); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.Printf("UI error: %v", err)
		return exitFailed
	}
	return exitOK
}

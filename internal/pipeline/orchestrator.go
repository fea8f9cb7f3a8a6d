// Package pipeline sequences URL validation, title lookup, download and
// transcoding for one job at a time. Stage workers report back through
// generation-checked callbacks so a cancelled or superseded worker can never
// change the current job, and listeners receive events in order from a
// single dispatcher goroutine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ytget/yt-mp3/internal/config"
	"github.com/ytget/yt-mp3/internal/download"
	"github.com/ytget/yt-mp3/internal/metadata"
	"github.com/ytget/yt-mp3/internal/model"
	"github.com/ytget/yt-mp3/internal/platform"
	"github.com/ytget/yt-mp3/internal/transcode"
)

// JobIDPrefix is used for fallback ids when UUID generation fails
const JobIDPrefix = "job-"

// Validator decides whether a string is a supported video URL
type Validator interface {
	IsValid(url string) bool
}

// Fetcher resolves titles with per-job stale-fetch suppression
type Fetcher interface {
	FetchForJob(ctx context.Context, jobID, url string) (*metadata.Result, error)
}

// Deps are the stage implementations the orchestrator drives
type Deps struct {
	Validator  Validator
	Fetcher    Fetcher
	Downloader download.Downloader
	Transcoder transcode.Transcoder
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger; log.Default() is used otherwise
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithListener subscribes a listener to job events
func WithListener(l Listener) Option {
	return func(o *Orchestrator) { o.listeners = append(o.listeners, l) }
}

// WithReveal replaces the reveal-in-file-manager action used when
// AutoRevealOnComplete is set
func WithReveal(fn func(path string) error) Option {
	return func(o *Orchestrator) { o.reveal = fn }
}

// worker is one running stage goroutine
type worker struct {
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// Orchestrator owns the current job and its stage workers
type Orchestrator struct {
	settings config.Settings
	deps     Deps
	logger   *log.Logger
	reveal   func(path string) error

	mu       sync.Mutex
	job      model.Job
	gen      uint64
	worker   *worker
	stopping chan struct{}
	changed  chan struct{}
	closed   bool

	listeners    []Listener
	queue        *eventQueue
	dispatchDone chan struct{}
	closeOnce    sync.Once
}

// New creates an orchestrator and starts its event dispatcher
func New(settings config.Settings, deps Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		settings:     settings,
		deps:         deps,
		logger:       log.Default(),
		reveal:       platform.OpenFileInManager,
		job:          model.Job{State: model.JobStateIdle},
		changed:      make(chan struct{}),
		queue:        newEventQueue(),
		dispatchDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}

	go dispatch(o.queue, o.listeners, o.dispatchDone)
	return o
}

// Current returns a snapshot of the current job
func (o *Orchestrator) Current() model.Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.job
}

// Submit starts a new job for url, cancelling any in-flight job first. The
// URL is validated synchronously; an invalid URL ends the job in Invalid and
// is reported through OnError. A valid URL starts the title lookup in the
// background.
func (o *Orchestrator) Submit(url string) (model.Job, error) {
	for {
		if err := o.Cancel(); err != nil {
			return model.Job{}, err
		}

		o.mu.Lock()
		if o.closed {
			o.mu.Unlock()
			return model.Job{}, ErrClosed
		}
		if o.job.State.IsInFlight() || o.stopping != nil {
			// Another caller started a job in between
			o.mu.Unlock()
			continue
		}
		break
	}
	defer o.mu.Unlock()

	o.job = model.Job{
		ID:    generateJobID(),
		State: model.JobStateIdle,
		Request: model.JobRequest{
			URL:                  url,
			TargetBitrate:        o.settings.DefaultBitrate,
			DestinationDirectory: o.settings.DownloadDir,
		},
		CreatedAt: time.Now(),
	}
	o.logger.Printf("Job %s submitted: %s", o.job.ID, url)

	o.setState(model.JobStateValidating)
	o.publishProgress(model.ProgressSnapshot{Stage: model.StageValidating})

	if !o.deps.Validator.IsValid(url) {
		o.finishWithError(model.JobStateInvalid, model.StageValidating, fmt.Errorf("%w: %q", platform.ErrInvalidURL, url))
		return o.job, nil
	}

	o.publishProgress(model.ProgressSnapshot{Stage: model.StageFetchingTitle})
	jobID := o.job.ID
	o.startWorker(func(ctx context.Context, gen uint64) {
		o.runFetch(ctx, gen, jobID, url)
	})
	return o.job, nil
}

// StartDownload starts the download of the current job, which must be in
// MetadataReady. Empty bitrate and directory fields take the configured
// defaults. Transcoding starts automatically when the download finishes.
func (o *Orchestrator) StartDownload(req model.JobRequest) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}
	if o.job.State != model.JobStateMetadataReady {
		return fmt.Errorf("%w: job is %s", ErrNotReady, o.job.State)
	}

	if req.URL != "" {
		canonical, err := platform.NormalizeURL(req.URL)
		if err != nil || canonical != o.job.Request.URL {
			return fmt.Errorf("%w: %s", ErrURLMismatch, req.URL)
		}
	}
	req.URL = o.job.Request.URL
	if req.TargetBitrate == 0 {
		req.TargetBitrate = o.settings.DefaultBitrate
	}
	if req.DestinationDirectory == "" {
		req.DestinationDirectory = o.settings.DownloadDir
	}
	if err := req.Validate(); err != nil {
		return err
	}

	o.job.Request = req
	o.job.DownloadStartedAt = time.Now()
	o.setState(model.JobStateDownloading)
	o.publishProgress(model.ProgressSnapshot{Stage: model.StageDownloading})

	title := o.job.Title
	o.startWorker(func(ctx context.Context, gen uint64) {
		o.runDownload(ctx, gen, req, title)
	})
	return nil
}

// Cancel stops the in-flight stage, waits for its worker to exit and moves
// the job to Cancelled. It is a no-op when nothing is in flight, so calling
// it twice or after completion produces no extra events.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	if o.stopping != nil {
		ch := o.stopping
		o.mu.Unlock()
		<-ch
		return nil
	}
	if o.worker == nil || !o.job.State.IsInFlight() {
		o.mu.Unlock()
		return nil
	}

	w := o.worker
	o.worker = nil
	o.gen++
	stopping := make(chan struct{})
	o.stopping = stopping
	jobID := o.job.ID
	o.logger.Printf("Cancelling job %s in state %s", jobID, o.job.State)
	w.cancel()
	o.mu.Unlock()

	<-w.done

	o.mu.Lock()
	o.job.FinishedAt = time.Now()
	o.setState(model.JobStateCancelled)
	o.stopping = nil
	close(stopping)
	o.mu.Unlock()

	o.logger.Printf("Job %s cancelled", jobID)
	return nil
}

// Wait blocks until the current job reaches MetadataReady or a terminal
// state, or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) (model.Job, error) {
	for {
		o.mu.Lock()
		job := o.job
		changed := o.changed
		settled := o.stopping == nil && isSettled(job.State)
		o.mu.Unlock()

		if settled {
			return job, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return job, ctx.Err()
		}
	}
}

// Close cancels any in-flight job, flushes pending events and stops the
// dispatcher. Further calls return immediately.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		_ = o.Cancel()

		o.mu.Lock()
		o.closed = true
		o.gen++
		o.mu.Unlock()

		o.queue.close()
		<-o.dispatchDone
	})
}

func isSettled(s model.JobState) bool {
	return s == model.JobStateIdle || s == model.JobStateMetadataReady || s.IsFinished()
}

// runFetch is the metadata worker
func (o *Orchestrator) runFetch(ctx context.Context, gen uint64, jobID, url string) {
	res, err := o.deps.Fetcher.FetchForJob(ctx, jobID, url)

	o.apply(gen, func() {
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			o.finishWithError(model.JobStateErrored, model.StageFetchingTitle, err)
			return
		}

		o.job.Title = res.Title
		o.job.Request.URL = res.CanonicalURL
		o.logger.Printf("Job %s title: %q", o.job.ID, res.Title)
		o.setState(model.JobStateMetadataReady)
	})
}

// runDownload is the download worker; on success it hands over to the
// transcode worker
func (o *Orchestrator) runDownload(ctx context.Context, gen uint64, req model.JobRequest, title string) {
	res, err := o.deps.Downloader.Download(ctx, download.Request{
		URL:     req.URL,
		Bitrate: req.TargetBitrate,
		Dir:     req.DestinationDirectory,
		Prefix:  platform.NewTempPrefix(),
		Title:   title,
	}, func(p download.Progress) {
		o.apply(gen, func() {
			o.publishProgress(model.ProgressSnapshot{
				Stage:        model.StageDownloading,
				Percent:      p.Percent,
				PercentKnown: p.PercentKnown,
				Throughput:   p.Throughput(),
			})
		})
	})

	if err != nil {
		o.apply(gen, func() {
			if errors.Is(err, context.Canceled) {
				return
			}
			o.finishWithError(model.JobStateErrored, model.StageDownloading, err)
		})
		return
	}

	handedOver := o.apply(gen, func() {
		o.job.DownloadedFilePath = res.FilePath
		if !o.job.HasTitle() {
			o.job.Title = res.Title
		}
		o.setState(model.JobStateDownloaded)

		o.job.TranscodeStartedAt = time.Now()
		o.setState(model.JobStateTranscoding)
		o.publishProgress(model.ProgressSnapshot{Stage: model.StageTranscoding})

		input, name := res.FilePath, o.job.Title
		o.startWorker(func(ctx context.Context, gen uint64) {
			o.runTranscode(ctx, gen, req, input, name)
		})
	})

	if !handedOver {
		// Cancelled between download completion and hand-over
		if err := platform.RemoveIfExists(res.FilePath); err != nil {
			o.logger.Printf("Failed to remove %s: %v", res.FilePath, err)
		}
	}
}

// runTranscode is the transcode worker. Cancellation removes both the
// downloaded file and the partial output; an encoder or save failure keeps them.
func (o *Orchestrator) runTranscode(ctx context.Context, gen uint64, req model.JobRequest, input, title string) {
	res, err := o.deps.Transcoder.Transcode(ctx, transcode.Request{
		InputPath: input,
		BaseName:  platform.SanitizeFileName(title),
		Bitrate:   req.TargetBitrate,
		Dir:       req.DestinationDirectory,
	}, func(percent int) {
		o.apply(gen, func() {
			o.publishProgress(model.ProgressSnapshot{
				Stage:        model.StageTranscoding,
				Percent:      percent,
				PercentKnown: true,
			})
		})
	})

	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			o.cleanupCancelledTranscode(input, res)
			return
		}
		o.apply(gen, func() {
			o.finishWithError(model.JobStateErrored, model.StageTranscoding, err)
		})
		return
	}

	o.apply(gen, func() {
		o.job.FinalFilePath = res.FinalPath
		o.job.DownloadedFilePath = ""
		o.job.FinishedAt = time.Now()
		o.setState(model.JobStateCompleted)
		o.queue.push(event{typ: eventCompleted, job: o.job, path: res.FinalPath})
		o.logSummary(res)

		if o.settings.AutoRevealOnComplete {
			path := res.FinalPath
			go func() {
				if err := o.reveal(path); err != nil {
					o.logger.Printf("Failed to reveal %s: %v", path, err)
				}
			}()
		}
	})
}

func (o *Orchestrator) cleanupCancelledTranscode(input string, res *transcode.Result) {
	paths := []string{input}
	if res != nil && res.TempPath != "" {
		paths = append(paths, res.TempPath)
	}
	for _, p := range paths {
		if err := platform.RemoveIfExists(p); err != nil {
			o.logger.Printf("Failed to remove %s: %v", p, err)
		}
	}
}

func (o *Orchestrator) logSummary(res *transcode.Result) {
	o.logger.Printf("Job %s completed: %s (%d bytes, %s, download %s, transcode %s)",
		o.job.ID,
		res.FinalPath,
		res.Bytes,
		o.job.Request.TargetBitrate,
		o.job.DownloadDuration().Round(time.Millisecond),
		o.job.TranscodeDuration().Round(time.Millisecond),
	)
}

// apply runs fn under the lock if gen is still current and reports whether it ran
func (o *Orchestrator) apply(gen uint64, fn func()) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || o.gen != gen {
		return false
	}
	fn()

	if o.worker != nil && o.worker.gen == gen && !o.job.State.IsInFlight() {
		o.worker = nil
	}
	return true
}

// startWorker runs fn on a new goroutine as the current worker. Caller holds mu.
func (o *Orchestrator) startWorker(fn func(ctx context.Context, gen uint64)) {
	o.gen++
	gen := o.gen
	ctx, cancel := context.WithCancel(context.Background())
	w := &worker{gen: gen, cancel: cancel, done: make(chan struct{})}
	o.worker = w

	go func() {
		defer close(w.done)
		defer cancel()
		fn(ctx, gen)
	}()
}

// setState applies a transition allowed by the state machine. Caller holds mu.
func (o *Orchestrator) setState(next model.JobState) bool {
	if !o.job.State.CanTransition(next) {
		o.logger.Printf("Job %s: ignoring illegal transition %s -> %s", o.job.ID, o.job.State, next)
		return false
	}
	o.job.State = next
	o.queue.push(event{typ: eventStateChanged, job: o.job, state: next})

	close(o.changed)
	o.changed = make(chan struct{})
	return true
}

// publishProgress replaces the progress snapshot. Caller holds mu.
func (o *Orchestrator) publishProgress(p model.ProgressSnapshot) {
	o.job.Progress = p
	o.queue.push(event{typ: eventProgress, job: o.job, progress: p})
}

// finishWithError records err and moves the job to a failed state. Caller holds mu.
func (o *Orchestrator) finishWithError(state model.JobState, stage model.Stage, err error) {
	info := classify(stage, err)
	o.job.Error = &info
	o.job.FinishedAt = time.Now()
	o.logger.Printf("Job %s failed in %s: %v", o.job.ID, stage, err)

	o.setState(state)
	o.queue.push(event{typ: eventError, job: o.job, info: info})
}

// generateJobID generates a unique job ID using UUID v7, which is time ordered
func generateJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf(JobIDPrefix+"%d", time.Now().UnixNano())
	}
	return id.String()
}

package pipeline

import (
	"log"

	"github.com/ytget/yt-mp3/internal/model"
)

// Listener receives orchestrator events. All methods are called from a
// single dispatcher goroutine, in the order the events happened, and must
// not call back into the orchestrator synchronously.
type Listener interface {
	OnStateChanged(job model.Job, state model.JobState)
	OnProgress(job model.Job, progress model.ProgressSnapshot)
	OnCompleted(job model.Job, finalPath string)
	OnError(job model.Job, info model.ErrorInfo)
}

// ListenerFuncs adapts plain functions to Listener; nil fields are skipped
type ListenerFuncs struct {
	StateChanged func(job model.Job, state model.JobState)
	Progress     func(job model.Job, progress model.ProgressSnapshot)
	Completed    func(job model.Job, finalPath string)
	Error        func(job model.Job, info model.ErrorInfo)
}

func (f ListenerFuncs) OnStateChanged(job model.Job, state model.JobState) {
	if f.StateChanged != nil {
		f.StateChanged(job, state)
	}
}

func (f ListenerFuncs) OnProgress(job model.Job, progress model.ProgressSnapshot) {
	if f.Progress != nil {
		f.Progress(job, progress)
	}
}

func (f ListenerFuncs) OnCompleted(job model.Job, finalPath string) {
	if f.Completed != nil {
		f.Completed(job, finalPath)
	}
}

func (f ListenerFuncs) OnError(job model.Job, info model.ErrorInfo) {
	if f.Error != nil {
		f.Error(job, info)
	}
}

// LogListener writes every event to a logger, for headless runs
type LogListener struct {
	Logger *log.Logger
	// Verbose includes progress events
	Verbose bool
}

func (l LogListener) logger() *log.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return log.Default()
}

func (l LogListener) OnStateChanged(job model.Job, state model.JobState) {
	l.logger().Printf("[%s] state %s", shortID(job.ID), state)
}

func (l LogListener) OnProgress(job model.Job, p model.ProgressSnapshot) {
	if !l.Verbose || !p.PercentKnown {
		return
	}
	if p.Throughput != "" {
		l.logger().Printf("[%s] %s %d%% (%s)", shortID(job.ID), p.Stage, p.Percent, p.Throughput)
		return
	}
	l.logger().Printf("[%s] %s %d%%", shortID(job.ID), p.Stage, p.Percent)
}

func (l LogListener) OnCompleted(job model.Job, finalPath string) {
	l.logger().Printf("[%s] completed: %s", shortID(job.ID), finalPath)
}

func (l LogListener) OnError(job model.Job, info model.ErrorInfo) {
	l.logger().Printf("[%s] %s failed (%s): %s", shortID(job.ID), info.Stage, info.Kind, info.Message)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}

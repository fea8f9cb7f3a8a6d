package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ytget/yt-mp3/internal/model"
)

// StateMsg reports a job state transition
type StateMsg struct {
	Job   model.Job
	State model.JobState
}

// ProgressMsg reports a new progress snapshot
type ProgressMsg struct {
	Job      model.Job
	Progress model.ProgressSnapshot
}

// CompletedMsg reports the final MP3 path
type CompletedMsg struct {
	Job  model.Job
	Path string
}

// ErrorMsg reports a job failure
type ErrorMsg struct {
	Job  model.Job
	Info model.ErrorInfo
}

// Bridge forwards orchestrator events into a running Bubble Tea program.
// Messages arriving before the program is attached are buffered and
// delivered first, in order.
type Bridge struct {
	mu      sync.Mutex
	program *tea.Program
	pending []tea.Msg
}

// NewBridge creates a bridge with no program attached
func NewBridge() *Bridge {
	return &Bridge{}
}

// SetProgram attaches the program. Buffered messages are flushed from a
// separate goroutine because Send blocks until the program is running.
func (b *Bridge) SetProgram(p *tea.Program) {
	go func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, msg := range b.pending {
			p.Send(msg)
		}
		b.pending = nil
		b.program = p
	}()
}

func (b *Bridge) send(msg tea.Msg) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.program == nil {
		b.pending = append(b.pending, msg)
		return
	}
	b.program.Send(msg)
}

func (b *Bridge) OnStateChanged(job model.Job, state model.JobState) {
	b.send(StateMsg{Job: job, State: state})
}

func (b *Bridge) OnProgress(job model.Job, p model.ProgressSnapshot) {
	b.send(ProgressMsg{Job: job, Progress: p})
}

func (b *Bridge) OnCompleted(job model.Job, path string) {
	b.send(CompletedMsg{Job: job, Path: path})
}

func (b *Bridge) OnError(job model.Job, info model.ErrorInfo) {
	b.send(ErrorMsg{Job: job, Info: info})
}

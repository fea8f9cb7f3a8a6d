package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ytget/yt-mp3/internal/model"
	"github.com/ytget/yt-mp3/internal/platform"
)

// Controller is the part of the pipeline orchestrator the UI drives
type Controller interface {
	Submit(url string) (model.Job, error)
	StartDownload(req model.JobRequest) error
	Cancel() error
	Current() model.Job
}

// Config holds the initial UI choices
type Config struct {
	Bitrate      model.Bitrate
	Dir          string
	InitialURL   string
	Localization *Localization
	// Reveal shows a file in the system file manager; defaults to platform.OpenFileInManager
	Reveal func(path string) error
}

type submittedMsg struct {
	job model.Job
	err error
}

type actionErrMsg struct{ err error }

type cancelledMsg struct{}

// Model is the Bubble Tea model for the single-job interface
type Model struct {
	ctrl   Controller
	loc    *Localization
	reveal func(string) error

	input    textinput.Model
	spinner  spinner.Model
	progress progress.Model

	bitrateIdx int
	dir        string
	initialURL string

	job       model.Job
	retired   map[string]bool
	percent   int
	known     bool
	speed     string
	finalPath string
	notice    string
	stopping  bool
	width     int
}

// NewModel creates the UI model
func NewModel(ctrl Controller, cfg Config) Model {
	loc := cfg.Localization
	if loc == nil {
		loc = NewLocalization()
	}
	reveal := cfg.Reveal
	if reveal == nil {
		reveal = platform.OpenFileInManager
	}

	input := textinput.New()
	input.Placeholder = loc.GetText(KeyEnterURL)
	input.CharLimit = InputCharLimit
	input.Width = DefaultWidth - 10
	input.SetValue(cfg.InitialURL)
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle

	idx := 0
	for i, b := range model.Bitrates {
		if b == cfg.Bitrate {
			idx = i
		}
		if cfg.Bitrate == 0 && b == model.DefaultBitrate {
			idx = i
		}
	}

	return Model{
		ctrl:       ctrl,
		loc:        loc,
		reveal:     reveal,
		input:      input,
		spinner:    sp,
		progress:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(MaxProgressWidth)),
		bitrateIdx: idx,
		dir:        cfg.Dir,
		initialURL: cfg.InitialURL,
		job:        model.Job{State: model.JobStateIdle},
		retired:    make(map[string]bool),
		width:      DefaultWidth,
	}
}

// Bitrate returns the currently selected bitrate
func (m Model) Bitrate() model.Bitrate {
	return model.Bitrates[m.bitrateIdx]
}

// Init starts the cursor and spinner and submits the initial URL if one was given
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick}
	if m.initialURL != "" {
		cmds = append(cmds, m.submitCmd(m.initialURL))
	}
	return tea.Batch(cmds...)
}

// Update handles key presses and pipeline events
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = clamp(msg.Width-2*ViewPadding-8, MinProgressWidth, MaxProgressWidth)
		m.input.Width = clamp(msg.Width-2*ViewPadding-4, MinProgressWidth, InputCharLimit)
		return m, nil

	case submittedMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
			return m, nil
		}
		if msg.job.ID != m.job.ID {
			m.adopt(msg.job)
		}
		return m, nil

	case StateMsg:
		if !m.adopt(msg.Job) {
			return m, nil
		}
		if msg.State.IsFinished() {
			m.stopping = false
		}
		if msg.State == model.JobStateMetadataReady {
			m.input.SetValue(msg.Job.Request.URL)
		}
		return m, nil

	case ProgressMsg:
		if !m.adopt(msg.Job) {
			return m, nil
		}
		p := msg.Progress
		m.known = p.PercentKnown
		m.speed = p.Throughput
		if p.PercentKnown {
			m.percent = p.Percent
		} else {
			m.percent = 0
		}
		return m, m.progress.SetPercent(float64(m.percent) / 100)

	case CompletedMsg:
		if m.adopt(msg.Job) {
			m.finalPath = msg.Path
		}
		return m, nil

	case ErrorMsg:
		m.adopt(msg.Job)
		return m, nil

	case cancelledMsg:
		return m, nil

	case actionErrMsg:
		m.notice = msg.err.Error()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		m.progress = pm.(progress.Model)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := m.job.State

	switch msg.String() {
	case KeyQuit:
		if state.IsInFlight() {
			return m, tea.Sequence(m.cancelCmd(), tea.Quit)
		}
		return m, tea.Quit

	case KeyCancelJob:
		if state.IsInFlight() {
			if m.stopping {
				return m, nil
			}
			m.stopping = true
			return m, m.cancelCmd()
		}
		return m, tea.Quit

	case KeyNextRate, KeyPrevRate:
		if state.IsActive() {
			return m, nil
		}
		step := 1
		if msg.String() == KeyPrevRate {
			step = len(model.Bitrates) - 1
		}
		m.bitrateIdx = (m.bitrateIdx + step) % len(model.Bitrates)
		return m, nil

	case KeyRevealFile:
		if m.finalPath == "" {
			return m, nil
		}
		path, reveal, errText := m.finalPath, m.reveal, m.loc.GetText(KeyErrorOpeningFile)
		return m, func() tea.Msg {
			if err := reveal(path); err != nil {
				return actionErrMsg{fmt.Errorf("%s: %w", errText, err)}
			}
			return nil
		}

	case KeySubmit:
		return m.handleSubmit()
	}

	if state.IsInFlight() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	switch {
	case m.job.State.IsInFlight():
		return m, nil

	case m.job.State == model.JobStateMetadataReady && m.input.Value() == m.job.Request.URL:
		m.notice = ""
		req := model.JobRequest{
			URL:                  m.job.Request.URL,
			TargetBitrate:        m.Bitrate(),
			DestinationDirectory: m.dir,
		}
		ctrl := m.ctrl
		return m, func() tea.Msg {
			if err := ctrl.StartDownload(req); err != nil {
				return actionErrMsg{err}
			}
			return nil
		}
	}

	url := strings.TrimSpace(m.input.Value())
	if url == "" {
		m.notice = m.loc.GetText(KeyPleaseEnterURL)
		return m, nil
	}
	m.notice = ""
	return m, m.submitCmd(url)
}

func (m Model) submitCmd(url string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		job, err := ctrl.Submit(url)
		return submittedMsg{job: job, err: err}
	}
}

func (m Model) cancelCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		if err := ctrl.Cancel(); err != nil {
			return actionErrMsg{err}
		}
		return cancelledMsg{}
	}
}

// adopt makes job the displayed one unless it belongs to a superseded job
func (m *Model) adopt(job model.Job) bool {
	if job.ID == "" || m.retired[job.ID] {
		return false
	}
	if m.job.ID != "" && m.job.ID != job.ID {
		m.retired[m.job.ID] = true
		m.percent, m.known, m.speed, m.finalPath = 0, false, "", ""
		m.stopping = false
	}
	m.job = job
	return true
}

// View renders the current screen
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(IconMusic+" "+m.loc.GetText(KeyAppTitle)) + "\n\n")
	b.WriteString(m.input.View() + "\n\n")
	b.WriteString(m.renderOptions() + "\n\n")
	b.WriteString(m.renderStatus())
	if m.notice != "" {
		b.WriteString("\n" + errorStyle.Render(m.notice))
	}
	b.WriteString("\n\n" + helpStyle.Render(m.helpText()))

	return frameStyle.Render(b.String())
}

func (m Model) renderOptions() string {
	var rates []string
	for i, r := range model.Bitrates {
		if i == m.bitrateIdx {
			rates = append(rates, selectStyle.Render(r.String()))
		} else {
			rates = append(rates, labelStyle.Render(r.String()))
		}
	}
	dir := m.dir
	if dir == "" {
		dir = DashPlaceholder
	}
	return labelStyle.Render(m.loc.GetText(KeyBitrate)+": ") + strings.Join(rates, " ") + "\n" +
		labelStyle.Render(IconFolder+" "+m.loc.GetText(KeyDownloadDirectory)+": ") + valueStyle.Render(dir)
}

func (m Model) renderStatus() string {
	job := m.job
	title := job.GetDisplayTitle()

	if m.stopping {
		return m.spinner.View() + " " + m.loc.GetText(KeyStopping)
	}

	switch job.State {
	case model.JobStateIdle:
		return ""
	case model.JobStateValidating:
		if job.Progress.Stage == model.StageFetchingTitle {
			return m.spinner.View() + " " + m.loc.GetText(KeyFetchingTitle)
		}
		return m.spinner.View() + " " + m.loc.GetText(KeyValidating)
	case model.JobStateMetadataReady:
		return valueStyle.Render(title) + "\n" + okStyle.Render(m.loc.GetText(KeyReady))
	case model.JobStateDownloading, model.JobStateDownloaded:
		return valueStyle.Render(title) + "\n" + m.renderProgress(KeyDownloading)
	case model.JobStateTranscoding:
		return valueStyle.Render(title) + "\n" + m.renderProgress(KeyTranscoding)
	case model.JobStateCompleted:
		return okStyle.Render(IconOK+" "+m.loc.GetText(KeyCompleted)+": ") + valueStyle.Render(m.finalPath)
	case model.JobStateCancelled:
		return labelStyle.Render(IconStop + " " + m.loc.GetText(KeyCancelled))
	case model.JobStateInvalid, model.JobStateErrored:
		return m.renderError()
	}
	return ""
}

func (m Model) renderProgress(labelKey string) string {
	line := m.spinner.View() + " " + m.loc.GetText(labelKey)
	if !m.known {
		return line
	}
	line += MiddleDotSeparator + fmt.Sprintf(ProgressLabelFormat, m.percent)
	if m.speed != "" {
		line += MiddleDotSeparator + m.speed
	}
	return line + "\n" + m.progress.View()
}

func (m Model) renderError() string {
	head := m.loc.GetText(KeyFailed)
	if m.job.State == model.JobStateInvalid {
		head = m.loc.GetText(KeyInvalidURL)
	}
	out := errorStyle.Render(IconError + " " + head)
	if m.job.Error != nil {
		out += "\n" + errorStyle.Render(m.job.Error.Message)
		switch {
		case m.job.Error.IsUserInputProblem():
			out += "\n" + helpStyle.Render(m.loc.GetText(KeyDifferentURLHint))
		case m.job.Error.Retryable:
			out += "\n" + helpStyle.Render(m.loc.GetText(KeyRetryHint))
		}
	}
	return out
}

func (m Model) helpText() string {
	switch {
	case m.job.State.IsInFlight():
		return m.loc.GetText(KeyHelpActive)
	case m.job.State == model.JobStateMetadataReady:
		return m.loc.GetText(KeyHelpReady)
	case m.job.State.IsFinished():
		return m.loc.GetText(KeyHelpDone)
	}
	return m.loc.GetText(KeyHelpIdle)
}

// Run starts the program, attaches the bridge and blocks until the user quits
func Run(m Model, bridge *Bridge, opts ...tea.ProgramOption) error {
	p := tea.NewProgram(m, opts...)
	bridge.SetProgram(p)
	_, err := p.Run()
	return err
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

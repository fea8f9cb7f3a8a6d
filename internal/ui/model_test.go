package ui

import (
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ytget/yt-mp3/internal/model"
)

type fakeController struct {
	mu        sync.Mutex
	submitted []string
	started   []model.JobRequest
	cancels   int
	nextID    int
}

func (c *fakeController) Submit(url string) (model.Job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitted = append(c.submitted, url)
	c.nextID++
	return model.Job{ID: jobID(c.nextID), State: model.JobStateValidating, Request: model.JobRequest{URL: url}}, nil
}

func (c *fakeController) StartDownload(req model.JobRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = append(c.started, req)
	return nil
}

func (c *fakeController) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancels++
	return nil
}

func (c *fakeController) Current() model.Job { return model.Job{} }

func jobID(n int) string {
	return "job-" + string(rune('0'+n))
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

// run executes cmd and feeds the message back, as the program loop would
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	if msg := cmd(); msg != nil {
		m, _ = update(t, m, msg)
	}
	return m
}

func newTestModel(ctrl Controller) Model {
	return NewModel(ctrl, Config{Dir: "/music", Reveal: func(string) error { return nil }})
}

func readyJob(id string) model.Job {
	return model.Job{
		ID:      id,
		State:   model.JobStateMetadataReady,
		Title:   "Never Gonna Give You Up",
		Request: model.JobRequest{URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
	}
}

func TestNewModel_DefaultBitrate(t *testing.T) {
	m := newTestModel(&fakeController{})
	if m.Bitrate() != model.DefaultBitrate {
		t.Errorf("Bitrate() = %s, want %s", m.Bitrate(), model.DefaultBitrate)
	}

	m = NewModel(&fakeController{}, Config{Bitrate: model.Bitrate128})
	if m.Bitrate() != model.Bitrate128 {
		t.Errorf("Bitrate() = %s, want 128K", m.Bitrate())
	}
}

func TestBitrateCycling(t *testing.T) {
	m := newTestModel(&fakeController{})

	m, _ = update(t, m, key(tea.KeyTab))
	if m.Bitrate() != model.Bitrate160 {
		t.Errorf("after tab got %s, want 160K", m.Bitrate())
	}
	m, _ = update(t, m, key(tea.KeyShiftTab))
	m, _ = update(t, m, key(tea.KeyShiftTab))
	if m.Bitrate() != model.Bitrate256 {
		t.Errorf("after shift+tab twice got %s, want 256K", m.Bitrate())
	}

	m = NewModel(&fakeController{}, Config{Bitrate: model.Bitrate48})
	m, _ = update(t, m, key(tea.KeyTab))
	if m.Bitrate() != model.Bitrate320 {
		t.Errorf("tab should wrap to 320K, got %s", m.Bitrate())
	}
}

func TestSubmitEmptyInput(t *testing.T) {
	ctrl := &fakeController{}
	m := newTestModel(ctrl)

	m, cmd := update(t, m, key(tea.KeyEnter))
	if cmd != nil {
		t.Error("expected no command for empty input")
	}
	if !strings.Contains(m.View(), m.loc.GetText(KeyPleaseEnterURL)) {
		t.Error("view should ask for a URL")
	}
}

func TestSubmitThenDownload(t *testing.T) {
	ctrl := &fakeController{}
	m := newTestModel(ctrl)
	m.input.SetValue("https://youtu.be/dQw4w9WgXcQ")

	m, cmd := update(t, m, key(tea.KeyEnter))
	m = run(t, m, cmd)
	if len(ctrl.submitted) != 1 || ctrl.submitted[0] != "https://youtu.be/dQw4w9WgXcQ" {
		t.Fatalf("submitted = %v", ctrl.submitted)
	}
	if m.job.State != model.JobStateValidating {
		t.Errorf("state = %s, want Validating", m.job.State)
	}

	// enter is ignored while the lookup runs
	_, cmd = update(t, m, key(tea.KeyEnter))
	if cmd != nil {
		t.Error("enter must be ignored while in flight")
	}

	m, _ = update(t, m, StateMsg{Job: readyJob(jobID(1)), State: model.JobStateMetadataReady})
	view := m.View()
	if !strings.Contains(view, "Never Gonna Give You Up") {
		t.Errorf("view missing title:\n%s", view)
	}
	if !strings.Contains(view, m.loc.GetText(KeyReady)) {
		t.Errorf("view missing ready label:\n%s", view)
	}

	m, _ = update(t, m, key(tea.KeyTab))
	m, cmd = update(t, m, key(tea.KeyEnter))
	run(t, m, cmd)

	if len(ctrl.started) != 1 {
		t.Fatalf("StartDownload calls = %d, want 1", len(ctrl.started))
	}
	req := ctrl.started[0]
	if req.TargetBitrate != model.Bitrate160 || req.DestinationDirectory != "/music" {
		t.Errorf("unexpected request %+v", req)
	}
}

func TestProgressRendering(t *testing.T) {
	m := newTestModel(&fakeController{})
	job := readyJob(jobID(1))
	job.State = model.JobStateDownloading

	m, _ = update(t, m, StateMsg{Job: job, State: model.JobStateDownloading})
	m, _ = update(t, m, ProgressMsg{Job: job, Progress: model.ProgressSnapshot{
		Stage: model.StageDownloading, Percent: 42, PercentKnown: true, Throughput: "1.5 MB/s",
	}})

	view := m.View()
	for _, want := range []string{"42%", "1.5 MB/s", m.loc.GetText(KeyDownloading)} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	job.State = model.JobStateTranscoding
	m, _ = update(t, m, StateMsg{Job: job, State: model.JobStateTranscoding})
	m, _ = update(t, m, ProgressMsg{Job: job, Progress: model.ProgressSnapshot{Stage: model.StageTranscoding}})
	view = m.View()
	if strings.Contains(view, "42%") {
		t.Error("stage change should reset the displayed percent")
	}
	if strings.Contains(view, "MB/s") {
		t.Error("transcoding has no throughput")
	}
}

func TestSupersededJobEventsIgnored(t *testing.T) {
	m := newTestModel(&fakeController{})

	old := readyJob("old")
	old.State = model.JobStateDownloading
	m, _ = update(t, m, StateMsg{Job: old, State: model.JobStateDownloading})

	fresh := model.Job{ID: "new", State: model.JobStateValidating}
	m, _ = update(t, m, submittedMsg{job: fresh})

	old.State = model.JobStateCancelled
	m, _ = update(t, m, StateMsg{Job: old, State: model.JobStateCancelled})

	if m.job.ID != "new" || m.job.State != model.JobStateValidating {
		t.Errorf("job = %s/%s, want new/Validating", m.job.ID, m.job.State)
	}
}

func TestSubmittedAfterEventsDoesNotRegress(t *testing.T) {
	m := newTestModel(&fakeController{})

	m, _ = update(t, m, StateMsg{Job: readyJob(jobID(1)), State: model.JobStateMetadataReady})
	m, _ = update(t, m, submittedMsg{job: model.Job{ID: jobID(1), State: model.JobStateValidating}})

	if m.job.State != model.JobStateMetadataReady {
		t.Errorf("state = %s, want MetadataReady", m.job.State)
	}
}

func TestErrorRendering(t *testing.T) {
	m := newTestModel(&fakeController{})
	job := model.Job{
		ID:    jobID(1),
		State: model.JobStateErrored,
		Error: &model.ErrorInfo{
			Kind:      model.ErrorKindServiceError,
			Stage:     model.StageFetchingTitle,
			Message:   "service error, try again: 429",
			Retryable: true,
		},
	}

	m, _ = update(t, m, ErrorMsg{Job: job, Info: *job.Error})
	view := m.View()
	for _, want := range []string{"429", m.loc.GetText(KeyFailed), m.loc.GetText(KeyRetryHint)} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, m.loc.GetText(KeyDifferentURLHint)) {
		t.Error("transient errors should not ask for a different URL")
	}

	job.State = model.JobStateInvalid
	job.Error = &model.ErrorInfo{Kind: model.ErrorKindInvalidURL, Message: "not a single-video YouTube URL"}
	m, _ = update(t, m, ErrorMsg{Job: job, Info: *job.Error})
	view = m.View()
	if !strings.Contains(view, m.loc.GetText(KeyInvalidURL)) {
		t.Errorf("view missing invalid URL heading:\n%s", view)
	}
	if strings.Contains(view, m.loc.GetText(KeyRetryHint)) {
		t.Error("non-retryable errors should not offer a retry")
	}
	if !strings.Contains(view, m.loc.GetText(KeyDifferentURLHint)) {
		t.Errorf("user input errors should ask for a different URL:\n%s", view)
	}
}

func TestEscCancelsInFlightJob(t *testing.T) {
	ctrl := &fakeController{}
	m := newTestModel(ctrl)
	job := readyJob(jobID(1))
	job.State = model.JobStateDownloading
	m, _ = update(t, m, StateMsg{Job: job, State: model.JobStateDownloading})

	m, cmd := update(t, m, key(tea.KeyEsc))
	if cmd == nil {
		t.Fatal("expected cancel command")
	}
	if !strings.Contains(m.View(), m.loc.GetText(KeyStopping)) {
		t.Error("view should show stopping")
	}

	// a second esc while stopping does nothing
	_, second := update(t, m, key(tea.KeyEsc))
	if second != nil {
		t.Error("second esc should be ignored")
	}

	m = run(t, m, cmd)
	if ctrl.cancels != 1 {
		t.Errorf("Cancel calls = %d, want 1", ctrl.cancels)
	}

	job.State = model.JobStateCancelled
	m, _ = update(t, m, StateMsg{Job: job, State: model.JobStateCancelled})
	if !strings.Contains(m.View(), m.loc.GetText(KeyCancelled)) {
		t.Error("view should show cancelled")
	}
}

func TestEscQuitsWhenIdle(t *testing.T) {
	m := newTestModel(&fakeController{})
	_, cmd := update(t, m, key(tea.KeyEsc))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("esc on an idle screen should quit")
	}
}

func TestRevealCompletedFile(t *testing.T) {
	var revealed string
	m := NewModel(&fakeController{}, Config{Reveal: func(p string) error {
		revealed = p
		return errors.New("no file manager")
	}})

	job := readyJob(jobID(1))
	job.State = model.JobStateCompleted
	job.FinalFilePath = "/music/Never_Gonna_Give_You_Up.mp3"
	m, _ = update(t, m, CompletedMsg{Job: job, Path: job.FinalFilePath})
	m, _ = update(t, m, StateMsg{Job: job, State: model.JobStateCompleted})

	if !strings.Contains(m.View(), "Never_Gonna_Give_You_Up.mp3") {
		t.Error("view should show the saved path")
	}

	m, cmd := update(t, m, key(tea.KeyCtrlO))
	m = run(t, m, cmd)
	if revealed != job.FinalFilePath {
		t.Errorf("revealed %q", revealed)
	}
	if !strings.Contains(m.View(), m.loc.GetText(KeyErrorOpeningFile)) {
		t.Error("reveal failure should be shown")
	}
}

func TestBridgeBuffersUntilProgramAttached(t *testing.T) {
	b := NewBridge()
	b.OnStateChanged(model.Job{ID: "a"}, model.JobStateValidating)
	b.OnProgress(model.Job{ID: "a"}, model.ProgressSnapshot{})
	b.OnError(model.Job{ID: "a"}, model.ErrorInfo{})

	if len(b.pending) != 3 {
		t.Fatalf("pending = %d, want 3", len(b.pending))
	}
	if _, ok := b.pending[0].(StateMsg); !ok {
		t.Errorf("first buffered message is %T", b.pending[0])
	}
}

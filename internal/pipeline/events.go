package pipeline

import (
	"sync"

	"github.com/ytget/yt-mp3/internal/model"
)

type eventType int

const (
	eventStateChanged eventType = iota
	eventProgress
	eventCompleted
	eventError
)

// event is one queued listener notification carrying a job snapshot
type event struct {
	seq      int64
	typ      eventType
	job      model.Job
	state    model.JobState
	progress model.ProgressSnapshot
	path     string
	info     model.ErrorInfo
}

// eventQueue is an unbounded FIFO so publishers never block on slow listeners
type eventQueue struct {
	mu      sync.Mutex
	nextSeq int64
	events  []event
	signal  chan struct{}
	closed  bool
}

func newEventQueue() *eventQueue {
	return &eventQueue{signal: make(chan struct{}, 1)}
}

// push appends one event and assigns its sequence number
func (q *eventQueue) push(e event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.nextSeq++
	e.seq = q.nextSeq
	q.events = append(q.events, e)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// drain removes and returns everything queued so far
func (q *eventQueue) drain() ([]event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	q.events = nil
	return out, q.closed
}

func (q *eventQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// dispatch delivers events to listeners until the queue is closed and empty
func dispatch(q *eventQueue, listeners []Listener, done chan<- struct{}) {
	defer close(done)
	for {
		batch, closed := q.drain()
		for _, e := range batch {
			for _, l := range listeners {
				deliver(l, e)
			}
		}
		if closed && len(batch) == 0 {
			return
		}
		if len(batch) == 0 {
			<-q.signal
		}
	}
}

func deliver(l Listener, e event) {
	switch e.typ {
	case eventStateChanged:
		l.OnStateChanged(e.job, e.state)
	case eventProgress:
		l.OnProgress(e.job, e.progress)
	case eventCompleted:
		l.OnCompleted(e.job, e.path)
	case eventError:
		l.OnError(e.job, e.info)
	}
}

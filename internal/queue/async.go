package queue

import (
    "context"
    "errors"
    "sync"
    "time"

    "github.com/rs/zerolog"
)

var (
    // ErrBufferFull is returned when the event buffer has no room; the
    // event is dropped.
    ErrBufferFull = errors.New("alert event buffer full")
    // ErrPublisherClosed is returned after Close.
    ErrPublisherClosed = errors.New("alert publisher closed")
)

// EventSink delivers one event to the broker.  *Publisher implements it.
type EventSink interface {
    PublishAlertRaised(ctx context.Context, ev AlertRaisedEvent) error
    Close() error
}

// AsyncPublisher decouples callers from the broker: PublishAlertRaised
// only enqueues, and a single goroutine drains the buffer into the sink in
// order.  A stalled or unreachable broker therefore never delays the
// caller; events beyond the buffer are dropped with a warning.
type AsyncPublisher struct {
    sink    EventSink
    events  chan AlertRaisedEvent
    timeout time.Duration // per-event delivery deadline
    log     zerolog.Logger

    ctx    context.Context // cancelled when Close gives up draining
    cancel context.CancelFunc
    done   chan struct{}

    mu     sync.RWMutex
    closed bool
}

// NewAsyncPublisher starts the drain goroutine.  buffer < 1 is treated as 1.
func NewAsyncPublisher(sink EventSink, buffer int, log zerolog.Logger) *AsyncPublisher {
    if buffer < 1 {
        buffer = 1
    }
    ctx, cancel := context.WithCancel(context.Background())
    a := &AsyncPublisher{
        sink:    sink,
        events:  make(chan AlertRaisedEvent, buffer),
        timeout: DefaultDialTimeout,
        log:     log.With().Str("component", "alert-publisher").Logger(),
        ctx:     ctx,
        cancel:  cancel,
        done:    make(chan struct{}),
    }
    go a.run()
    return a
}

// PublishAlertRaised enqueues ev without waiting for the broker.  ctx is
// not used past the call; delivery runs on its own deadline.
func (a *AsyncPublisher) PublishAlertRaised(_ context.Context, ev AlertRaisedEvent) error {
    a.mu.RLock()
    defer a.mu.RUnlock()
    if a.closed {
        return ErrPublisherClosed
    }
    select {
    case a.events <- ev:
        return nil
    default:
        a.log.Warn().Uint64("alert_id", ev.AlertID).Msg("alert event buffer full; event dropped")
        return ErrBufferFull
    }
}

func (a *AsyncPublisher) run() {
    defer close(a.done)
    for ev := range a.events {
        if a.ctx.Err() != nil {
            a.log.Warn().Uint64("alert_id", ev.AlertID).Msg("shutting down; event dropped")
            continue
        }
        ctx, cancel := context.WithTimeout(a.ctx, a.timeout)
        if err := a.sink.PublishAlertRaised(ctx, ev); err != nil {
            a.log.Warn().Err(err).Uint64("alert_id", ev.AlertID).Msg("alert event not published")
        }
        cancel()
    }
}

// Close stops accepting events, drains what is buffered for up to grace,
// then drops the rest and closes the sink.
func (a *AsyncPublisher) Close(grace time.Duration) error {
    a.mu.Lock()
    if a.closed {
        a.mu.Unlock()
        return nil
    }
    a.closed = true
    close(a.events)
    a.mu.Unlock()

    t := time.NewTimer(grace)
    defer t.Stop()
    select {
    case <-a.done:
    case <-t.C:
        a.cancel()
        <-a.done
    }
    a.cancel()
    return a.sink.Close()
}

package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"
)

// DefaultDialTimeout bounds the TCP connect and the AMQP handshake.
const DefaultDialTimeout = 3 * time.Second

// Publisher publishes alert events to RabbitMQ over one long-lived
// connection.  The connection is dialed lazily and re-dialed after the
// broker closes it.  A Publisher is safe for concurrent use, but a call
// may wait up to DialTimeout for a stalled broker; request paths should
// go through AsyncPublisher.
type Publisher struct {
    url string
    log zerolog.Logger

    // DialTimeout caps connection setup; a nearer ctx deadline wins.
    DialTimeout time.Duration

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewPublisher returns a Publisher for the given AMQP URL.  No connection
// is made until the first publish.
func NewPublisher(url string, log zerolog.Logger) *Publisher {
    return &Publisher{
        url:         url,
        log:         log.With().Str("component", "alert-publisher").Logger(),
        DialTimeout: DefaultDialTimeout,
    }
}

// PublishAlertRaised publishes ev to the alerts.raised queue as a
// persistent JSON message.  Errors are logged and returned so the caller
// can choose to ignore them.
func (p *Publisher) PublishAlertRaised(ctx context.Context, ev AlertRaisedEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channelLocked(ctx)
    if err != nil {
        p.log.Warn().Err(err).Msg("rabbitmq: connect failed")
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx,
        "",               // default exchange
        AlertRaisedQueue, // routing key = queue name
        false,            // mandatory
        false,            // immediate
        pub,
    ); err != nil {
        p.log.Warn().Err(err).Uint64("alert_id", ev.AlertID).Msg("rabbitmq: publish failed")
        p.resetLocked()
        return err
    }
    return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.resetLocked()
    return nil
}

func (p *Publisher) channelLocked(ctx context.Context) (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
        return p.ch, nil
    }
    p.resetLocked()

    timeout, err := p.dialTimeout(ctx)
    if err != nil {
        return nil, fmt.Errorf("dial: %w", err)
    }
    // DefaultDial also sets a deadline on the socket for the handshake, so
    // a listener that accepts and never speaks AMQP fails after timeout.
    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Dial:      amqp.DefaultDial(timeout),
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
    })
    if err != nil {
        return nil, fmt.Errorf("dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("channel open: %w", err)
    }
    // Durable so messages survive broker restarts; declare is idempotent.
    if _, err := ch.QueueDeclare(AlertRaisedQueue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, fmt.Errorf("queue declare: %w", err)
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

// dialTimeout returns DialTimeout shortened to the ctx deadline, or the
// ctx error when nothing is left.
func (p *Publisher) dialTimeout(ctx context.Context) (time.Duration, error) {
    if err := ctx.Err(); err != nil {
        return 0, err
    }
    t := p.DialTimeout
    if t <= 0 {
        t = DefaultDialTimeout
    }
    if dl, ok := ctx.Deadline(); ok {
        left := time.Until(dl)
        if left <= 0 {
            return 0, context.DeadlineExceeded
        }
        if left < t {
            t = left
        }
    }
    return t, nil
}

func (p *Publisher) resetLocked() {
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}

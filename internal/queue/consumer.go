package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"
)

// AuditConsumer listens to the alerts.raised queue and appends one line
// per alert to an audit log file (logs/alerts.log by default).
type AuditConsumer struct {
    URL     string
    LogPath string
    Log     zerolog.Logger
}

// Run connects to RabbitMQ, declares the alerts.raised queue (durable) and
// consumes until ctx is cancelled.  Broker failures trigger a reconnect
// with exponential backoff capped at 30s; a message that cannot be handled
// is rejected without requeue so the consumer keeps going.
func (c *AuditConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.Warn().Err(err).Dur("retry_in", backoff).Msg("alert-audit: failed to dial broker")
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Log.Warn().Err(err).Msg("alert-audit: consume loop ended; reconnecting")
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *AuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.Warn().Err(err).Msg("alert-audit: set QoS failed")
    }
    if _, err := ch.QueueDeclare(AlertRaisedQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(AlertRaisedQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handleMessage(d.Body); err != nil {
                c.Log.Error().Err(err).Msg("alert-audit: handle message failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *AuditConsumer) handleMessage(body []byte) error {
    var ev AlertRaisedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    path := c.LogPath
    if path == "" {
        path = filepath.Join("logs", "alerts.log")
    }
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(formatAuditLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func formatAuditLine(ev AlertRaisedEvent) string {
    rules := make([]string, 0, len(ev.Violations))
    for _, v := range ev.Violations {
        rules = append(rules, v.Rule)
    }
    return fmt.Sprintf("[%s] Alert raised | alert_id=%d | patient=%s | type=\"%s\" | signal=%s | value=%g | rules=[%s] | message=\"%s\"\n",
        ev.RecordedAt, ev.AlertID, ev.PatientID, ev.AlertType, ev.SignalStatus, ev.Value, strings.Join(rules, ","), ev.Message)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

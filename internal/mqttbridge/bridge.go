// Package mqttbridge feeds wearable frames published over MQTT into the
// same ingestion path as POST /v1/device/readings.
package mqttbridge

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    mqtt "github.com/eclipse/paho.mqtt.golang"
    "github.com/google/uuid"
    "github.com/rs/zerolog"

    "github.com/iliyamo/maternal-vitals/internal/config"
    "github.com/iliyamo/maternal-vitals/internal/service"
)

// ErrTopicMismatch rejects a frame whose payload pid names a different
// patient than its topic.
var ErrTopicMismatch = errors.New("payload pid does not match topic")

// Ingestor is the part of service.TelemetryIngestor the bridge needs.
type Ingestor interface {
    Ingest(ctx context.Context, req service.IngestRequest) (service.IngestOutcome, error)
}

// Bridge subscribes to device topics and ingests each message.  Topics
// follow vitals/<pid>/readings; a payload without a pid takes it from the
// topic, and a payload naming another pid is dropped.
type Bridge struct {
    cfg      config.MQTTConfig
    ingestor Ingestor
    log      zerolog.Logger
    timeout  time.Duration // per-message ingest deadline
}

func New(cfg config.MQTTConfig, in Ingestor, log zerolog.Logger) *Bridge {
    return &Bridge{
        cfg:      cfg,
        ingestor: in,
        log:      log.With().Str("component", "mqtt-bridge").Logger(),
        timeout:  5 * time.Second,
    }
}

func (b *Bridge) clientOptions() *mqtt.ClientOptions {
    opts := mqtt.NewClientOptions()
    opts.AddBroker(b.cfg.BrokerURL)
    // unique per process so two bridges never kick each other off
    opts.SetClientID(fmt.Sprintf("%s-%s", b.cfg.ClientID, uuid.New().String()[:8]))
    opts.SetAutoReconnect(true)
    opts.SetMaxReconnectInterval(30 * time.Second)
    opts.SetKeepAlive(60 * time.Second)
    opts.SetPingTimeout(10 * time.Second)
    opts.SetConnectTimeout(b.cfg.ConnectTimeout)
    opts.SetCleanSession(true)
    opts.SetOrderMatters(false)
    if b.cfg.Username != "" {
        opts.SetUsername(b.cfg.Username)
        opts.SetPassword(b.cfg.Password)
    }
    opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
        b.log.Warn().Err(err).Msg("connection lost")
    })
    // resubscribe on every (re)connect; clean sessions drop subscriptions
    opts.SetOnConnectHandler(func(c mqtt.Client) {
        tok := c.Subscribe(b.cfg.Topic, b.cfg.QoS, b.handleMessage)
        if tok.Wait() && tok.Error() != nil {
            b.log.Error().Err(tok.Error()).Str("topic", b.cfg.Topic).Msg("subscribe failed")
            return
        }
        b.log.Info().Str("broker", b.cfg.BrokerURL).Str("topic", b.cfg.Topic).Msg("subscribed")
    })
    opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
        b.log.Info().Msg("reconnecting")
    })
    return opts
}

// Run connects and blocks until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
    client := mqtt.NewClient(b.clientOptions())
    tok := client.Connect()
    if !tok.WaitTimeout(b.cfg.ConnectTimeout) {
        return fmt.Errorf("mqtt connect to %s: timed out", b.cfg.BrokerURL)
    }
    if err := tok.Error(); err != nil {
        return fmt.Errorf("mqtt connect to %s: %w", b.cfg.BrokerURL, err)
    }
    <-ctx.Done()
    client.Disconnect(250)
    b.log.Info().Msg("bridge stopped")
    return nil
}

func (b *Bridge) handleMessage(_ mqtt.Client, msg mqtt.Message) {
    ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
    defer cancel()
    b.handle(ctx, msg.Topic(), msg.Payload())
}

// handle ingests one payload and logs the result.  Returns the error for
// tests; MQTT has no reply channel.
func (b *Bridge) handle(ctx context.Context, topic string, payload []byte) error {
    req, err := service.DecodeIngestRequest(payload)
    if err != nil {
        b.log.Warn().Str("topic", topic).Msg("malformed payload dropped")
        return err
    }
    if topicPID := pidFromTopic(topic); topicPID != "" {
        switch {
        case req.PID == nil || strings.TrimSpace(*req.PID) == "":
            req.PID = &topicPID
        case strings.TrimSpace(*req.PID) != topicPID:
            b.log.Warn().Str("topic", topic).Str("payload_pid", *req.PID).Msg("pid does not match topic; frame rejected")
            return ErrTopicMismatch
        }
    }

    out, err := b.ingestor.Ingest(ctx, req)
    switch {
    case err == nil:
    case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrUnauthorizedDevice):
        b.log.Warn().Err(err).Str("topic", topic).Msg("frame rejected")
        return err
    default:
        b.log.Error().Err(err).Str("topic", topic).Msg("ingest failed")
        return err
    }

    ev := b.log.Info().Str("pid", out.PID).Str("signal_status", out.SignalStatus).Bool("stored", out.Stored)
    if out.Alert != nil {
        ev = ev.Uint64("alert_id", out.Alert.ID)
    }
    ev.Msg("frame ingested")
    return nil
}

// pidFromTopic returns the middle segment of vitals/<pid>/readings, or ""
// for any other shape.
func pidFromTopic(topic string) string {
    parts := strings.Split(topic, "/")
    if len(parts) != 3 || parts[1] == "+" || parts[1] == "#" {
        return ""
    }
    return strings.TrimSpace(parts[1])
}

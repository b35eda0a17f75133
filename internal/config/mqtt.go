package config

import "time"

// MQTTConfig configures the device bridge that subscribes to sensor frames.
type MQTTConfig struct {
    BrokerURL      string
    ClientID       string
    Username       string
    Password       string
    Topic          string
    QoS            byte
    ConnectTimeout time.Duration
}

func LoadMQTTConfig() MQTTConfig {
    qos := envInt("MQTT_QOS", 1)
    if qos < 0 || qos > 2 {
        qos = 1
    }
    return MQTTConfig{
        BrokerURL:      envStr("MQTT_BROKER_URL", "tcp://localhost:1883"),
        ClientID:       envStr("MQTT_CLIENT_ID", "vitals-bridge"),
        Username:       envStr("MQTT_USERNAME", ""),
        Password:       envStr("MQTT_PASSWORD", ""),
        Topic:          envStr("MQTT_TOPIC", "vitals/+/readings"),
        QoS:            byte(qos),
        ConnectTimeout: envDur("MQTT_CONNECT_TIMEOUT", 10*time.Second),
    }
}

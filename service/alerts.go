package service

import (
	"context"
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/hardhat/config"
)

// Alert reports an image in which at least one head has no helmet.
type Alert struct {
	Checksum  string         `json:"checksum"`
	Heads     int            `json:"heads"`
	Counts    map[string]int `json:"counts"`
	Timestamp time.Time      `json:"timestamp"`
}

// AlertPublisher delivers compliance alerts.
type AlertPublisher interface {
	Publish(ctx context.Context, alert Alert) error
	Close()
}

// NewMQTTClient connects to the configured brokers.
//
// A failed first connection is returned as an error. Later disconnects are
// logged and retried by the client.
func NewMQTTClient(c config.MQTTConfig, logger *zap.Logger) (mqtt.Client, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("mqtt: no brokers configured")
	}
	logger.Info("connecting to mqtt", zap.Strings("brokers", c.Brokers))

	opts := mqtt.NewClientOptions().
		SetClientID(c.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(false).
		SetConnectRetryInterval(c.ConnectRetryInterval).
		SetKeepAlive(c.KeepAlive).
		SetConnectTimeout(c.ConnectTimeout).
		SetUsername(c.Username).
		SetPassword(c.Password)
	for _, broker := range c.Brokers {
		opts.AddBroker(broker)
	}

	opts.OnConnect = func(mqtt.Client) {
		logger.Info("connected to mqtt broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Error("mqtt connection lost, reconnecting", zap.Error(err))
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(c.ConnectTimeout) {
		return nil, errors.Errorf("mqtt: connect timed out after %s", c.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrap(err, "mqtt: connect failed")
	}
	return client, nil
}

// MQTTPublisher publishes alerts as JSON to one topic.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	qos    byte
}

var _ AlertPublisher = (*MQTTPublisher)(nil)

// NewMQTTPublisher returns a publisher on an already connected client.
func NewMQTTPublisher(client mqtt.Client, topic string, qos byte) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic, qos: qos}
}

// Publish sends alert and waits for delivery or ctx.
func (m *MQTTPublisher) Publish(ctx context.Context, alert Alert) error {
	if !m.client.IsConnected() {
		return errors.New("mqtt: client is not connected")
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		return errors.Wrap(err, "failed to encode alert")
	}

	token := m.client.Publish(m.topic, m.qos, false, payload)
	select {
	case <-token.Done():
		return errors.Wrapf(token.Error(), "mqtt: publish to %s", m.topic)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects, allowing 250ms for in-flight messages.
func (m *MQTTPublisher) Close() {
	m.client.Disconnect(250)
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string
	Timeout  time.Duration
}

// Publisher отправляет уведомления в MQTT, топик <Topic>/<order id>.
type Publisher struct {
	log     *slog.Logger
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

func NewPublisher(log *slog.Logger, cfg MQTTConfig) (*Publisher, error) {
	const op = "notify.mqtt.NewPublisher"

	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(cfg.Timeout).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn("mqtt connection lost", slog.String("error", err.Error()))
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("%s: connect to %s: %w", op, cfg.Broker, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%s: connect to %s: %w", op, cfg.Broker, err)
	}

	return newPublisher(log, client, cfg), nil
}

func newPublisher(log *slog.Logger, client mqtt.Client, cfg MQTTConfig) *Publisher {
	return &Publisher{log: log, client: client, topic: cfg.Topic, timeout: cfg.Timeout}
}

func (p *Publisher) NotifyRejection(ctx context.Context, notice RejectionNotice) error {
	const op = "notify.mqtt.NotifyRejection"

	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	topic := p.topic + "/" + strconv.FormatInt(notice.OrderID, 10)
	token := p.client.Publish(topic, 1, false, payload)

	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	case <-time.After(p.timeout):
		return fmt.Errorf("%s: %w", op, ErrPublishTimeout)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("%s: publish %s: %w", op, topic, err)
	}

	p.log.Debug("rejection published", slog.String("topic", topic))
	return nil
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

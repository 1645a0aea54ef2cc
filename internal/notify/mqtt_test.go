package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doneToken struct {
	err error
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Error() error                   { return t.err }
func (t *doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// fakeClient реализует только Publish, остальные методы не вызываются.
type fakeClient struct {
	mqtt.Client
	topic   string
	qos     byte
	payload []byte
	err     error
}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.topic = topic
	c.qos = qos
	c.payload = payload.([]byte)
	return &doneToken{err: c.err}
}

func TestPublisher_NotifyRejection(t *testing.T) {
	client := &fakeClient{}
	p := newPublisher(slog.Default(), client, MQTTConfig{Topic: "autoservice/rejections", Timeout: time.Second})

	notice := RejectionNotice{OrderID: 42, Reason: "scratched paint", AssigneeIDs: []int64{3}}
	require.NoError(t, p.NotifyRejection(context.Background(), notice))

	assert.Equal(t, "autoservice/rejections/42", client.topic)
	assert.Equal(t, byte(1), client.qos)

	var got RejectionNotice
	require.NoError(t, json.Unmarshal(client.payload, &got))
	assert.Equal(t, "scratched paint", got.Reason)
	assert.Equal(t, []int64{3}, got.AssigneeIDs)
}

func TestPublisher_NotifyRejection_Error(t *testing.T) {
	client := &fakeClient{err: errors.New("not connected")}
	p := newPublisher(slog.Default(), client, MQTTConfig{Topic: "t", Timeout: time.Second})

	err := p.NotifyRejection(context.Background(), RejectionNotice{OrderID: 1})
	assert.ErrorContains(t, err, "not connected")
}

// internal/publish/mqtt.go
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
)

// MQTTConfig is the broker side of the publisher.
type MQTTConfig struct {
	BrokerURL   string
	ClientID    string
	TopicPrefix string
	QoS         byte
}

// MQTT publishes values as retained messages under
// <prefix>/<name> or <prefix>/ch<n>/<name>. Scalars go out as plain
// text, arrays as a JSON object with an explicit element count.
type MQTT struct {
	cm     *autopaho.ConnectionManager
	prefix string
	qos    byte
}

// NewMQTT connects (and keeps reconnecting) to the broker.
func NewMQTT(ctx context.Context, cfg MQTTConfig) (*MQTT, error) {
	if cfg.BrokerURL == "" {
		return nil, errors.New("publish: broker url required")
	}
	u, err := url.Parse(cfg.BrokerURL)
	if err != nil {
		return nil, err
	}

	cm, err := autopaho.NewConnection(ctx, autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{u},
		KeepAlive:                     30,
		SessionExpiryInterval:         60,
		CleanStartOnInitialConnection: true,
		ClientConfig: paho.ClientConfig{
			ClientID: cfg.ClientID,
		},
	})
	if err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := cm.AwaitConnection(waitCtx); err != nil {
		return nil, err
	}

	return &MQTT{cm: cm, prefix: cfg.TopicPrefix, qos: cfg.QoS}, nil
}

func (m *MQTT) Close(ctx context.Context) error {
	return m.cm.Disconnect(ctx)
}

func (m *MQTT) publish(key string, payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := m.cm.Publish(ctx, &paho.Publish{
		Topic:   m.prefix + "/" + key,
		QoS:     m.qos,
		Retain:  true,
		Payload: payload,
	})
	return err
}

func (m *MQTT) PublishInt(name string, ch int, v int64) error {
	return m.publish(Key(name, ch), []byte(strconv.FormatInt(v, 10)))
}

func (m *MQTT) PublishFloat(name string, ch int, v float64) error {
	return m.publish(Key(name, ch), []byte(strconv.FormatFloat(v, 'g', -1, 64)))
}

func (m *MQTT) PublishString(name string, ch int, v string) error {
	return m.publish(Key(name, ch), []byte(v))
}

func (m *MQTT) PublishFloatArray(name string, ch int, values []float32, count int) error {
	if count > len(values) {
		count = len(values)
	}
	body, err := json.Marshal(struct {
		Count  int       `json:"count"`
		Values []float32 `json:"values"`
	}{Count: count, Values: values[:count]})
	if err != nil {
		return err
	}
	return m.publish(Key(name, ch), body)
}

package mqtt

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/rosterplan/core/monitoring"
	"github.com/kilianp07/rosterplan/infra/logger"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// PahoClient publishes payloads through Eclipse Paho with retries.
type PahoClient struct {
	cli        pahoClient
	qos        byte
	retain     bool
	log        logger.Logger
	maxRetries int
	backoff    time.Duration
}

// NewPahoClient connects to the broker described by cfg.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_client")
	opts.OnConnect = func(paho.Client) { log.Infof("connected to %s", cfg.Broker) }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("connection lost: %v", err) }
	opts.OnReconnecting = func(paho.Client, *paho.ClientOptions) { log.Warnf("reconnecting to %s", cfg.Broker) }

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, token.Error())
	}
	return &PahoClient{
		cli:        c,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		log:        log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
	}, nil
}

func (p *PahoClient) retryPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.backoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, uint64(p.maxRetries))
}

// Publish sends payload to topic, retrying with exponential backoff. A
// publish that still fails is reported to the monitor.
func (p *PahoClient) Publish(topic string, payload []byte) error {
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		token.Wait()
		if err := token.Error(); err != nil {
			p.log.Errorf("publish to %s, attempt %d: %v", topic, attempt, err)
			return err
		}
		return nil
	}, p.retryPolicy())
	if err != nil {
		monitoring.CaptureException(err, map[string]string{"module": "mqtt", "topic": topic})
		return err
	}
	p.log.Debugf("published %d bytes to %s", len(payload), topic)
	return nil
}

// Disconnect closes the connection after a short quiesce period.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}

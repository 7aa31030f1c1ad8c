package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// DefaultTopicPrefix is used when Config.TopicPrefix is empty.
const DefaultTopicPrefix = "rosterplan"

// Auth methods accepted by Config.AuthMethod.
const (
	AuthPassword    = "username_password"
	AuthCertificate = "certificate"
	AuthBoth        = "both"
)

// Config describes the broker connection used to announce rosters.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	AuthMethod  string `json:"auth_method"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
	Retain      bool   `json:"retain"`

	UseTLS     bool   `json:"use_tls"`
	ClientCert string `json:"client_cert"`
	ClientKey  string `json:"client_key"`
	CABundle   string `json:"ca_bundle"`

	LWTTopic   string `json:"lwt_topic"`
	LWTPayload string `json:"lwt_payload"`
	LWTQoS     byte   `json:"lwt_qos"`
	LWTRetain  bool   `json:"lwt_retain"`

	MaxRetries       int `json:"max_retries"`
	BackoffMS        int `json:"backoff_ms"`
	ConnectTimeoutMS int `json:"connect_timeout_ms"`

	TLSConfig *tls.Config `json:"-"`
}

// SetDefaults fills the optional fields.
func (c *Config) SetDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = DefaultTopicPrefix
	}
	if c.ClientID == "" {
		c.ClientID = "rosterplan"
	}
	if c.AuthMethod == "" {
		c.AuthMethod = AuthPassword
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
	if c.ConnectTimeoutMS <= 0 {
		c.ConnectTimeoutMS = 5000
	}
}

// Validate checks the configuration when publishing is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	var errs []error
	if c.Broker == "" {
		errs = append(errs, errors.New("broker is required"))
	}
	if c.QoS > 2 || c.LWTQoS > 2 {
		errs = append(errs, errors.New("qos must be 0, 1 or 2"))
	}
	switch c.AuthMethod {
	case "", AuthPassword, AuthCertificate, AuthBoth:
	default:
		errs = append(errs, fmt.Errorf("unknown auth_method %q", c.AuthMethod))
	}
	return errors.Join(errs...)
}

// RosterTopic is the topic finished rosters are announced on.
func (c Config) RosterTopic() string {
	prefix := strings.Trim(c.TopicPrefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return prefix + "/roster/published"
}

func (c Config) usesPassword() bool {
	return c.AuthMethod == "" || c.AuthMethod == AuthPassword || c.AuthMethod == AuthBoth
}

// NewClientOptions maps c onto Paho client options.
func NewClientOptions(c Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().
		AddBroker(c.Broker).
		SetClientID(c.ClientID).
		SetAutoReconnect(true)
	if c.ConnectTimeoutMS > 0 {
		opts.SetConnectTimeout(time.Duration(c.ConnectTimeoutMS) * time.Millisecond)
	}
	if c.usesPassword() {
		if c.Username != "" {
			opts.SetUsername(c.Username)
		}
		if c.Password != "" {
			opts.SetPassword(c.Password)
		}
	}
	if c.UseTLS {
		tlsCfg, err := c.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if c.LWTTopic != "" {
		opts.SetWill(c.LWTTopic, c.LWTPayload, c.LWTQoS, c.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig returns TLSConfig when set, otherwise builds a mutual TLS
// config from the certificate files.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, errors.New("tls requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load client certificate: %w", err)
	}
	ca, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(ca) {
		return nil, fmt.Errorf("ca bundle %s holds no certificates", c.CABundle)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/biqute/qtics/config"
	"github.com/biqute/qtics/experiment"
)

// Maximum payload size for published messages (1MB). Aligns with typical
// broker limits.
const maxPayloadSize = 1 << 20

// Client publishes live experiment telemetry over MQTT: retained run
// status for dashboards and fire-and-forget monitor samples.
//
// It satisfies experiment.StatusPublisher and experiment.SampleRecorder,
// so one connected Client can be handed to an Experiment via SetPublisher
// and to its monitors via SetRecorder.
//
// All methods are safe for concurrent use.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig
	topics Topics

	connected bool
	connMu    sync.RWMutex

	logger   Logger
	loggerMu sync.RWMutex
}

// Logger is the optional logging hook for asynchronous failures.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Connect establishes a connection to the MQTT broker described by cfg.
//
// The client announces itself on the system status topic, registers a
// Last Will so an unexpected death is visible to subscribers, and
// reconnects automatically with exponential backoff.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	topics := Topics{Base: cfg.BaseTopic}
	opts := buildClientOptions(cfg)
	configureLWT(opts, topics, cfg.Broker.ClientID)

	c := &Client{
		cfg:    cfg,
		topics: topics,
	}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleDisconnect(err)
	})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The OnConnect handler runs asynchronously and may not have fired
	// yet; mark connected here so IsConnected holds after Connect returns.
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	return c, nil
}

func (c *Client) handleConnect() {
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	payload := buildStatusPayload(c.cfg.Broker.ClientID, "online", "")
	c.client.Publish(c.topics.SystemStatus(), byte(c.cfg.QoS), true, payload)
}

func (c *Client) handleDisconnect(err error) {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	if logger := c.getLogger(); logger != nil {
		logger.Warn("broker connection lost", "error", err)
	}
}

// Close publishes a graceful offline status and disconnects.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	if c.IsConnected() {
		payload := buildStatusPayload(c.cfg.Broker.ClientID, "offline", "graceful_shutdown")
		token := c.client.Publish(c.topics.SystemStatus(), byte(c.cfg.QoS), true, payload)
		token.WaitTimeout(defaultPublishTimeout)
	}

	c.client.Disconnect(defaultDisconnectQuiesce)

	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	return nil
}

// IsConnected returns the last known connection state.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected && c.client != nil && c.client.IsConnected()
}

// HealthCheck verifies the broker connection is alive.
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("telemetry health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// SetLogger sets a logger for asynchronous failures (lost connections,
// dropped samples). If not set, those are silently ignored.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// PublishStatus publishes an experiment status transition as retained
// JSON on the experiment's status topic, so late subscribers immediately
// see the current run state.
func (c *Client) PublishStatus(ctx context.Context, status experiment.Status) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}
	return c.publish(ctx, c.topics.ExperimentStatus(status.Experiment), payload, byte(c.cfg.QoS), true)
}

// RecordSample publishes one monitor reading on its sample topic at QoS 0.
// Samples are high-rate and disposable; failures are logged, never
// propagated into the monitor loop.
func (c *Client) RecordSample(monitor, name string, value float64, unit string) {
	sample := struct {
		Monitor string  `json:"monitor"`
		Name    string  `json:"name"`
		Value   float64 `json:"value"`
		Unit    string  `json:"unit,omitempty"`
		Time    string  `json:"time"`
	}{monitor, name, value, unit, time.Now().UTC().Format(time.RFC3339)}

	payload, err := json.Marshal(sample)
	if err != nil {
		if logger := c.getLogger(); logger != nil {
			logger.Warn("encoding sample failed", "monitor", monitor, "name", name, "error", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultPublishTimeout)
	defer cancel()

	if err := c.publish(ctx, c.topics.MonitorSample(monitor, name), payload, 0, false); err != nil {
		if logger := c.getLogger(); logger != nil {
			logger.Warn("publishing sample failed", "monitor", monitor, "name", name, "error", err)
		}
	}
}

// Publish sends a payload to an arbitrary topic. Most callers want
// PublishStatus or RecordSample instead.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte, qos byte, retained bool) error {
	return c.publish(ctx, topic, payload, qos, retained)
}

func (c *Client) publish(ctx context.Context, topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes",
			ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrPublishFailed, ctx.Err())
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("%w: %w", ErrPublishFailed, err)
		}
		return nil
	case <-time.After(defaultPublishTimeout):
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
}

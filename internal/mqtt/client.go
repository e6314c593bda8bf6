package mqtt

import (
	"errors"
	"sync"
	"time"

	"poolctl/internal/logger"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Fixed reconnect cadence. The broker link is low stakes, so a short flat
// interval beats exponential backoff here.
const (
	reconnectInterval = 2 * time.Second
	connectTimeout    = 8 * time.Second
	disconnectQuiesce = 250 // ms
	defaultQOS        = 0
)

// ErrNotConnected is returned by Publish when the broker link is down.
// Commands are fire-and-forget: nothing is queued for later delivery.
var ErrNotConnected = errors.New("mqtt: not connected to broker")

// PahoClient is the subset of the paho client the adapter uses, extracted
// so tests can substitute a mock.
type PahoClient interface {
	Connect() paho.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Disconnect(quiesce uint)
	IsConnected() bool
}

// Config carries broker connection settings and the state topics to
// subscribe to on every (re)connect.
type Config struct {
	BrokerURL   string
	Username    string
	Password    string
	StateTopics []string
}

// Client owns the broker connection lifecycle and raw message delivery.
// It emits three event kinds: connected (after all subscriptions succeed),
// disconnected, and message.
type Client struct {
	cfg Config
	log *logger.Logger

	mu             sync.Mutex
	client         PahoClient
	closed         bool
	onConnected    func()
	onDisconnected func(err error)
	onMessage      func(topic string, payload []byte)

	newClient func(opts *paho.ClientOptions) PahoClient
}

// NewClient builds an adapter for the given broker settings.
func NewClient(cfg Config, log *logger.Logger) *Client {
	return &Client{
		cfg: cfg,
		log: log,
		newClient: func(opts *paho.ClientOptions) PahoClient {
			return paho.NewClient(opts)
		},
	}
}

// OnConnected registers the handler fired once the handshake and all state
// subscriptions have succeeded. Fired again after every reconnect.
func (c *Client) OnConnected(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnected = fn
}

// OnDisconnected registers the handler fired on every connection drop.
func (c *Client) OnDisconnected(fn func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnected = fn
}

// OnMessage registers the handler for every inbound state-topic message.
func (c *Client) OnMessage(fn func(topic string, payload []byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = fn
}

// Connect establishes the broker connection. Failures do not surface to the
// caller: paho keeps retrying at a fixed interval until the broker accepts
// or Disconnect is called.
func (c *Client) Connect() {
	opts := paho.NewClientOptions().
		AddBroker(c.cfg.BrokerURL).
		SetClientID("poolctl-" + uuid.NewString()[:8]).
		SetUsername(c.cfg.Username).
		SetPassword(c.cfg.Password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(reconnectInterval).
		SetMaxReconnectInterval(reconnectInterval).
		SetConnectTimeout(connectTimeout).
		SetOrderMatters(true)

	opts.SetOnConnectHandler(func(_ paho.Client) {
		c.subscribeAll()
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		c.log.Warnw("mqtt_connection_lost", "err", err)
		c.emitDisconnected(err)
	})

	c.mu.Lock()
	c.closed = false
	c.client = c.newClient(opts)
	client := c.client
	c.mu.Unlock()

	c.log.Infow("mqtt_connecting", "broker", c.cfg.BrokerURL)
	client.Connect()
}

// subscribeAll subscribes every configured state topic, then emits the
// connected event. A failed subscription keeps the session in a degraded
// but reported state: the connected event is withheld.
func (c *Client) subscribeAll() {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil {
		return
	}

	for _, topic := range c.cfg.StateTopics {
		t := client.Subscribe(topic, defaultQOS, func(_ paho.Client, m paho.Message) {
			c.emitMessage(m.Topic(), m.Payload())
		})
		t.Wait()
		if err := t.Error(); err != nil {
			c.log.Errorw("mqtt_subscribe_failed", "topic", topic, "err", err)
			return
		}
		c.log.Infow("mqtt_subscribed", "topic", topic)
	}

	c.mu.Lock()
	fn := c.onConnected
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Publish sends a plain-text payload to topic at QoS 0. It reports a
// failure instead of queueing when the link is down.
func (c *Client) Publish(topic, payload string) error {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()

	if client == nil || !client.IsConnected() {
		c.log.Warnw("mqtt_publish_skipped", "topic", topic, "reason", "not connected")
		return ErrNotConnected
	}

	t := client.Publish(topic, defaultQOS, false, payload)
	t.Wait()
	if err := t.Error(); err != nil {
		c.log.Errorw("mqtt_publish_failed", "topic", topic, "err", err)
		return err
	}
	c.log.Debugw("mqtt_published", "topic", topic, "payload", payload)
	return nil
}

// IsConnected reports whether the broker link is currently up.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client != nil && c.client.IsConnected()
}

// Disconnect tears the connection down immediately. Safe to call more than
// once and before Connect.
func (c *Client) Disconnect() {
	c.mu.Lock()
	client := c.client
	alreadyClosed := c.closed
	c.closed = true
	c.client = nil
	c.mu.Unlock()

	if client == nil || alreadyClosed {
		return
	}
	client.Disconnect(disconnectQuiesce)
	c.log.Infow("mqtt_disconnected")
	c.emitDisconnected(nil)
}

func (c *Client) emitDisconnected(err error) {
	c.mu.Lock()
	fn := c.onDisconnected
	c.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

func (c *Client) emitMessage(topic string, payload []byte) {
	c.mu.Lock()
	fn := c.onMessage
	c.mu.Unlock()
	if fn != nil {
		fn(topic, payload)
	}
}

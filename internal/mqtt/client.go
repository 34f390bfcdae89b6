package mqtt

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"sync"
	"time"

	"github.com/berfenger/fanlight2mqtt/internal/config"
	"github.com/berfenger/fanlight2mqtt/internal/core/domain"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	MQTT_PAYLOAD_ONLINE  = "online"
	MQTT_PAYLOAD_OFFLINE = "offline"
	MQTT_PAYLOAD_ON      = "on"
	MQTT_PAYLOAD_OFF     = "off"
)

var ErrNotCommandTopic = errors.New("not a command topic")

func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
	opts.SetClientID(fmt.Sprintf("fanlight2mqtt_%d", rand.IntN(1000)))
	if cfg.MQTT.Username != "" && cfg.MQTT.Password != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	// reconnection is driven by the actor supervisor
	opts.SetAutoReconnect(false)
	opts.WillEnabled = true
	opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = bridgeStateTopic(cfg.MQTT.BaseTopic)
	opts.WillQos = 0

	return opts
}

func CreateMQTTClient(cfg *config.Config, opts *mqtt.ClientOptions) *MQTTClient {
	c := &MQTTClient{
		Topics:        TopicsFromConfig(cfg),
		commandRegexp: commandExtractor(cfg.MQTT.BaseTopic),
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		c.connectionLost(err)
	}
	c.client = mqtt.NewClient(opts)
	return c
}

type MQTTClient struct {
	Topics
	client        mqtt.Client
	commandRegexp *regexp.Regexp

	mu               sync.Mutex
	onConnectionLost func(error)
}

type ParsedMQTTCommand struct {
	Role    string
	Command string
	Payload string
}

// Topics is the topic scheme of the bridge:
//
//	<base>/bridge/state
//	<base>/<role>/<attribute>/state
//	<base>/<role>/<command>/set
//	<discovery>/<component>/<device>/<role>/config
type Topics struct {
	BaseTopic      string
	DiscoveryTopic string
}

func TopicsFromConfig(cfg *config.Config) Topics {
	return Topics{
		BaseTopic:      cfg.MQTT.BaseTopic,
		DiscoveryTopic: cfg.MQTT.HADiscoveryTopic,
	}
}

func (t Topics) BridgeStateTopic() string {
	return bridgeStateTopic(t.BaseTopic)
}

func (t Topics) AttributeStateTopic(role domain.EntityRole, attribute string) string {
	return fmt.Sprintf("%s/%s/%s/state", t.BaseTopic, role, attribute)
}

func (t Topics) CommandTopic(role domain.EntityRole, command string) string {
	return fmt.Sprintf("%s/%s/%s/set", t.BaseTopic, role, command)
}

func (t Topics) DiscoveryConfigTopic(deviceId string, role domain.EntityRole) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", t.DiscoveryTopic, role, deviceId, role)
}

// SetConnectionLostHandler replaces the handler called when the broker
// connection drops.
func (c *MQTTClient) SetConnectionLostHandler(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnectionLost = fn
}

func (c *MQTTClient) connectionLost(err error) {
	c.mu.Lock()
	fn := c.onConnectionLost
	c.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

func (c *MQTTClient) ParseMQTTCommand(msg mqtt.Message) (*ParsedMQTTCommand, error) {
	return parseCommand(c.commandRegexp, msg.Topic(), string(msg.Payload()))
}

func parseCommand(r *regexp.Regexp, topic, payload string) (*ParsedMQTTCommand, error) {
	matches := r.FindStringSubmatch(topic)
	if len(matches) != 3 {
		return nil, ErrNotCommandTopic
	}
	return &ParsedMQTTCommand{
		Role:    matches[1],
		Command: matches[2],
		Payload: payload,
	}, nil
}

func (c *MQTTClient) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	token := c.client.Publish(topic, qos, retain, payload)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT publish timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	token := c.client.Subscribe(topic, qos, handler)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT subscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) SubscribeToCommandTopic(handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	c.Subscribe(c.commandSubscription(), 1, handler, continuation, timeout)
}

func (c *MQTTClient) Connect(continuation func(error), timeout time.Duration) {
	token := c.client.Connect()
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT connect timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

func (c *MQTTClient) commandSubscription() string {
	return fmt.Sprintf("%s/+/+/set", c.BaseTopic)
}

func commandExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("^%s/([a-z]+)/([a-z]+)/set$", regexp.QuoteMeta(baseTopic)))
}

func bridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}

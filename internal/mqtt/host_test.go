package mqtt

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/berfenger/fanlight2mqtt/internal/core/domain"
	"github.com/berfenger/fanlight2mqtt/internal/core/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type published struct {
	topic   string
	payload string
	retain  bool
}

type fakePublisher struct {
	mu        sync.Mutex
	connected bool
	fail      error
	stalled   bool
	messages  []published
}

func (p *fakePublisher) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	p.mu.Lock()
	err := p.fail
	if err == nil {
		var body string
		switch v := payload.(type) {
		case []byte:
			body = string(v)
		case string:
			body = v
		}
		p.messages = append(p.messages, published{topic: topic, payload: body, retain: retain})
	}
	stalled := p.stalled
	p.mu.Unlock()
	if stalled {
		// the broker never acks, like a paho token that times out
		go func() {
			time.Sleep(timeout)
			continuation(errors.New("MQTT publish timed out"))
		}()
		return
	}
	go continuation(err)
}

func (p *fakePublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *fakePublisher) setConnected(connected bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = connected
}

func (p *fakePublisher) sent() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.messages...)
}

func (p *fakePublisher) last(topic string) (published, bool) {
	msgs := p.sent()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].topic == topic {
			return msgs[i], true
		}
	}
	return published{}, false
}

func newTestHost(connected bool) (*EntityHost, *fakePublisher) {
	pub := &fakePublisher{connected: connected}
	topics := Topics{BaseTopic: "fanbridge", DiscoveryTopic: "homeassistant"}
	dev := domain.ApplianceDevice("living_room", "Living Room", domain.BridgeDevice("fanbridge"))
	return NewEntityHost(pub, topics, dev, zap.Must(zap.NewDevelopment())), pub
}

func TestEntityHostLifecycle(t *testing.T) {

	assert := assert.New(t)

	host, pub := newTestHost(true)

	fan, err := host.CreateChildEntity(domain.RoleFan)
	require.NoError(t, err)
	assert.Equal(domain.ChildEntityKey{ParentId: "living_room", Role: domain.RoleFan}, fan.Key())

	msg, ok := pub.last("homeassistant/fan/living_room/fan/config")
	require.True(t, ok)
	assert.True(msg.retain)
	var cfg HADiscoveryConfig
	require.NoError(t, json.Unmarshal([]byte(msg.payload), &cfg))
	assert.Equal("fanbridge/fan/switch/state", cfg.StateTopic)
	assert.Equal("fanbridge/bridge/state", cfg.AvTopic)

	again, err := host.CreateChildEntity(domain.RoleFan)
	require.NoError(t, err)
	assert.Same(fan, again)
	assert.Len(pub.sent(), 1, "creating an existing entity publishes nothing")

	require.NoError(t, host.DeleteChildEntity(domain.RoleFan))
	msg, _ = pub.last("homeassistant/fan/living_room/fan/config")
	assert.Equal("", msg.payload)
	_, ok = host.GetChildEntity(domain.RoleFan)
	assert.False(ok)

	assert.ErrorIs(host.DeleteChildEntity(domain.RoleFan), port.ErrEntityNotFound)
	_, err = host.CreateChildEntity(domain.RoleDevice)
	assert.Error(err)
}

func TestEntityHostAttributes(t *testing.T) {

	assert := assert.New(t)

	host, pub := newTestHost(true)
	light, err := host.CreateChildEntity(domain.RoleLight)
	require.NoError(t, err)

	_, ok := light.CurrentValue(domain.ATTR_LEVEL)
	assert.False(ok)

	require.NoError(t, light.SendAttributeEvent(domain.AttributeEvent{Name: domain.ATTR_LEVEL, Value: 55, Unit: "%"}))
	value, ok := light.CurrentValue(domain.ATTR_LEVEL)
	assert.True(ok)
	assert.Equal(55, value)

	msg, ok := pub.last("fanbridge/light/level/state")
	require.True(t, ok)
	assert.Equal("55", msg.payload)
	assert.True(msg.retain)

	// a failed publish leaves the cached value untouched
	pub.mu.Lock()
	pub.fail = errors.New("broker gone")
	pub.mu.Unlock()
	assert.Error(light.SendAttributeEvent(domain.AttributeEvent{Name: domain.ATTR_LEVEL, Value: 80}))
	value, _ = light.CurrentValue(domain.ATTR_LEVEL)
	assert.Equal(55, value)
}

func TestEntityHostRepublish(t *testing.T) {

	assert := assert.New(t)

	host, pub := newTestHost(false)

	fan, err := host.CreateChildEntity(domain.RoleFan)
	require.NoError(t, err)
	light, err := host.CreateChildEntity(domain.RoleLight)
	require.NoError(t, err)
	require.NoError(t, fan.SendAttributeEvent(domain.AttributeEvent{Name: domain.ATTR_SPEED, Value: "high"}))
	require.NoError(t, host.DeleteChildEntity(domain.RoleLight))
	assert.Empty(pub.sent(), "nothing is published while disconnected")
	_ = light

	pub.setConnected(true)
	require.NoError(t, host.Republish())

	msg, ok := pub.last("homeassistant/light/living_room/light/config")
	require.True(t, ok)
	assert.Equal("", msg.payload)
	_, ok = pub.last("homeassistant/fan/living_room/fan/config")
	assert.True(ok)
	msg, ok = pub.last("fanbridge/fan/speed/state")
	require.True(t, ok)
	assert.Equal("high", msg.payload)

	count := len(pub.sent())
	require.NoError(t, host.Republish())
	assert.Equal(count+2, len(pub.sent()), "pending removals are sent once")
}

func TestEntityHostStalledBroker(t *testing.T) {

	assert := assert.New(t)

	host, pub := newTestHost(true)
	fan, err := host.CreateChildEntity(domain.RoleFan)
	require.NoError(t, err)

	pub.mu.Lock()
	pub.stalled = true
	pub.mu.Unlock()

	start := time.Now()
	err = fan.SendAttributeEvent(domain.AttributeEvent{Name: domain.ATTR_SWITCH, Value: "on"})
	elapsed := time.Since(start)

	assert.Error(err)
	assert.Less(elapsed, PUBLISH_TIMEOUT+500*time.Millisecond, "publish gives up after PUBLISH_TIMEOUT")
	assert.LessOrEqual(PUBLISH_TIMEOUT, time.Second)
	_, ok := fan.CurrentValue(domain.ATTR_SWITCH)
	assert.False(ok, "an unacknowledged value is not cached")
}

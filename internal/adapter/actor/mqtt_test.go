package actor

import (
	"testing"
	"time"

	"github.com/berfenger/fanlight2mqtt/internal/core/domain"
	"github.com/berfenger/fanlight2mqtt/internal/mqtt"
	"github.com/berfenger/fanlight2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type forwardToChild struct {
	cmd ParsedCommand
}

type commandSink struct {
	child    *actor.PID
	received chan ParsedCommand
}

func (s *commandSink) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		s.child = ctx.Spawn(actor.PropsFromProducer(func() actor.Actor {
			return NewTestMQTTActor(zap.Must(zap.NewDevelopment()))
		}))
	case forwardToChild:
		ctx.Send(s.child, msg.cmd)
	case ParsedCommand:
		s.received <- msg
	}
}

func TestDummyMQTTActor(t *testing.T) {

	as := actorutil.NewActorSystemWithZapLogger(zap.Must(zap.NewDevelopment()))
	defer as.Shutdown()

	pid := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewTestMQTTActor(zap.Must(zap.NewDevelopment()))
	}))

	result, err := as.Root.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	health := result.(domain.ActorHealthResponse)
	assert.True(t, health.Healthy)
	assert.Equal(t, domain.ACTOR_ID_MQTT, health.Id)
}

func TestDummyMQTTActorForwardsCommandsToParent(t *testing.T) {

	as := actorutil.NewActorSystemWithZapLogger(zap.Must(zap.NewDevelopment()))
	defer as.Shutdown()

	sink := &commandSink{received: make(chan ParsedCommand, 1)}
	pid := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor { return sink }))

	as.Root.Send(pid, forwardToChild{cmd: ParsedCommand{Command: &mqtt.ParsedMQTTCommand{Role: "fan", Command: "cycle"}}})

	select {
	case msg := <-sink.received:
		assert.Equal(t, "cycle", msg.Command.Command)
	case <-time.After(2 * time.Second):
		t.Fatal("command was not forwarded to the parent")
	}
}

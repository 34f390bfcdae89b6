package actor

import (
	"errors"
	"testing"
	"time"

	"github.com/berfenger/fanlight2mqtt/internal/core/domain"
	"github.com/berfenger/fanlight2mqtt/internal/util/actorutil"
	"github.com/berfenger/fanlight2mqtt/pkg/fanclient"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func spawnDeviceActor(t *testing.T, client fanclient.Client) (*actor.ActorSystem, *actor.PID) {
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	props := actor.PropsFromProducer(func() actor.Actor { return NewDeviceActor(client, time.Second, logger) })
	pid := as.Root.Spawn(props)
	t.Cleanup(as.Shutdown)
	return as, pid
}

func TestDeviceActorFetchState(t *testing.T) {

	assert := assert.New(t)

	client := fanclient.CreateTestClient(fanclient.DefaultTestState())
	as, pid := spawnDeviceActor(t, client)

	result, err := as.Root.RequestFuture(pid, domain.FetchStateRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	resp, ok := result.(domain.FetchStateResponse)
	require.True(t, ok)
	assert.False(resp.HasResponseError())
	require.NotNil(t, resp.State)
	assert.True(resp.State.FanOn)
	assert.Equal(3, resp.State.Speed())
}

func TestDeviceActorSendCommand(t *testing.T) {

	assert := assert.New(t)

	client := fanclient.CreateTestClient(fanclient.DefaultTestState())
	as, pid := spawnDeviceActor(t, client)

	result, err := as.Root.RequestFuture(pid, domain.SendCommandRequest{
		Body: fanclient.CommandBody{fanclient.KEY_FAN_ON: false},
	}, 5*time.Second).Result()
	require.NoError(t, err)
	resp := result.(domain.SendCommandResponse)
	assert.False(resp.HasResponseError())
	assert.False(client.State().FanOn)
	assert.Equal(3, client.State().Speed(), "speed is retained while off")
}

func TestDeviceActorErrors(t *testing.T) {

	client := fanclient.CreateTestClient(fanclient.DefaultTestState())
	failure := &fanclient.TransportError{URL: "http://fan/mf", StatusCode: 500}
	client.FailNext(failure)
	as, pid := spawnDeviceActor(t, client)

	result, err := as.Root.RequestFuture(pid, domain.FetchStateRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	resp := result.(domain.FetchStateResponse)
	require.True(t, resp.HasResponseError())
	var transportErr *fanclient.TransportError
	assert.True(t, errors.As(resp.GetResponseError(), &transportErr))
	assert.Nil(t, resp.State)
}

func TestDeviceActorSerializesExchanges(t *testing.T) {

	client := fanclient.CreateTestClient(fanclient.DefaultTestState())
	as, pid := spawnDeviceActor(t, client)

	futures := []*actor.Future{
		as.Root.RequestFuture(pid, domain.SendCommandRequest{Body: fanclient.CommandBody{fanclient.KEY_LIGHT_ON: true}}, 5*time.Second),
		as.Root.RequestFuture(pid, domain.SendCommandRequest{Body: fanclient.CommandBody{fanclient.KEY_LIGHT_BRIGHTNESS: 70}}, 5*time.Second),
		as.Root.RequestFuture(pid, domain.FetchStateRequest{}, 5*time.Second),
	}
	for _, f := range futures {
		_, err := f.Result()
		require.NoError(t, err)
	}

	result, err := as.Root.RequestFuture(pid, domain.FetchStateRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	state := result.(domain.FetchStateResponse).State
	assert.True(t, state.LightOn)
	assert.Equal(t, 70, state.LightBrightness)
	assert.Len(t, client.Commands(), 4)
}

package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/berfenger/fanlight2mqtt/internal/core/domain"
	"github.com/berfenger/fanlight2mqtt/internal/util/actorutil"
	"github.com/berfenger/fanlight2mqtt/pkg/fanclient"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// grace period on top of the client timeout before a stuck exchange is abandoned
const DEVICE_TASK_GRACE = 500 * time.Millisecond

// DeviceActor owns the appliance client. Exchanges run one at a time; requests
// arriving meanwhile are stashed.
type DeviceActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	client   fanclient.Client
	timeout  time.Duration
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewDeviceActor(client fanclient.Client, timeout time.Duration, logger *zap.Logger) *DeviceActor {
	act := &DeviceActor{
		client:   client,
		timeout:  timeout,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_DEVICE, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *DeviceActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *DeviceActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("device@default started")
	case domain.ActorHealthRequest:
		state.logger.Debug("device@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_DEVICE,
			Healthy: true,
			State:   "idle",
		})
	case domain.SendCommandRequest:
		state.logger.Debug("device@default SendCommandRequest", zap.Any("body", msg.Body))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		body := msg.Body
		runTask(state, ctx, sender, func() (*domain.SendCommandResponse, error) {
			resp, err := state.client.SendCommand(context.Background(), body)
			if err != nil {
				state.logger.Error("device: command failed", zap.Error(err))
				return &domain.SendCommandResponse{ActorResponseMixIn: domain.ResponseWithError(err)}, nil
			}
			return &domain.SendCommandResponse{Response: resp}, nil
		}, func(err error) any {
			return domain.SendCommandResponse{ActorResponseMixIn: domain.ResponseWithError(err)}
		})
	case domain.FetchStateRequest:
		state.logger.Debug("device@default FetchStateRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		runTask(state, ctx, sender, func() (*domain.FetchStateResponse, error) {
			physical, err := state.client.FetchState(context.Background())
			if err != nil {
				state.logger.Error("device: fetch failed", zap.Error(err))
				return &domain.FetchStateResponse{ActorResponseMixIn: domain.ResponseWithError(err)}, nil
			}
			return &domain.FetchStateResponse{State: physical}, nil
		}, func(err error) any {
			return domain.FetchStateResponse{ActorResponseMixIn: domain.ResponseWithError(err)}
		})
	default:
		state.logger.Debug("device@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *DeviceActor) WaitingDevice(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("device@waiting backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		actorutil.RespondTo(ctx, msg.replyTo, msg.message)
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_DEVICE,
			Healthy: true,
			State:   "waiting",
		})
	default:
		state.logger.Debug("device@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// runTask executes one exchange in the background and moves to WaitingDevice
// until its result comes back.
func runTask[T any](state *DeviceActor, ctx actor.Context, sender *actor.PID, fn func() (*T, error), onFailure func(error) any) {
	timeout := state.timeout + DEVICE_TASK_GRACE
	actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, fn),
		mapTaskResult[T](sender)).Recover(func(err error) backgroundTaskResult {
		return backgroundTaskResult{
			message: onFailure(&fanclient.TransportTimeoutError{Timeout: timeout, Err: err}),
			replyTo: sender,
		}
	}).WithTimeout(timeout).PipeTo(ctx.Self())
	state.behavior.Become(state.WaitingDevice)
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}

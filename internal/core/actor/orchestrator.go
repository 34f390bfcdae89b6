package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/fanlight2mqtt/internal/core/domain"
	"github.com/berfenger/fanlight2mqtt/internal/core/port"
	"github.com/berfenger/fanlight2mqtt/internal/core/service"
	. "github.com/berfenger/fanlight2mqtt/internal/util/actorutil"
	"github.com/berfenger/fanlight2mqtt/pkg/fanclient"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// extra wait on top of the device timeout before a device request is given up
const DEVICE_REQUEST_GRACE = 1500 * time.Millisecond

// OrchestratorActor serializes every exchange with the appliance:
//
//	Idle -> CommandInFlight -> Refetching -> Reconciling -> Idle
//
// A poll skips CommandInFlight. Any failure returns to Idle without touching
// the entity caches. Messages arriving while busy are stashed.
type OrchestratorActor struct {
	ActorWithStates
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	deviceActor   *actor.PID
	deviceTimeout time.Duration
	host          port.Host
	config        domain.EntityConfig
	lifecycle     *service.EntityLifecycleManager
	reconciler    *service.StateReconciler
	builder       *service.CommandBuilder

	current        *cycle
	lastPhysical   *fanclient.PhysicalState
	lastError      string
	pollGeneration int
	cancelPoll     scheduler.CancelFunc

	logger *zap.Logger
}

// cycle is the exchange in progress.
type cycle struct {
	command string
	replyTo *actor.PID
	// only timer driven cycles re-arm the poll timer
	rearm bool
}

type pollTick struct {
	generation int
}

type reconcileSnapshot struct {
	physical fanclient.PhysicalState
}

func NewOrchestratorActor(config domain.EntityConfig, deviceActor *actor.PID, deviceTimeout time.Duration,
	host port.Host, logger *zap.Logger) *OrchestratorActor {
	actorLogger := ActorLogger(domain.ACTOR_ID_ORCHESTRATOR, logger)
	act := &OrchestratorActor{
		stash:         &Stash{},
		deviceActor:   deviceActor,
		deviceTimeout: deviceTimeout,
		host:          host,
		config:        config,
		lifecycle:     &service.EntityLifecycleManager{Host: host, Logger: actorLogger},
		reconciler:    &service.StateReconciler{Logger: actorLogger},
		builder:       &service.CommandBuilder{Logger: actorLogger},
		logger:        actorLogger,
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(OStartingState{actor: act})
	return act
}

func (state *OrchestratorActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

// Starting state

type OStartingState struct {
	actor *OrchestratorActor
}

func (state OStartingState) Name() string {
	return "starting"
}

func (state OStartingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.actor.logger.Debug("orchestrator@starting started")
		state.actor.scheduler = scheduler.NewTimerScheduler(ctx)
		if err := state.actor.lifecycle.ReconcileEntities(state.actor.config); err != nil {
			state.actor.logger.Error("orchestrator@starting could not reconcile entities", zap.Error(err))
		}
		state.actor.Become(OIdleState{actor: state.actor})
		// initial refresh
		ctx.Send(ctx.Self(), pollTick{generation: state.actor.pollGeneration})
		state.actor.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.actor.logger.Debug("orchestrator@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Idle state

type OIdleState struct {
	actor *OrchestratorActor
}

func (state OIdleState) Name() string {
	return "idle"
}

func (state OIdleState) Receive(ctx actor.Context) {
	if state.actor.answerQueries(ctx) {
		return
	}
	switch msg := ctx.Message().(type) {
	case pollTick:
		if msg.generation != state.actor.pollGeneration {
			state.actor.logger.Debug("orchestrator@idle stale poll tick")
			return
		}
		state.actor.logger.Debug("orchestrator@idle poll")
		state.actor.startRefetch(ctx, &cycle{command: domain.CMD_REFRESH, rearm: true})
	case domain.RefreshCommand:
		state.actor.logger.Debug("orchestrator@idle refresh")
		if !state.actor.config.Enabled(msg.TargetRole()) {
			err := &domain.UnknownChildEntityError{Role: msg.TargetRole().String(), Reason: "entity is not enabled"}
			ForRequest(msg).Respond(ctx, commandResponse(msg, err))
			return
		}
		state.actor.startRefetch(ctx, &cycle{command: msg.CommandName(), replyTo: ForRequest(msg).ReplyTo(ctx)})
	case domain.EntityCommand:
		state.actor.logger.Debug("orchestrator@idle command", zap.Stringer("role", msg.TargetRole()), zap.String("command", msg.CommandName()))
		fan, light := service.CachedStates(state.actor.host)
		body, err := state.actor.builder.Build(msg, state.actor.config, fan, light)
		if err != nil {
			state.actor.logger.Warn("orchestrator@idle rejected command", zap.String("command", msg.CommandName()), zap.Error(err))
			ForRequest(msg).Respond(ctx, commandResponse(msg, err))
			return
		}
		state.actor.current = &cycle{command: msg.CommandName(), replyTo: ForRequest(msg).ReplyTo(ctx)}
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.deviceActor, domain.SendCommandRequest{Body: body}, state.actor.requestTimeout()), func(err error) any {
			return domain.SendCommandResponse{
				ActorResponseMixIn: domain.ResponseWithError(state.actor.requestError(err)),
			}
		})
		state.actor.Become(OCommandInFlightState{actor: state.actor})
	case domain.UpdateEntityConfigRequest:
		state.actor.logger.Info("orchestrator@idle UpdateEntityConfigRequest", zap.Any("config", msg.Config))
		if err := msg.Config.Validate(); err != nil {
			ForRequest(msg).Respond(ctx, domain.UpdateEntityConfigResponse{ActorResponseMixIn: domain.ResponseWithError(err)})
			return
		}
		state.actor.config = msg.Config
		err := state.actor.lifecycle.ReconcileEntities(msg.Config)
		ForRequest(msg).Respond(ctx, domain.UpdateEntityConfigResponse{ActorResponseMixIn: domain.ResponseWithError(err)})
		// restart polling with the new interval, beginning with a refresh
		state.actor.stopPolling()
		state.actor.startRefetch(ctx, &cycle{command: domain.CMD_REFRESH, rearm: true})
	case *actor.Stopping:
		state.actor.stopPolling()
	default:
		state.actor.logger.Debug("orchestrator@idle recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// CommandInFlight state

type OCommandInFlightState struct {
	actor *OrchestratorActor
}

func (state OCommandInFlightState) Name() string {
	return "commandInFlight"
}

func (state OCommandInFlightState) Receive(ctx actor.Context) {
	if state.actor.answerQueries(ctx) {
		return
	}
	switch msg := ctx.Message().(type) {
	case domain.SendCommandResponse:
		if msg.HasResponseError() {
			state.actor.finish(ctx, msg.GetResponseError())
			return
		}
		state.actor.logger.Debug("orchestrator@commandInFlight command accepted")
		// the acknowledgement is not the settled state, always refetch
		state.actor.startRefetch(ctx, state.actor.current)
	case *actor.Stopping:
		state.actor.stopPolling()
	default:
		state.actor.logger.Debug("orchestrator@commandInFlight stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Refetching state

type ORefetchingState struct {
	actor *OrchestratorActor
}

func (state ORefetchingState) Name() string {
	return "refetching"
}

func (state ORefetchingState) Receive(ctx actor.Context) {
	if state.actor.answerQueries(ctx) {
		return
	}
	switch msg := ctx.Message().(type) {
	case domain.FetchStateResponse:
		if msg.HasResponseError() {
			state.actor.finish(ctx, msg.GetResponseError())
			return
		}
		if msg.State == nil {
			state.actor.finish(ctx, &fanclient.MalformedResponseError{Reason: "empty state"})
			return
		}
		state.actor.logger.Debug("orchestrator@refetching state received")
		state.actor.Become(OReconcilingState{actor: state.actor})
		ctx.Send(ctx.Self(), reconcileSnapshot{physical: *msg.State})
	case *actor.Stopping:
		state.actor.stopPolling()
	default:
		state.actor.logger.Debug("orchestrator@refetching stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Reconciling state

type OReconcilingState struct {
	actor *OrchestratorActor
}

func (state OReconcilingState) Name() string {
	return "reconciling"
}

func (state OReconcilingState) Receive(ctx actor.Context) {
	if state.actor.answerQueries(ctx) {
		return
	}
	switch msg := ctx.Message().(type) {
	case reconcileSnapshot:
		a := state.actor
		prevFan, prevLight := service.CachedStates(a.host)
		fanDelta, lightDelta := a.reconciler.Reconcile(prevFan, prevLight, msg.physical, a.config)
		// stop at the first failed event, the next cycle diffs against what was applied
		err := a.emit(domain.RoleFan, fanDelta.Events())
		if err == nil {
			err = a.emit(domain.RoleLight, lightDelta.Events())
		}
		physical := msg.physical
		a.lastPhysical = &physical
		a.finish(ctx, err)
	case *actor.Stopping:
		state.actor.stopPolling()
	default:
		state.actor.logger.Debug("orchestrator@reconciling stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// answerQueries handles the read-only requests every state serves.
func (a *OrchestratorActor) answerQueries(ctx actor.Context) bool {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		a.logger.Debug(fmt.Sprintf("orchestrator@%s ActorHealthRequest", a.StateName()))
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_ORCHESTRATOR,
			Healthy: true,
			State:   a.StateName(),
		})
		return true
	case domain.GetStateRequest:
		fan, light := service.CachedStates(a.host)
		ForRequest(msg).Respond(ctx, domain.GetStateResponse{
			State:     a.StateName(),
			Config:    a.config,
			Physical:  a.lastPhysical,
			Fan:       fan,
			Light:     light,
			LastError: a.lastError,
		})
		return true
	}
	return false
}

func (a *OrchestratorActor) startRefetch(ctx actor.Context, c *cycle) {
	a.current = c
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(a.deviceActor, domain.FetchStateRequest{}, a.requestTimeout()), func(err error) any {
		return domain.FetchStateResponse{
			ActorResponseMixIn: domain.ResponseWithError(a.requestError(err)),
		}
	})
	a.Become(ORefetchingState{actor: a})
}

// finish closes the current cycle, answers its requester and returns to Idle.
func (a *OrchestratorActor) finish(ctx actor.Context, err error) {
	c := a.current
	a.current = nil
	if err != nil {
		a.logger.Error(fmt.Sprintf("orchestrator@%s cycle failed", a.StateName()), zap.Error(err))
		a.lastError = err.Error()
	} else {
		a.lastError = ""
	}
	if c != nil {
		if c.replyTo != nil {
			ctx.Send(c.replyTo, domain.EntityCommandResponse{
				ActorResponseMixIn: domain.ResponseWithError(err),
				Command:            c.command,
			})
		}
		if c.rearm {
			a.schedulePoll(ctx)
		}
	}
	a.Become(OIdleState{actor: a})
	a.stash.UnstashAll(ctx)
}

func (a *OrchestratorActor) emit(role domain.EntityRole, events []domain.AttributeEvent) error {
	if len(events) == 0 {
		return nil
	}
	entity, ok := a.host.GetChildEntity(role)
	if !ok {
		a.logger.Warn("orchestrator@reconciling missing child entity", zap.Stringer("role", role))
		return nil
	}
	for _, ev := range events {
		if err := entity.SendAttributeEvent(ev); err != nil {
			return fmt.Errorf("sending %s %s: %w", role, ev.Name, err)
		}
	}
	return nil
}

func (a *OrchestratorActor) schedulePoll(ctx actor.Context) {
	if a.config.PollingIntervalSeconds <= 0 {
		return
	}
	interval := time.Duration(a.config.PollingIntervalSeconds) * time.Second
	a.cancelPoll = a.scheduler.RequestOnce(interval, ctx.Self(), pollTick{generation: a.pollGeneration})
}

func (a *OrchestratorActor) stopPolling() {
	a.pollGeneration++
	if a.cancelPoll != nil {
		a.cancelPoll()
		a.cancelPoll = nil
	}
}

func (a *OrchestratorActor) requestTimeout() time.Duration {
	return a.deviceTimeout + DEVICE_REQUEST_GRACE
}

func (a *OrchestratorActor) requestError(err error) error {
	return &fanclient.TransportTimeoutError{URL: domain.ACTOR_ID_DEVICE, Timeout: a.requestTimeout(), Err: err}
}

func commandResponse(cmd domain.EntityCommand, err error) domain.EntityCommandResponse {
	return domain.EntityCommandResponse{
		ActorResponseMixIn: domain.ResponseWithError(err),
		Command:            cmd.CommandName(),
	}
}

package actor

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	adactor "github.com/berfenger/fanlight2mqtt/internal/adapter/actor"
	"github.com/berfenger/fanlight2mqtt/internal/config"
	"github.com/berfenger/fanlight2mqtt/internal/core/domain"
	"github.com/berfenger/fanlight2mqtt/internal/core/port"
	. "github.com/berfenger/fanlight2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

type MQTTActorProvider func() *adactor.MQTTActor

type DeviceActorProvider func() *adactor.DeviceActor

// MasterOfPuppetsActor supervises the device, mqtt and orchestrator actors
// and routes external requests to the orchestrator.
type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	// latest accepted entity config, read by the orchestrator producer on restarts
	entityConfig atomic.Pointer[domain.EntityConfig]

	currentHealthCheck  healthCheckResult
	deviceActor         *actor.PID
	mqttActor           *actor.PID
	orchestratorActor   *actor.PID
	deviceActorProvider DeviceActorProvider
	mqttActorProvider   MQTTActorProvider
	host                port.Host
	rootLogger          *zap.Logger
	logger              *zap.Logger
}

type healthCheckResult struct {
	healthy        map[string]bool
	checksReceived int
	respondTo      *actor.PID
}

var monitoredActors = []string{domain.ACTOR_ID_DEVICE, domain.ACTOR_ID_MQTT, domain.ACTOR_ID_ORCHESTRATOR}

func NewMasterOfPuppetsActor(config config.Config, deviceActorProvider DeviceActorProvider, mqttActorProvider MQTTActorProvider,
	host port.Host, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:              config,
		behavior:            actor.NewBehavior(),
		stash:               &Stash{},
		rootLogger:          logger,
		logger:              ActorLogger(domain.ACTOR_ID_MASTER, logger),
		deviceActorProvider: deviceActorProvider,
		mqttActorProvider:   mqttActorProvider,
		host:                host,
	}
	entities := config.Entities
	act.entityConfig.Store(&entities)
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck.reset()

		// start device child
		deviceActorPID, err := state.startDeviceActor(ctx)
		if err != nil {
			panic(err)
		}
		state.deviceActor = deviceActorPID

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// start orchestrator child
		orchestratorActorPID, err := state.startOrchestratorActor(ctx)
		if err != nil {
			panic(err)
		}
		state.orchestratorActor = orchestratorActorPID

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		for _, pid := range []*actor.PID{state.deviceActor, state.mqttActor, state.orchestratorActor} {
			id := pid.Id
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      childName(id),
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case adactor.ParsedCommand:
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command == nil {
			return
		}
		cmd, err := domain.ParseEntityCommand(msg.Command.Role, msg.Command.Command, msg.Command.Payload)
		if err != nil {
			state.logger.Warn("master@default invalid command", zap.Any("command", msg.Command), zap.Error(err))
			return
		}
		ctx.Send(state.orchestratorActor, cmd)
	case domain.UpdateEntityConfigRequest:
		// the orchestrator applies every config that validates
		if err := msg.Config.Validate(); err == nil {
			entities := msg.Config
			state.entityConfig.Store(&entities)
		}
		ctx.Forward(state.orchestratorActor)
	case domain.EntityCommand, domain.GetStateRequest:
		ctx.Forward(state.orchestratorActor)
	case *actor.Terminated:
		// if some actor fails on boot, terminate
		if childName(msg.Who.Id) == domain.ACTOR_ID_DEVICE {
			state.logger.Error("master@default device error")
			panic(errors.New("device terminated"))
		}
	default:
		state.logger.Debug("master@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		ctx.SetReceiveTimeout(0)
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		state.currentHealthCheck.healthy[msg.Id] = msg.Healthy
		if state.currentHealthCheck.allReceived() {
			ctx.SetReceiveTimeout(0)
			state.currentHealthCheck.respond(ctx)
			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) startDeviceActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	deviceProps := actor.PropsFromProducer(func() actor.Actor {
		return state.deviceActorProvider()
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(deviceProps, domain.ACTOR_ID_DEVICE)
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider()
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
}

func (state *MasterOfPuppetsActor) startOrchestratorActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(10, 10*time.Second, decider)

	orchestratorProps := actor.PropsFromProducer(func() actor.Actor {
		return NewOrchestratorActor(*state.entityConfig.Load(), state.deviceActor, state.config.Device.Timeout(), state.host, state.rootLogger)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(orchestratorProps, domain.ACTOR_ID_ORCHESTRATOR)
}

// childName strips the parent prefix from a child actor id.
func childName(id string) string {
	return id[strings.LastIndex(id, "/")+1:]
}

func (state *healthCheckResult) reset() {
	state.healthy = map[string]bool{}
	state.checksReceived = 0
	state.respondTo = nil
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == len(monitoredActors)
}

func (state *healthCheckResult) allHealthy() bool {
	for _, id := range monitoredActors {
		if !state.healthy[id] {
			return false
		}
	}
	return true
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}

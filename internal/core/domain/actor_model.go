package domain

import "github.com/berfenger/fanlight2mqtt/pkg/fanclient"

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_DEVICE       = "device"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_ORCHESTRATOR = "orchestrator"
)

type SendCommandRequest struct {
	ActorRequestMixIn
	Body fanclient.CommandBody
}

type SendCommandResponse struct {
	ActorResponseMixIn
	Response fanclient.Response
}

type FetchStateRequest struct {
	ActorRequestMixIn
}

type FetchStateResponse struct {
	ActorResponseMixIn
	State *fanclient.PhysicalState
}

type UpdateEntityConfigRequest struct {
	ActorRequestMixIn
	Config EntityConfig
}

type UpdateEntityConfigResponse struct {
	ActorResponseMixIn
}

type GetStateRequest struct {
	ActorRequestMixIn
}

type GetStateResponse struct {
	ActorResponseMixIn
	State     string                   `json:"state"`
	Config    EntityConfig             `json:"config"`
	Physical  *fanclient.PhysicalState `json:"physical,omitempty"`
	Fan       *LogicalFanState         `json:"fan,omitempty"`
	Light     *LogicalLightState       `json:"light,omitempty"`
	LastError string                   `json:"lastError,omitempty"`
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}

package mqtt

import (
	"github.com/berfenger/fanlight2mqtt/internal/core/domain"
)

type HADiscoveryConfig struct {
	Device           HADiscoveryDevice `json:"device"`
	StateTopic       string            `json:"state_topic"`
	CommandTopic     string            `json:"command_topic,omitempty"`
	AvTopic          string            `json:"availability_topic,omitempty"`
	Name             string            `json:"name"`
	UniqueId         string            `json:"unique_id"`
	Platform         string            `json:"platform"`
	EnabledByDefault *bool             `json:"enabled_by_default,omitempty"`
	PayloadOn        string            `json:"payload_on,omitempty"`
	PayloadOff       string            `json:"payload_off,omitempty"`
	Icon             string            `json:"icon,omitempty"`

	// fan
	PresetModeStateTopic   string   `json:"preset_mode_state_topic,omitempty"`
	PresetModeCommandTopic string   `json:"preset_mode_command_topic,omitempty"`
	PresetModes            []string `json:"preset_modes,omitempty"`
	DirectionStateTopic    string   `json:"direction_state_topic,omitempty"`
	DirectionCommandTopic  string   `json:"direction_command_topic,omitempty"`

	// light
	BrightnessStateTopic   string `json:"brightness_state_topic,omitempty"`
	BrightnessCommandTopic string `json:"brightness_command_topic,omitempty"`
	BrightnessScale        int    `json:"brightness_scale,omitempty"`
	OnCommandType          string `json:"on_command_type,omitempty"`
}

type HADiscoveryDevice struct {
	Id           []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Version      string   `json:"sw_version,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
	ViaDevice    string   `json:"via_device,omitempty"`
}

func GenericFanToHADiscoveryMessage(topics Topics, fan domain.GenericFan) HADiscoveryConfig {
	presets := make([]string, 0, len(fan.PresetModes))
	for _, mode := range fan.PresetModes {
		presets = append(presets, string(mode))
	}
	return HADiscoveryConfig{
		Device:                 device(fan.Device),
		StateTopic:             topics.AttributeStateTopic(domain.RoleFan, domain.ATTR_SWITCH),
		CommandTopic:           topics.CommandTopic(domain.RoleFan, domain.CMD_SWITCH),
		AvTopic:                topics.BridgeStateTopic(),
		Name:                   fan.Name,
		UniqueId:               fan.UniqueId,
		Icon:                   fan.Icon,
		Platform:               "mqtt",
		PayloadOn:              MQTT_PAYLOAD_ON,
		PayloadOff:             MQTT_PAYLOAD_OFF,
		PresetModeStateTopic:   topics.AttributeStateTopic(domain.RoleFan, domain.ATTR_LAST_RUNNING_SPEED),
		PresetModeCommandTopic: topics.CommandTopic(domain.RoleFan, domain.CMD_SPEED),
		PresetModes:            presets,
		DirectionStateTopic:    topics.AttributeStateTopic(domain.RoleFan, domain.ATTR_DIRECTION),
		DirectionCommandTopic:  topics.CommandTopic(domain.RoleFan, domain.CMD_DIRECTION),
	}
}

// GenericLightToHADiscoveryMessage sends HA's turn_on to the switch topic, with
// any brightness before it, so an off light is switched on at its preset level.
func GenericLightToHADiscoveryMessage(topics Topics, light domain.GenericLight) HADiscoveryConfig {
	return HADiscoveryConfig{
		Device:                 device(light.Device),
		StateTopic:             topics.AttributeStateTopic(domain.RoleLight, domain.ATTR_SWITCH),
		CommandTopic:           topics.CommandTopic(domain.RoleLight, domain.CMD_SWITCH),
		AvTopic:                topics.BridgeStateTopic(),
		Name:                   light.Name,
		UniqueId:               light.UniqueId,
		Icon:                   light.Icon,
		Platform:               "mqtt",
		PayloadOn:              MQTT_PAYLOAD_ON,
		PayloadOff:             MQTT_PAYLOAD_OFF,
		BrightnessStateTopic:   topics.AttributeStateTopic(domain.RoleLight, domain.ATTR_LEVEL),
		BrightnessCommandTopic: topics.CommandTopic(domain.RoleLight, domain.CMD_LEVEL),
		BrightnessScale:        100,
		OnCommandType:          "last",
	}
}

func device(d domain.Device) HADiscoveryDevice {
	return HADiscoveryDevice{
		Id:           []string{d.Id},
		Manufacturer: d.Manufacturer,
		Version:      d.Version,
		Model:        d.Model,
		Name:         d.Name,
		ViaDevice:    d.ViaDevice,
	}
}

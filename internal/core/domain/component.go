package domain

import (
	"fmt"

	"github.com/carlmjohnson/versioninfo"
)

const (
	MANUFACTURER = "fanlight2mqtt"
)

type Device struct {
	Id           string
	Name         string
	Version      string
	Model        string
	Manufacturer string
	ViaDevice    string
}

type GenericFan struct {
	Device      Device
	Id          string
	Name        string
	UniqueId    string
	Icon        string
	PresetModes []LogicalSpeed
}

type GenericLight struct {
	Device   Device
	Id       string
	Name     string
	UniqueId string
	Icon     string
}

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           baseTopic,
		Name:         "Fan/Light Bridge",
		Version:      versioninfo.Short(),
		Model:        "fanlight2mqtt",
		Manufacturer: MANUFACTURER,
	}
}

func ApplianceDevice(id, name string, bridge Device) Device {
	return Device{
		Id:           id,
		Name:         name,
		Model:        "Ceiling fan",
		Manufacturer: MANUFACTURER,
		ViaDevice:    bridge.Id,
	}
}

func FanComponent(device Device) GenericFan {
	key := ChildEntityKey{ParentId: device.Id, Role: RoleFan}
	return GenericFan{
		Device:      device,
		Id:          RoleFan.String(),
		Name:        fmt.Sprintf("%s Fan", device.Name),
		UniqueId:    key.String(),
		Icon:        "mdi:ceiling-fan",
		PresetModes: RunningSpeeds,
	}
}

func LightComponent(device Device) GenericLight {
	key := ChildEntityKey{ParentId: device.Id, Role: RoleLight}
	return GenericLight{
		Device:   device,
		Id:       RoleLight.String(),
		Name:     fmt.Sprintf("%s Light", device.Name),
		UniqueId: key.String(),
		Icon:     "mdi:ceiling-fan-light",
	}
}

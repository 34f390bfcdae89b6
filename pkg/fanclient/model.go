package fanclient

const (
	DirectionForward = "forward"
	DirectionReverse = "reverse"

	KEY_QUERY            = "queryDynamicShadowData"
	KEY_LIGHT_ON         = "lightOn"
	KEY_LIGHT_BRIGHTNESS = "lightBrightness"
	KEY_FAN_ON           = "fanOn"
	KEY_FAN_SPEED        = "fanSpeed"
	KEY_FAN_DIRECTION    = "fanDirection"
	KEY_REBOOT           = "reboot"
)

// CommandBody is the JSON object posted to the appliance.
type CommandBody map[string]any

// Response is the raw JSON object returned by the appliance.
type Response map[string]any

// PhysicalState is the appliance's own view of the fan and the light, as
// returned by a single exchange. FanSpeed is nil when the appliance reports null.
type PhysicalState struct {
	LightOn         bool   `json:"lightOn"`
	LightBrightness int    `json:"lightBrightness"`
	FanOn           bool   `json:"fanOn"`
	FanSpeed        *int   `json:"fanSpeed"`
	FanDirection    string `json:"fanDirection"`
}

func QueryCommand() CommandBody {
	return CommandBody{KEY_QUERY: 1}
}

func RebootCommand() CommandBody {
	return CommandBody{KEY_REBOOT: true}
}

func DirectionCommand(direction string) CommandBody {
	return CommandBody{KEY_FAN_DIRECTION: direction}
}

// Speed returns the physical fan speed, mapping a null speed to 0.
func (s PhysicalState) Speed() int {
	if s.FanSpeed == nil {
		return 0
	}
	return *s.FanSpeed
}

func IntPtr(v int) *int {
	return &v
}

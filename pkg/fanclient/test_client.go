package fanclient

import (
	"context"
	"sync"
)

// TestClient simulates an appliance in memory. Like the real unit, turning the
// fan off keeps the last speed in the state document.
type TestClient struct {
	mu       sync.Mutex
	state    PhysicalState
	commands []CommandBody
	failures []error
	raw      Response
}

func CreateTestClient(initial PhysicalState) *TestClient {
	return &TestClient{state: initial}
}

func DefaultTestState() PhysicalState {
	return PhysicalState{
		LightOn:         false,
		LightBrightness: 40,
		FanOn:           true,
		FanSpeed:        IntPtr(3),
		FanDirection:    DirectionForward,
	}
}

// FailNext queues errors returned by the next exchanges, one per call.
func (c *TestClient) FailNext(errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, errs...)
}

// RespondWith replaces every answer with raw until cleared with nil.
func (c *TestClient) RespondWith(raw Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.raw = raw
}

func (c *TestClient) SetState(state PhysicalState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

func (c *TestClient) State() PhysicalState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Commands returns every body received so far, queries included.
func (c *TestClient) Commands() []CommandBody {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CommandBody, len(c.commands))
	copy(out, c.commands)
	return out
}

func (c *TestClient) SendCommand(ctx context.Context, body CommandBody) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, body)
	if len(c.failures) > 0 {
		err := c.failures[0]
		c.failures = c.failures[1:]
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, &TransportTimeoutError{URL: "test", Err: err}
	}
	c.apply(body)
	if c.raw != nil {
		return c.raw, nil
	}
	return c.response(), nil
}

func (c *TestClient) FetchState(ctx context.Context) (*PhysicalState, error) {
	return fetchState(ctx, c)
}

func (c *TestClient) Reboot(ctx context.Context) error {
	_, err := c.SendCommand(ctx, RebootCommand())
	return err
}

func (c *TestClient) SetDirection(ctx context.Context, direction string) error {
	return setDirection(ctx, c, direction)
}

func (c *TestClient) apply(body CommandBody) {
	if v, ok := body[KEY_LIGHT_ON].(bool); ok {
		c.state.LightOn = v
	}
	if v, ok := number(body[KEY_LIGHT_BRIGHTNESS]); ok {
		c.state.LightBrightness = v
	}
	if v, ok := body[KEY_FAN_ON].(bool); ok {
		c.state.FanOn = v
	}
	if v, ok := number(body[KEY_FAN_SPEED]); ok {
		c.state.FanSpeed = IntPtr(v)
	}
	if v, ok := body[KEY_FAN_DIRECTION].(string); ok {
		c.state.FanDirection = v
	}
}

func (c *TestClient) response() Response {
	resp := Response{
		KEY_LIGHT_ON:         c.state.LightOn,
		KEY_LIGHT_BRIGHTNESS: float64(c.state.LightBrightness),
		KEY_FAN_ON:           c.state.FanOn,
		KEY_FAN_SPEED:        nil,
		KEY_FAN_DIRECTION:    c.state.FanDirection,
	}
	if c.state.FanSpeed != nil {
		resp[KEY_FAN_SPEED] = float64(*c.state.FanSpeed)
	}
	return resp
}

func number(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}

// ensure interface compliance
var _ Client = (*TestClient)(nil)

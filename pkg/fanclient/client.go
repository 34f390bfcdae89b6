package fanclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client talks to a single appliance. Implementations never retry.
type Client interface {
	SendCommand(ctx context.Context, body CommandBody) (Response, error)
	FetchState(ctx context.Context) (*PhysicalState, error)
	Reboot(ctx context.Context) error
	SetDirection(ctx context.Context, direction string) error
}

type HTTPClient struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

func CreateHTTPClient(host string, port uint, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	addr := host
	if port != 0 && port != 80 {
		addr = net.JoinHostPort(host, fmt.Sprintf("%d", port))
	}
	return &HTTPClient{
		url:     fmt.Sprintf("http://%s/mf", addr),
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *HTTPClient) SendCommand(ctx context.Context, body CommandBody) (Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{URL: c.url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("fanclient: send", zap.String("url", c.url), zap.ByteString("body", payload))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{URL: c.url, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(err)
	}
	var result Response
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &MalformedResponseError{Reason: err.Error()}
	}
	return result, nil
}

func (c *HTTPClient) FetchState(ctx context.Context) (*PhysicalState, error) {
	return fetchState(ctx, c)
}

func (c *HTTPClient) Reboot(ctx context.Context) error {
	_, err := c.SendCommand(ctx, RebootCommand())
	return err
}

func (c *HTTPClient) SetDirection(ctx context.Context, direction string) error {
	return setDirection(ctx, c, direction)
}

func (c *HTTPClient) transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TransportTimeoutError{URL: c.url, Timeout: c.timeout, Err: err}
	}
	return &TransportError{URL: c.url, Err: err}
}

func fetchState(ctx context.Context, c Client) (*PhysicalState, error) {
	resp, err := c.SendCommand(ctx, QueryCommand())
	if err != nil {
		return nil, err
	}
	return ParseState(resp)
}

func setDirection(ctx context.Context, c Client, direction string) error {
	if direction != DirectionForward && direction != DirectionReverse {
		return fmt.Errorf("fanclient: invalid direction %q", direction)
	}
	_, err := c.SendCommand(ctx, DirectionCommand(direction))
	return err
}

// ensure interface compliance
var _ Client = (*HTTPClient)(nil)

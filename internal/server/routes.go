package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/berfenger/fanlight2mqtt/internal/core/domain"
	"github.com/berfenger/fanlight2mqtt/internal/core/service"
	"github.com/berfenger/fanlight2mqtt/pkg/fanclient"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type commandRequest struct {
	Value any `json:"value"`
}

type commandResult struct {
	Command string `json:"command"`
	Error   string `json:"error,omitempty"`
}

type errorResult struct {
	Error string `json:"error"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)

	api := e.Group("/api")
	api.GET("/state", s.StateHandler)
	api.PUT("/config/entities", s.UpdateEntityConfigHandler)
	api.POST("/:role/:command", s.CommandHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, REQUEST_TIMEOUT).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) StateHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetStateRequest{}, REQUEST_TIMEOUT).Result()
	if err != nil {
		return c.JSON(http.StatusGatewayTimeout, errorResult{Error: err.Error()})
	}
	state, ok := res.(domain.GetStateResponse)
	if !ok {
		return c.JSON(http.StatusInternalServerError, errorResult{Error: fmt.Sprintf("unexpected response %T", res)})
	}
	return c.JSON(http.StatusOK, state)
}

// CommandHandler accepts the same role/command/payload triple as the MQTT
// command topics. The payload goes in the optional "value" field.
func (s *Server) CommandHandler(c echo.Context) error {
	var req commandRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResult{Error: err.Error()})
		}
	}
	payload := ""
	if req.Value != nil {
		payload = fmt.Sprint(req.Value)
	}

	cmd, err := domain.ParseEntityCommand(c.Param("role"), c.Param("command"), payload)
	if err != nil {
		s.logger.Debug("server: invalid command", zap.String("role", c.Param("role")), zap.String("command", c.Param("command")), zap.Error(err))
		return c.JSON(statusForError(err), errorResult{Error: err.Error()})
	}

	res, err := s.rootContext.RequestFuture(s.masterActor, cmd, REQUEST_TIMEOUT).Result()
	if err != nil {
		return c.JSON(http.StatusGatewayTimeout, commandResult{Command: cmd.CommandName(), Error: err.Error()})
	}
	resp, ok := res.(domain.EntityCommandResponse)
	if !ok {
		return c.JSON(http.StatusInternalServerError, errorResult{Error: fmt.Sprintf("unexpected response %T", res)})
	}
	if resp.HasResponseError() {
		return c.JSON(statusForError(resp.GetResponseError()), commandResult{Command: resp.Command, Error: resp.GetResponseError().Error()})
	}
	return c.JSON(http.StatusOK, commandResult{Command: resp.Command})
}

func (s *Server) UpdateEntityConfigHandler(c echo.Context) error {
	var cfg domain.EntityConfig
	if err := c.Bind(&cfg); err != nil {
		return c.JSON(http.StatusBadRequest, errorResult{Error: err.Error()})
	}
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.UpdateEntityConfigRequest{Config: cfg}, REQUEST_TIMEOUT).Result()
	if err != nil {
		return c.JSON(http.StatusGatewayTimeout, errorResult{Error: err.Error()})
	}
	resp, ok := res.(domain.UpdateEntityConfigResponse)
	if !ok {
		return c.JSON(http.StatusInternalServerError, errorResult{Error: fmt.Sprintf("unexpected response %T", res)})
	}
	if resp.HasResponseError() {
		return c.JSON(http.StatusBadRequest, errorResult{Error: resp.GetResponseError().Error()})
	}
	return c.JSON(http.StatusOK, cfg)
}

func statusForError(err error) int {
	var unknownEntity *domain.UnknownChildEntityError
	var invalidSpeed *domain.InvalidSpeedError
	var timeout *fanclient.TransportTimeoutError
	var transport *fanclient.TransportError
	var malformed *fanclient.MalformedResponseError
	switch {
	case errors.As(err, &unknownEntity):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCommand),
		errors.Is(err, service.ErrUnknownCurrentSpeed),
		errors.Is(err, service.ErrUnknownCurrentDirection),
		errors.As(err, &invalidSpeed):
		return http.StatusBadRequest
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &transport), errors.As(err, &malformed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

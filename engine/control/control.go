// Package control exposes the viewer's entry points over HTTP.
package control

import (
	"context"
	"errors"
	"net/http"

	"github.com/Carmen-Shannon/oxy-volume/common"
	"github.com/Carmen-Shannon/oxy-volume/engine/colormap"
	"github.com/Carmen-Shannon/oxy-volume/engine/loader"
	"github.com/Carmen-Shannon/oxy-volume/engine/params"
	"github.com/Carmen-Shannon/oxy-volume/engine/profiler"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Viewer is the set of viewer operations the API drives.
type Viewer interface {
	LoadVolume(ref string) *loader.Future
	VolumeStatus() loader.Status
	SetMode(m params.Mode)
	SetParameters(values map[string]float32) (params.Parameters, error)
	Parameters() params.Parameters
	SetColormap(name string) error
	RequestScreenshot(path string)
	Stats() profiler.Stats
}

// Server serves the control API.
type Server struct {
	echo    *echo.Echo
	viewer  Viewer
	address string
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddress sets the listen address.
//
// Parameters:
//   - address: a host:port pair
//
// Returns:
//   - ServerOption: the option
func WithAddress(address string) ServerOption {
	return func(s *Server) {
		s.address = address
	}
}

// NewServer creates the API server and registers its routes.
//
// Parameters:
//   - v: the viewer to drive
//   - options: optional ServerOptions
//
// Returns:
//   - *Server: the server, not yet listening
func NewServer(v Viewer, options ...ServerOption) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{echo: e, viewer: v, address: "127.0.0.1:8085"}
	for _, opt := range options {
		opt(s)
	}

	e.POST("/volume", s.loadVolume)
	e.GET("/volume", s.volumeStatus)
	e.PUT("/mode", s.setMode)
	e.GET("/params", s.getParams)
	e.PATCH("/params", s.patchParams)
	e.PUT("/colormap", s.setColormap)
	e.GET("/colormaps", s.listColormaps)
	e.POST("/screenshot", s.screenshot)
	e.GET("/stats", s.stats)
	return s
}

// Handler returns the HTTP handler serving the routes.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on the configured address and blocks until Shutdown.
//
// Returns:
//   - error: nil after a clean Shutdown, the listen error otherwise
func (s *Server) Start() error {
	common.Logger().Info("control api listening", "address", s.address)
	if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type errorBody struct {
	Error string `json:"error"`
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, errorBody{Error: msg})
}

type loadRequest struct {
	Source string `json:"source"`
}

type loadResponse struct {
	Generation uint64 `json:"generation"`
	Source     string `json:"source"`
}

func (s *Server) loadVolume(c echo.Context) error {
	var req loadRequest
	if err := c.Bind(&req); err != nil || req.Source == "" {
		return fail(c, http.StatusBadRequest, "body must be {\"source\": \"<path or url>\"}")
	}
	f := s.viewer.LoadVolume(req.Source)
	return c.JSON(http.StatusAccepted, loadResponse{Generation: f.Generation(), Source: f.Source()})
}

func (s *Server) volumeStatus(c echo.Context) error {
	st := s.viewer.VolumeStatus()
	if st.Volume == nil && st.Pending == 0 && st.LastError == "" {
		return fail(c, http.StatusNotFound, "no volume loaded")
	}
	return c.JSON(http.StatusOK, st)
}

type modeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) setMode(c echo.Context) error {
	var req modeRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	m, err := params.ParseMode(req.Mode)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	s.viewer.SetMode(m)
	return c.JSON(http.StatusOK, modeRequest{Mode: m.String()})
}

func (s *Server) getParams(c echo.Context) error {
	return c.JSON(http.StatusOK, s.viewer.Parameters())
}

func (s *Server) patchParams(c echo.Context) error {
	var req map[string]float32
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	p, err := s.viewer.SetParameters(req)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

type colormapRequest struct {
	Name string `json:"name"`
}

func (s *Server) setColormap(c echo.Context) error {
	var req colormapRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	if err := s.viewer.SetColormap(req.Name); err != nil {
		if errors.Is(err, colormap.ErrUnknownColormap) {
			return fail(c, http.StatusNotFound, err.Error())
		}
		return fail(c, http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, colormapRequest{Name: req.Name})
}

type colormapList struct {
	Colormaps []string `json:"colormaps"`
	Current   string   `json:"current"`
}

func (s *Server) listColormaps(c echo.Context) error {
	return c.JSON(http.StatusOK, colormapList{Colormaps: colormap.Names(), Current: s.viewer.Parameters().Colormap})
}

type screenshotRequest struct {
	Path string `json:"path"`
}

func (s *Server) screenshot(c echo.Context) error {
	var req screenshotRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return fail(c, http.StatusBadRequest, err.Error())
		}
	}
	s.viewer.RequestScreenshot(req.Path)
	return c.JSON(http.StatusAccepted, req)
}

func (s *Server) stats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.viewer.Stats())
}

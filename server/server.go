// Package server exposes the parser over HTTP.
package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/javajack/xlparse"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// MaxUploadBytes bounds the size of an uploaded workbook.
const MaxUploadBytes = 64 << 20

// Server handles parse requests with a default configuration.
type Server struct {
	Echo *echo.Echo
	cfg  *xlparse.Config
	log  zerolog.Logger
	opts []xlparse.Option
}

// ParseResponse is the body of a successful parse.
type ParseResponse struct {
	Columns []Column `json:"columns"`
	Records [][]any  `json:"records"`
}

// Column describes one output column.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// New creates a Server. cfg may be nil, in which case every request must
// carry its own configuration.
func New(cfg *xlparse.Config, log zerolog.Logger, opts ...xlparse.Option) *Server {
	s := &Server{
		Echo: echo.New(),
		cfg:  cfg,
		log:  log,
		opts: append([]xlparse.Option{xlparse.WithLogger(log)}, opts...),
	}
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.RegisterMiddlewares()
	s.RegisterRoutes()
	return s
}

// RegisterMiddlewares installs recovery, body limits and request logging.
func (s *Server) RegisterMiddlewares() {
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.BodyLimit(fmt.Sprintf("%dM", MaxUploadBytes>>20)))
	s.Echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			s.log.Info().
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Int("status", c.Response().Status).
				Msg("request")
			return nil
		}
	})
}

// RegisterRoutes mounts the handlers.
func (s *Server) RegisterRoutes() {
	s.Echo.GET("/healthz", s.HealthHandler)
	s.Echo.POST("/parse", s.ParseHandler)
}

// Start listens on addr.
func (s *Server) Start(addr string) error {
	s.log.Info().Str("addr", addr).Msg("listening")
	return s.Echo.Start(addr)
}

// HealthHandler answers liveness checks.
func (s *Server) HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ParseHandler parses the multipart "file" upload. An optional "config"
// form value replaces the server configuration.
func (s *Server) ParseHandler(c echo.Context) error {
	cfg := s.cfg
	if text := c.FormValue("config"); text != "" {
		parsed, err := xlparse.ParseConfig([]byte(text))
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		}
		cfg = parsed
	}
	if cfg == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "config is required"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	var w xlparse.MemoryWriter
	if err := s.parse(c, f, cfg, &w); err != nil {
		return c.JSON(statusOf(err), ErrorResponse{Error: err.Error()})
	}

	p, err := xlparse.NewParser(cfg)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	resp := ParseResponse{Records: w.Rows()}
	for _, col := range p.Schema() {
		resp.Columns = append(resp.Columns, Column{Name: col.Name, Type: col.Type.String()})
	}
	if resp.Records == nil {
		resp.Records = [][]any{}
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) parse(c echo.Context, r io.Reader, cfg *xlparse.Config, w xlparse.RecordWriter) error {
	g, err := xlparse.OpenReader(r)
	if err != nil {
		return &badWorkbookError{err}
	}
	defer g.Close()
	return xlparse.ParseGrid(c.Request().Context(), g, cfg, w, s.opts...)
}

type badWorkbookError struct{ err error }

func (e *badWorkbookError) Error() string { return e.err.Error() }
func (e *badWorkbookError) Unwrap() error { return e.err }

// statusOf maps parse failures: configuration problems and unreadable
// workbooks are 400, cell failures 422, anything else 500.
func statusOf(err error) int {
	var (
		cfgErr  *xlparse.ConfigError
		cellErr *xlparse.CellError
		bad     *badWorkbookError
	)
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &bad), errors.Is(err, xlparse.ErrSheetNotFound):
		return http.StatusBadRequest
	case errors.As(err, &cellErr):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

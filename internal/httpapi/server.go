// Package httpapi serves the read-only query API over the record store.
// Ingestion happens through the CLI; nothing here writes.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"ivdwatch.dev/ivdmon/internal/classify"
	"ivdwatch.dev/ivdmon/internal/db"
	"ivdwatch.dev/ivdmon/internal/directory"
	"ivdwatch.dev/ivdmon/internal/globaltime"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 200
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	pool   *db.Pool
	dir    *directory.Directory
	logger zerolog.Logger
	opts   Options
}

func NewServer(pool *db.Pool, dir *directory.Directory, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8090
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		pool:   pool,
		dir:    dir,
		logger: logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
	}
}

func (s *Server) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/records", s.handleRecords)
	api.GET("/records/:id", s.handleRecordDetail)
	api.GET("/search", s.handleSearch)
	api.GET("/metrics", s.handleMetrics)
	api.GET("/companies", s.handleCompanies)
	api.GET("/categories", s.handleCategories)

	return e
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.newEcho()

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("ivdmon api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("ivdmon api server stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.pool.DB().PingContext(c.Request().Context()); err != nil {
		s.logger.Error().Err(err).Msg("health ping failed")
		return internalError(c, "Database unreachable")
	}
	return success(c, map[string]any{
		"service": "ivdmon",
		"time":    globaltime.Stamp(),
	})
}

func (s *Server) handleRecords(c echo.Context) error {
	day := strings.TrimSpace(c.QueryParam("day"))
	if day == "" {
		return failValidation(c, map[string]string{"day": "is required (YYYY-MM-DD)"})
	}
	if _, err := time.Parse("2006-01-02", db.DatePart(day)); err != nil {
		return failValidation(c, map[string]string{"day": "must be YYYY-MM-DD"})
	}

	filter := db.DayFilter{
		Category: strings.TrimSpace(c.QueryParam("category")),
		Company:  strings.TrimSpace(c.QueryParam("company")),
		Region:   strings.TrimSpace(c.QueryParam("region")),
	}
	items, err := s.pool.RecordsForDay(c.Request().Context(), day, filter)
	if err != nil {
		s.logger.Error().Err(err).Str("day", day).Msg("query records failed")
		return internalError(c, "Failed to load records")
	}

	return success(c, map[string]any{
		"items": items,
		"filters": map[string]any{
			"day":      db.DatePart(day),
			"category": filter.Category,
			"company":  filter.Company,
			"region":   filter.Region,
		},
	})
}

func (s *Server) handleRecordDetail(c echo.Context) error {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		return failValidation(c, map[string]string{"id": "must be a positive integer"})
	}

	record, err := s.pool.RecordByID(c.Request().Context(), id)
	if err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "Record not found")
		}
		s.logger.Error().Err(err).Int64("record_id", id).Msg("query record failed")
		return internalError(c, "Failed to load record")
	}
	return success(c, record)
}

func (s *Server) handleSearch(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return failValidation(c, map[string]string{"q": "is required"})
	}
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultSearchLimit, 1, maxSearchLimit)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	items, err := s.pool.SearchRecords(c.Request().Context(), query, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("q", query).Msg("search records failed")
		return internalError(c, "Failed to search records")
	}

	return success(c, map[string]any{
		"items": items,
		"q":     query,
		"limit": limit,
	})
}

func (s *Server) handleMetrics(c echo.Context) error {
	from := strings.TrimSpace(c.QueryParam("from"))
	to := strings.TrimSpace(c.QueryParam("to"))
	for name, value := range map[string]string{"from": from, "to": to} {
		if value == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", db.DatePart(value)); err != nil {
			return failValidation(c, map[string]string{name: "must be YYYY-MM-DD"})
		}
	}

	metrics, err := s.pool.QueryIngestionMetrics(c.Request().Context(), from, to)
	if err != nil {
		s.logger.Error().Err(err).Msg("query ingestion metrics failed")
		return internalError(c, "Failed to load metrics")
	}
	return success(c, metrics)
}

type companyItem struct {
	Name        string   `json:"name"`
	EnglishName string   `json:"english_name,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

func (s *Server) handleCompanies(c echo.Context) error {
	companies := s.dir.Companies()
	items := make([]companyItem, 0, len(companies))
	for _, company := range companies {
		items = append(items, companyItem{
			Name:        company.Name,
			EnglishName: company.EnglishName,
			Aliases:     company.Aliases,
			Keywords:    company.Keywords,
		})
	}
	return success(c, map[string]any{"items": items})
}

type categoryItem struct {
	ID     string `json:"id"`
	NameEN string `json:"name_en"`
	NameZH string `json:"name_zh"`
}

func (s *Server) handleCategories(c echo.Context) error {
	items := make([]categoryItem, 0, len(classify.OrderedCategories))
	for _, category := range classify.OrderedCategories {
		items = append(items, categoryItem{
			ID:     string(category),
			NameEN: classify.DisplayName(category, "en"),
			NameZH: classify.DisplayName(category, "zh"),
		})
	}
	return success(c, map[string]any{"items": items})
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}

package server

import (
	"net/http"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

// accessLogger logs every request through zerolog.
func accessLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info().
				Str("remote_ip", c.RealIP()).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

// errorHandler maps domain errors to HTTP statuses: missing resources to
// 404, malformed input to 400, everything else to an undifferentiated
// 500. Full detail is logged server-side; the client only sees the
// status text.
func errorHandler(err error, c echo.Context) {
	status := http.StatusInternalServerError
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
	} else {
		switch errbuilder.CodeOf(err) {
		case errbuilder.CodeNotFound:
			status = http.StatusNotFound
		case errbuilder.CodeInvalidArgument:
			status = http.StatusBadRequest
		}
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Request().URL.Path).
		Int("status", status).
		Msg("request failed")

	if c.Response().Committed {
		return
	}
	if werr := c.String(status, http.StatusText(status)); werr != nil {
		log.Error().Err(werr).Msg("failed to write error response")
	}
}

package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const RequestIDHeader = "X-Request-ID"

const requestIDKey = "careregistry.request_id"

// RequestID assigns each request an identifier, preserving one supplied by
// the client, and echoes it back in the response header.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(RequestIDHeader)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Set(requestIDKey, rid)
			c.Response().Header().Set(RequestIDHeader, rid)
			return next(c)
		}
	}
}

// RequestIDFrom returns the identifier assigned by RequestID, falling back
// to the response header so log lines stay correlated even when another
// component set the header directly.
func RequestIDFrom(c echo.Context) string {
	if rid, ok := c.Get(requestIDKey).(string); ok && rid != "" {
		return rid
	}
	return c.Response().Header().Get(RequestIDHeader)
}

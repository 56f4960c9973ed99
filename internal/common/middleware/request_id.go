package middleware

import (
	"crypto/rand"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/oklog/ulid/v2"
)

const RequestIDKey = "X-Request-ID"

// RequestID keeps the caller's X-Request-ID or assigns a new ULID, and
// echoes it on the response.
func RequestID() fiber.Handler {
	return func(c fiber.Ctx) error {
		requestID := c.Get(RequestIDKey)
		if requestID == "" {
			requestID = NewULID(time.Now())
		}

		c.Locals(RequestIDKey, requestID)
		c.Set(RequestIDKey, requestID)

		return c.Next()
	}
}

func GetRequestID(c fiber.Ctx) string {
	if id, ok := c.Locals(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

func NewULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

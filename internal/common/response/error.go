package response

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"floorplan-service/internal/common/log"
)

type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}

// Wrap attaches an HTTP status to an existing error.
func Wrap(code int, err error) error {
	return &Error{code, err}
}

// ============================================================
// Fiber error handler
// ============================================================

// ErrorHandler renders errors as {"error": msg}. Anything that is not a
// response.Error or fiber.Error is a 500 and gets logged with a trace id.
func ErrorHandler(requestID func(fiber.Ctx) string) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		var respErr *Error
		if errors.As(err, &respErr) {
			if respErr.Code >= fiber.StatusInternalServerError {
				log.Error(log.Fields{
					"request_id": requestID(c),
					"path":       c.Path(),
					"code":       respErr.Code,
					"error":      err.Error(),
				}, "[HTTP] request failed")
			}
			return c.Status(respErr.Code).JSON(fiber.Map{"error": respErr.Error()})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}

		traceID := log.ErrorWithTraceID(log.Fields{
			"request_id": requestID(c),
			"path":       c.Path(),
			"error":      err.Error(),
		}, "[HTTP] unexpected error")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":    "An unexpected error occurred",
			"trace_id": traceID,
		})
	}
}

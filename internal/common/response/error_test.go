package response

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"

	"floorplan-service/internal/common/log"
)

func TestMain(m *testing.M) {
	log.Init(log.Options{Level: "error"})
	os.Exit(m.Run())
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("handler: %w", NewError(404, "floor plan not found"))

	if !errors.Is(err, NewError(404, "floor plan not found")) {
		t.Fatal("expected match on code and message")
	}
	if errors.Is(err, NewError(400, "floor plan not found")) {
		t.Fatal("different code must not match")
	}

	var respErr *Error
	if !errors.As(err, &respErr) || respErr.Code != 404 {
		t.Fatalf("errors.As failed: %v", err)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	if !errors.Is(Wrap(500, cause), cause) {
		t.Fatal("wrapped cause must be reachable")
	}
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"response error", NewError(fiber.StatusBadRequest, "No file provided"), 400, `"error":"No file provided"`},
		{"fiber error", fiber.ErrNotFound, 404, `"error":"Not Found"`},
		{"unexpected", errors.New("boom"), 500, `"trace_id":"req-1"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{
				ErrorHandler: ErrorHandler(func(fiber.Ctx) string { return "req-1" }),
			})
			app.Get("/", func(c fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantCode {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(body), tt.wantBody) {
				t.Fatalf("body %s does not contain %s", body, tt.wantBody)
			}
		})
	}
}

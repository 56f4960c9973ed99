package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"floorplan-service/internal/common/log"
)

const (
	processPath = "/process"
	statusPath  = "/api/model-status"

	// maxDocumentSize caps the SVG body read from the service.
	maxDocumentSize = 32 << 20
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// HTTPEngine forwards images to a remote inference service as multipart
// uploads and reads the SVG document back.
type HTTPEngine struct {
	baseURL string
	client  *http.Client
}

func NewHTTPEngine(baseURL string, timeout time.Duration) *HTTPEngine {
	return &HTTPEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Process uploads the image and returns the raw SVG the service produced.
func (e *HTTPEngine) Process(ctx context.Context, image []byte, filename string) ([]byte, error) {
	if filename == "" {
		filename = "floorplan.png"
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+processPath, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	started := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	doc, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if len(bytes.TrimSpace(doc)) == 0 {
		return nil, ErrEmptyDocument
	}

	log.Debug(log.Fields{
		"filename": filename,
		"bytes":    len(doc),
		"took_ms":  time.Since(started).Milliseconds(),
	}, "[INFERENCE] document received")

	return doc, nil
}

func (e *HTTPEngine) Status(ctx context.Context) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+statusPath, nil)
	if err != nil {
		return Status{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Status{}, fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return Status{}, fmt.Errorf("decode status: %w", err)
	}
	return status, nil
}

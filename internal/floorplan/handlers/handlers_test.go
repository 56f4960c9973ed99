package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"floorplan-service/internal/common/log"
	"floorplan-service/internal/common/middleware"
	"floorplan-service/internal/common/response"
	"floorplan-service/internal/floorplan/assembler"
	"floorplan-service/internal/floorplan/inference"
	"floorplan-service/internal/floorplan/repository"
	"floorplan-service/internal/floorplan/storage"
)

const planSVG = `<svg xmlns="http://www.w3.org/2000/svg">
  <polygon class="wall" points="0,0 300,0 300,200 0,200"/>
  <rect class="door" x="40" y="0" transform="rotate(90)"/>
  <polygon class="room_bath" points="0,0 150,0 150,200 0,200"/>
  <text class="room_label" x="75" y="100">Bathroom</text>
</svg>`

func TestMain(m *testing.M) {
	log.Init(log.Options{Level: "error"})
	os.Exit(m.Run())
}

type fakeEngine struct {
	doc    string
	err    error
	status inference.Status
}

func (f *fakeEngine) Process(context.Context, []byte, string) ([]byte, error) {
	return []byte(f.doc), f.err
}

func (f *fakeEngine) Status(context.Context) (inference.Status, error) {
	return f.status, f.err
}

type testEnv struct {
	app   *fiber.App
	files *storage.FileStorage
}

func newTestEnv(t *testing.T, engine inference.Engine) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := repository.OpenSQLite(filepath.Join(dir, "db", "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := repository.New(db)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("init db: %v", err)
	}

	files := storage.NewFileStorage(filepath.Join(dir, "uploads"))
	asm := assembler.New(nil, nil, engine)

	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler(middleware.GetRequestID)})
	app.Use(middleware.RequestID())
	NewHealthHandler(repo, engine).Register(app)
	RegisterDocs(app)
	NewFloorPlanHandler(asm, repo, files).Register(app.Group("/api"))

	return &testEnv{app: app, files: files}
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := e.app.Test(req, fiber.TestConfig{Timeout: 30 * time.Second})
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, body
}

func uploadRequest(t *testing.T, path, filename string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write(data)
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func gridPNG(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.NRGBA{255, 255, 255, 255}
			if x%20 < 2 || y%20 < 2 {
				c = color.NRGBA{0, 0, 0, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decode(t *testing.T, body []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
}

// ============================================================
// Tests
// ============================================================

func TestHealth(t *testing.T) {
	env := newTestEnv(t, &fakeEngine{status: inference.Status{Loaded: true}})

	for _, path := range []string{"/", "/health/live", "/health/ready", "/health/startup"} {
		resp, body := env.do(t, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: status %d %s", path, resp.StatusCode, body)
		}
		if resp.Header.Get(middleware.RequestIDKey) == "" {
			t.Errorf("%s: missing request id", path)
		}
	}

	_, body := env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	var health struct {
		Status      string `json:"status"`
		ModelLoaded bool   `json:"model_loaded"`
	}
	decode(t, body, &health)
	if health.Status != "healthy" || !health.ModelLoaded {
		t.Fatalf("unexpected health %s", body)
	}
}

func TestModelStatus(t *testing.T) {
	env := newTestEnv(t, &fakeEngine{status: inference.Status{Loaded: true, DownloadProgress: 100, ModelPath: "model.pkl"}})

	resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/model-status", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	var status inference.Status
	decode(t, body, &status)
	if !status.Loaded || status.ModelPath != "model.pkl" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestValidate(t *testing.T) {
	env := newTestEnv(t, &fakeEngine{})

	resp, body := env.do(t, uploadRequest(t, "/api/validate", "plan.png", gridPNG(t, 400)))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	var res struct {
		IsValid    bool    `json:"is_valid"`
		Confidence float64 `json:"confidence"`
	}
	decode(t, body, &res)
	if !res.IsValid || res.Confidence != 1 {
		t.Fatalf("unexpected validation %s", body)
	}
}

func TestParseFloorplan_UploadErrors(t *testing.T) {
	env := newTestEnv(t, &fakeEngine{doc: planSVG})

	req := httptest.NewRequest(http.MethodPost, "/api/parse-floorplan", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	resp, body := env.do(t, req)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(string(body), "No file provided") {
		t.Fatalf("missing file: %d %s", resp.StatusCode, body)
	}

	resp, body = env.do(t, uploadRequest(t, "/api/parse-floorplan", "plan.gif", []byte("GIF89a")))
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(string(body), "Invalid file type") {
		t.Fatalf("bad extension: %d %s", resp.StatusCode, body)
	}
}

func TestParseFloorplan_Rejected(t *testing.T) {
	env := newTestEnv(t, &fakeEngine{doc: planSVG})

	resp, body := env.do(t, uploadRequest(t, "/api/parse-floorplan", "tiny.png", gridPNG(t, 100)))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	var rej struct {
		Error  string `json:"error"`
		Reason string `json:"reason"`
	}
	decode(t, body, &rej)
	if rej.Error != "Invalid floor plan image" || !strings.Contains(rej.Reason, "too small") {
		t.Fatalf("unexpected rejection %s", body)
	}
}

func TestParseFloorplan_EngineErrors(t *testing.T) {
	env := newTestEnv(t, inference.Disabled{})
	resp, body := env.do(t, uploadRequest(t, "/api/parse-floorplan", "plan.png", gridPNG(t, 400)))
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("disabled engine: %d %s", resp.StatusCode, body)
	}

	env = newTestEnv(t, &fakeEngine{err: io.ErrUnexpectedEOF})
	resp, body = env.do(t, uploadRequest(t, "/api/parse-floorplan", "plan.png", gridPNG(t, 400)))
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("failing engine: %d %s", resp.StatusCode, body)
	}
}

func TestParseFloorplan_StoresResult(t *testing.T) {
	env := newTestEnv(t, &fakeEngine{doc: planSVG})

	resp, body := env.do(t, uploadRequest(t, "/api/parse-floorplan", "my plan.png", gridPNG(t, 400)))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}

	var parsed struct {
		Success              bool    `json:"success"`
		ID                   string  `json:"id"`
		Filename             string  `json:"filename"`
		ValidationConfidence float64 `json:"validation_confidence"`
		Data                 struct {
			Walls []any `json:"walls"`
			Doors []struct {
				Rotation int `json:"rotation"`
			} `json:"doors"`
			Windows []any `json:"windows"`
			Rooms   []struct {
				Type string `json:"type"`
			} `json:"rooms"`
		} `json:"data"`
	}
	decode(t, body, &parsed)

	if !parsed.Success || parsed.ID == "" || parsed.Filename != "my_plan.png" {
		t.Fatalf("unexpected response %s", body)
	}
	if len(parsed.Data.Walls) != 4 || len(parsed.Data.Doors) != 1 || parsed.Data.Doors[0].Rotation != 90 {
		t.Fatalf("unexpected plan %s", body)
	}
	if parsed.Data.Windows == nil || len(parsed.Data.Windows) != 0 {
		t.Fatalf("windows must be an empty array, got %s", body)
	}
	if len(parsed.Data.Rooms) != 1 || parsed.Data.Rooms[0].Type != "BATHROOM" {
		t.Fatalf("unexpected rooms %s", body)
	}

	if _, err := os.Stat(env.files.ImagePath(parsed.ID, "my_plan.png")); err != nil {
		t.Fatalf("upload not kept: %v", err)
	}

	resp, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/results/"+parsed.ID, nil))
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"filename":"my_plan.png"`) {
		t.Fatalf("get result: %d %s", resp.StatusCode, body)
	}

	resp, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/results/"+parsed.ID+"/svg", nil))
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "image/svg+xml") {
		t.Fatalf("get svg: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if strings.Count(string(body), `class="wall"`) != 4 || !strings.Contains(string(body), ">Bathroom</text>") {
		t.Fatalf("unexpected svg %s", body)
	}

	resp, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/results/"+parsed.ID+"/document", nil))
	if resp.StatusCode != http.StatusOK || string(body) != planSVG {
		t.Fatalf("get document: %d %s", resp.StatusCode, body)
	}

	resp, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/results?limit=5", nil))
	var list struct {
		Count   int `json:"count"`
		Results []struct {
			ID    string `json:"id"`
			Walls int    `json:"walls"`
		} `json:"results"`
	}
	decode(t, body, &list)
	if resp.StatusCode != http.StatusOK || list.Count != 1 || list.Results[0].ID != parsed.ID || list.Results[0].Walls != 4 {
		t.Fatalf("list: %d %s", resp.StatusCode, body)
	}
}

func TestDeleteResult(t *testing.T) {
	env := newTestEnv(t, &fakeEngine{doc: planSVG})

	resp, body := env.do(t, uploadRequest(t, "/api/parse-floorplan", "plan.png", gridPNG(t, 400)))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	var parsed struct {
		ID string `json:"id"`
	}
	decode(t, body, &parsed)

	resp, body = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/results/"+parsed.ID, nil))
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: %d %s", resp.StatusCode, body)
	}
	if _, err := os.Stat(env.files.ResultDir(parsed.ID)); !os.IsNotExist(err) {
		t.Fatalf("upload dir must be removed, got %v", err)
	}

	resp, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/api/results/"+parsed.ID, nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted result still served: %d", resp.StatusCode)
	}

	resp, _ = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/results/"+parsed.ID, nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete: %d", resp.StatusCode)
	}
}

func TestResults_Errors(t *testing.T) {
	env := newTestEnv(t, &fakeEngine{})

	resp, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/api/results/missing", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing result: %d", resp.StatusCode)
	}

	for _, q := range []string{"0", "101", "abc"} {
		resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/results?limit="+q, nil))
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("limit=%s: %d %s", q, resp.StatusCode, body)
		}
	}

	resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/results", nil))
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"results":[]`) {
		t.Fatalf("empty list: %d %s", resp.StatusCode, body)
	}
}

func TestParseSVG(t *testing.T) {
	env := newTestEnv(t, &fakeEngine{})

	req := httptest.NewRequest(http.MethodPost, "/api/parse-svg", strings.NewReader(planSVG))
	req.Header.Set("Content-Type", "image/svg+xml")
	resp, body := env.do(t, req)
	if resp.StatusCode != http.StatusOK || strings.Count(string(body), `"thickness"`) != 4 {
		t.Fatalf("raw body: %d %s", resp.StatusCode, body)
	}

	resp, body = env.do(t, uploadRequest(t, "/api/parse-svg", "plan.svg", []byte(planSVG)))
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"BATHROOM"`) {
		t.Fatalf("multipart: %d %s", resp.StatusCode, body)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/parse-svg", strings.NewReader("<svg><polygon"))
	req.Header.Set("Content-Type", "image/svg+xml")
	resp, body = env.do(t, req)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"walls":[]`) {
		t.Fatalf("broken document must give an empty plan: %d %s", resp.StatusCode, body)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/parse-svg", nil)
	resp, _ = env.do(t, req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty body: %d", resp.StatusCode)
	}
}

func TestDocs(t *testing.T) {
	env := newTestEnv(t, &fakeEngine{})

	resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/docs/openapi.yaml", nil))
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "/api/parse-floorplan:") {
		t.Fatalf("openapi: %d", resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("openapi content type = %q", ct)
	}
	if !strings.Contains(string(body), "delete:") {
		t.Errorf("openapi must document result deletion")
	}

	resp, body = env.do(t, httptest.NewRequest(http.MethodGet, "/docs", nil))
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "/docs/openapi.yaml") {
		t.Fatalf("ui: %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("ui content type = %q", ct)
	}
}

func TestSecureFilename(t *testing.T) {
	tests := map[string]string{
		"plan.png":           "plan.png",
		"my plan.png":        "my_plan.png",
		"../../etc/pass.png": "pass.png",
		`C:\tmp\scan.jpg`:    "scan.jpg",
		"...":                "upload",
	}
	for in, want := range tests {
		if got := secureFilename(in); got != want {
			t.Errorf("secureFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

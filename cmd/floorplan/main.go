package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	jsoniter "github.com/json-iterator/go"

	"floorplan-service/internal/common/config"
	"floorplan-service/internal/common/log"
	"floorplan-service/internal/common/middleware"
	"floorplan-service/internal/common/response"
	"floorplan-service/internal/floorplan/assembler"
	"floorplan-service/internal/floorplan/classifier"
	"floorplan-service/internal/floorplan/handlers"
	"floorplan-service/internal/floorplan/inference"
	"floorplan-service/internal/floorplan/parser"
	"floorplan-service/internal/floorplan/repository"
	"floorplan-service/internal/floorplan/storage"
)

// ============================================================
// Floor Plan Service
// ============================================================

func main() {
	cfg := config.Load()
	log.Init(log.Options{Level: cfg.LogLevel, File: cfg.LogFile})

	if err := cfg.Validate(); err != nil {
		log.Fatal(log.Fields{"error": err.Error()}, "[MAIN] invalid configuration")
	}

	db, err := repository.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal(log.Fields{"error": err.Error(), "path": cfg.DBPath}, "[MAIN] open db")
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background()); err != nil {
		log.Fatal(log.Fields{"error": err.Error()}, "[MAIN] init db")
	}

	asm := assembler.New(newClassifier(cfg), newParser(cfg), newEngine(cfg))
	files := storage.NewFileStorage(cfg.UploadDir)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    cfg.BodyLimit(),
		AppName:      handlers.ServiceName,
		JSONEncoder:  jsoniter.Marshal,
		JSONDecoder:  jsoniter.Unmarshal,
		ErrorHandler: response.ErrorHandler(middleware.GetRequestID),
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// ============================================================
	// Routes
	// ============================================================

	handlers.NewHealthHandler(repo, asm.Engine()).Register(app)
	handlers.RegisterDocs(app)
	handlers.NewFloorPlanHandler(asm, repo, files).Register(app.Group("/api"))

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Info(log.Fields{
		"addr":       addr,
		"env":        cfg.Environment,
		"inference":  cfg.InferenceURL,
		"upload_dir": cfg.UploadDir,
	}, "[MAIN] starting floor plan service")

	go func() {
		if err := app.Listen(addr); err != nil {
			log.Fatal(log.Fields{"error": err.Error()}, "[MAIN] failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info(nil, "[MAIN] shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error(log.Fields{"error": err.Error()}, "[MAIN] shutdown")
	}
}

func newClassifier(cfg *config.Config) *classifier.Classifier {
	h := classifier.DefaultHeuristics()
	h.AcceptThreshold = cfg.AcceptThreshold

	opts := []classifier.Option{classifier.WithHeuristics(h)}
	if !cfg.EdgeDetection {
		opts = append(opts, classifier.WithEdgeDetector(nil))
	}
	return classifier.New(opts...)
}

func newParser(cfg *config.Config) *parser.Parser {
	policy, err := parser.ParseMatchPolicy(cfg.RoomMatchPolicy)
	if err != nil {
		log.Fatal(log.Fields{"error": err.Error()}, "[MAIN] room match policy")
	}
	return parser.New(
		parser.WithMatchPolicy(policy),
		parser.WithShapeOutlines(cfg.RoomShapeOutlines),
	)
}

func newEngine(cfg *config.Config) inference.Engine {
	if cfg.InferenceURL == "" {
		log.Warn(nil, "[MAIN] INFERENCE_URL not set, floor plan parsing is disabled")
		return inference.Disabled{}
	}
	return inference.NewHTTPEngine(cfg.InferenceURL, cfg.InferenceTimeoutDuration())
}

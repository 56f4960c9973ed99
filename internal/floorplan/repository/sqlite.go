package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"floorplan-service/internal/floorplan/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrNotFound = errors.New("floor plan not found")

const (
	DefaultListLimit = 20
	MaxListLimit     = 100

	// fixed width so created_at sorts lexically
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Record is one stored analysis: the assembled plan plus the raw document
// the inference engine returned.
type Record struct {
	ID         string           `json:"id"`
	Filename   string           `json:"filename"`
	Confidence float64          `json:"validation_confidence"`
	Plan       models.FloorPlan `json:"data"`
	Document   string           `json:"-"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Summary is a Record without the plan body.
type Summary struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Confidence float64   `json:"validation_confidence"`
	Walls      int       `json:"walls"`
	Doors      int       `json:"doors"`
	Windows    int       `json:"windows"`
	Rooms      int       `json:"rooms"`
	CreatedAt  time.Time `json:"created_at"`
}

// ============================================================
// SQLite Repository
// ============================================================

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Init applies the embedded migrations in file name order.
func (r *Repository) Init(ctx context.Context) error {
	if err := r.runMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Save stores a plan and returns the new record. The id is generated here.
func (r *Repository) Save(ctx context.Context, filename string, confidence float64, plan models.FloorPlan, document []byte) (*Record, error) {
	body, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}

	rec := &Record{
		ID:         uuid.NewString(),
		Filename:   filename,
		Confidence: confidence,
		Plan:       plan,
		Document:   string(document),
		CreatedAt:  r.now().UTC(),
	}

	_, err = r.db.ExecContext(ctx, `
        INSERT INTO floorplans (id, filename, validation_confidence, wall_count, door_count, window_count, room_count, plan, document, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `,
		rec.ID,
		rec.Filename,
		rec.Confidence,
		len(plan.Walls),
		len(plan.Doors),
		len(plan.Windows),
		len(plan.Rooms),
		string(body),
		rec.Document,
		rec.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert floor plan: %w", err)
	}
	return rec, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, filename, validation_confidence, plan, document, created_at
        FROM floorplans
        WHERE id = ?
    `, id)

	var rec Record
	var body, created string
	if err := row.Scan(&rec.ID, &rec.Filename, &rec.Confidence, &body, &rec.Document, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rec.Plan = models.EmptyFloorPlan()
	if err := json.Unmarshal([]byte(body), &rec.Plan); err != nil {
		return nil, fmt.Errorf("decode plan %s: %w", id, err)
	}
	normalize(&rec.Plan)

	t, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = t
	return &rec, nil
}

// List returns the most recent summaries first. limit is clamped to
// [1, MaxListLimit]; zero or less means DefaultListLimit.
func (r *Repository) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT id, filename, validation_confidence, wall_count, door_count, window_count, room_count, created_at
        FROM floorplans
        ORDER BY created_at DESC, id
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("list floor plans: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var s Summary
		var created string
		if err := rows.Scan(&s.ID, &s.Filename, &s.Confidence, &s.Walls, &s.Doors, &s.Windows, &s.Rooms, &created); err != nil {
			return nil, err
		}
		if s.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM floorplans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete floor plan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// OpenSQLite opens (and creates, if needed) the database at dbPath. The
// driver must be registered by the caller.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// ============================================================
// Helpers
// ============================================================

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at %q: %w", s, err)
	}
	return t, nil
}

// normalize keeps collections non-nil after decoding a "null" field.
func normalize(p *models.FloorPlan) {
	if p.Walls == nil {
		p.Walls = []models.Wall{}
	}
	if p.Doors == nil {
		p.Doors = []models.Door{}
	}
	if p.Windows == nil {
		p.Windows = []models.Window{}
	}
	if p.Rooms == nil {
		p.Rooms = []models.Room{}
	}
}

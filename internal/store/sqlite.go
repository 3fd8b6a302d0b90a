package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
	"github.com/google/uuid"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const assessmentsTable = "assessments"

var (
	assessmentColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "type", Type: field.TypeString},
		{Name: "answers", Type: field.TypeString, Size: 2147483647},
		{Name: "score", Type: field.TypeFloat64},
		{Name: "result", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeTime},
	}

	// assessmentTable mirrors what ent would generate for an Assessment
	// schema with an index on (type, created_at).
	assessmentTable = &schema.Table{
		Name:       assessmentsTable,
		Columns:    assessmentColumns,
		PrimaryKey: []*schema.Column{assessmentColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "assessment_type_created_at",
				Columns: []*schema.Column{assessmentColumns[1], assessmentColumns[5]},
			},
		},
	}

	selectColumns = []string{"id", "type", "answers", "score", "result", "created_at"}
)

// SQLiteStore keeps assessments in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	drv *entsql.Driver
}

// OpenSQLite opens the SQLite database at dsn, applies pragmas and
// migrates the schema.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps pragmas (and in-memory databases) stable.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	m, err := schema.NewMigrate(drv)
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Create(ctx, assessmentTable); err != nil {
		drv.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return &SQLiteStore{db: db, drv: drv}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) Assessments() AssessmentRepo {
	return &sqliteAssessments{db: s.db}
}

func (s *SQLiteStore) Backend() string { return "sqlite" }

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.drv.Close()
}

// applyPragmas configures SQLite for a small single-process service.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

type sqliteAssessments struct {
	db *sql.DB
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func (r *sqliteAssessments) Insert(ctx context.Context, a *Assessment) (string, error) {
	id := a.ID
	if id == "" {
		id = uuid.NewString()
	}
	answers, err := json.Marshal(nonNilAnswers(a.Answers))
	if err != nil {
		return "", fmt.Errorf("encode answers: %w", err)
	}

	query, args := builder().
		Insert(assessmentsTable).
		Columns(selectColumns...).
		Values(id, a.Type, string(answers), a.Score, a.Result, a.CreatedAt.UTC()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert assessment: %w", err)
	}
	return id, nil
}

func (r *sqliteAssessments) Get(ctx context.Context, id string) (*Assessment, error) {
	query, args := builder().
		Select(selectColumns...).
		From(entsql.Table(assessmentsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	a, err := scanAssessment(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get assessment: %w", err)
	}
	return a, nil
}

func (r *sqliteAssessments) List(ctx context.Context, opts ListOpts) ([]Assessment, error) {
	sel := builder().
		Select(selectColumns...).
		From(entsql.Table(assessmentsTable)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))
	if opts.Type != "" {
		sel.Where(entsql.EQ("type", opts.Type))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	out := make([]Assessment, 0)
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *sqliteAssessments) Count(ctx context.Context) (int64, error) {
	query, args := builder().
		Select(entsql.Count("*")).
		From(entsql.Table(assessmentsTable)).
		Query()

	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count assessments: %w", err)
	}
	return n, nil
}

func (r *sqliteAssessments) DeleteAll(ctx context.Context) (int64, error) {
	query, args := builder().Delete(assessmentsTable).Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete assessments: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row rowScanner) (*Assessment, error) {
	var (
		a       Assessment
		answers string
		created time.Time
	)
	if err := row.Scan(&a.ID, &a.Type, &answers, &a.Score, &a.Result, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	a.Answers = nonNilAnswers(a.Answers)
	a.CreatedAt = created.UTC()
	return &a, nil
}

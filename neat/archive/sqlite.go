package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteArchive keeps records in the elite_genomes table of a SQLite
// database file.
type SQLiteArchive struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteArchive(path string) *SQLiteArchive {
	return &SQLiteArchive{path: path}
}

func (a *SQLiteArchive) Init(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.path == "" {
		return errors.New("sqlite path is required")
	}
	if a.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", a.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	a.db = db
	return nil
}

func (a *SQLiteArchive) Put(ctx context.Context, record Record) error {
	db, err := a.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO elite_genomes (id, run_id, generation, rank, fitness, genome)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			generation = excluded.generation,
			rank = excluded.rank,
			fitness = excluded.fitness,
			genome = excluded.genome
	`, record.ID, record.RunID, record.Generation, record.Rank, record.Fitness, record.Genome)
	return err
}

func (a *SQLiteArchive) Get(ctx context.Context, id string) (Record, bool, error) {
	db, err := a.getDB()
	if err != nil {
		return Record{}, false, err
	}

	var record Record
	err = db.QueryRowContext(ctx, `
		SELECT id, run_id, generation, rank, fitness, genome
		FROM elite_genomes WHERE id = ?
	`, id).Scan(&record.ID, &record.RunID, &record.Generation, &record.Rank, &record.Fitness, &record.Genome)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	return record, true, nil
}

func (a *SQLiteArchive) ListGeneration(ctx context.Context, runID string, generation int) ([]Record, error) {
	db, err := a.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, run_id, generation, rank, fitness, genome
		FROM elite_genomes
		WHERE run_id = ? AND generation = ?
		ORDER BY rank, id
	`, runID, generation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var record Record
		if err := rows.Scan(&record.ID, &record.RunID, &record.Generation, &record.Rank, &record.Fitness, &record.Genome); err != nil {
			return nil, fmt.Errorf("scan elite genome: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (a *SQLiteArchive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

func (a *SQLiteArchive) getDB() (*sql.DB, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.db == nil {
		return nil, ErrNotInitialized
	}
	return a.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS elite_genomes (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			rank INTEGER NOT NULL,
			fitness REAL NOT NULL,
			genome BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS elite_genomes_run_generation
			ON elite_genomes (run_id, generation);
	`)
	return err
}

// --- pitfalls-server/db/db.go ---
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
	"go.uber.org/zap"

	"pitfalls-server/models"
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"

	DefaultSQLiteDSN = "file:responses.db?mode=rwc&_pragma=busy_timeout(5000)"
)

// Store is the submission record store. The underlying *sql.DB is a pool
// owned by the hosting process; each call borrows a connection for its own
// duration only.
type Store struct {
	db     *sql.DB
	driver Driver
	log    *zap.Logger
}

// InitDB opens the database and verifies the connection.
func InitDB(ctx context.Context, driver Driver, dsn string, logger *zap.Logger) (*Store, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = DefaultSQLiteDSN
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			return nil, fmt.Errorf("a DSN is required for the %s driver", driver)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	sqlDB, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Ping the database to verify connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("connected to database", zap.String("driver", string(driver)))
	return &Store{db: sqlDB, driver: driver, log: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Driver() Driver {
	return s.driver
}

// CreateSchema creates the tables if they are missing. There is no
// migration logic; existing tables are left as they are.
func (s *Store) CreateSchema(ctx context.Context) error {
	schemaSQL := schemaSQLite
	if s.driver == DriverPostgres {
		schemaSQL = schemaPostgres
	}
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}
	return nil
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS responses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT,
	test_date TEXT,
	email TEXT,
	scores TEXT
);

CREATE TABLE IF NOT EXISTS admin_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	action TEXT NOT NULL,
	actor TEXT NOT NULL,
	notes TEXT
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS responses (
	id BIGSERIAL PRIMARY KEY,
	name TEXT,
	test_date TEXT,
	email TEXT,
	scores TEXT
);

CREATE TABLE IF NOT EXISTS admin_events (
	id BIGSERIAL PRIMARY KEY,
	timestamp TEXT NOT NULL,
	action TEXT NOT NULL,
	actor TEXT NOT NULL,
	notes TEXT
);
`

// InsertResponse appends one submission and sets its generated id.
func (s *Store) InsertResponse(ctx context.Context, sub *models.Submission) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO responses (name, test_date, email, scores)
		VALUES ($1, $2, $3, $4) RETURNING id
	`, sub.Name, sub.TestDate, sub.Email, sub.Scores).Scan(&sub.ID)
	if err != nil {
		return fmt.Errorf("failed to insert response: %w", err)
	}
	return nil
}

// ListResponses returns every submission ordered by id.
func (s *Store) ListResponses(ctx context.Context) ([]models.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, test_date, email, scores FROM responses ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	defer rows.Close()

	var res []models.Submission
	for rows.Next() {
		var sub models.Submission
		var name, testDate, email, scores sql.NullString
		if err := rows.Scan(&sub.ID, &name, &testDate, &email, &scores); err != nil {
			return nil, fmt.Errorf("failed to scan response row: %w", err)
		}
		sub.Name, sub.TestDate, sub.Email, sub.Scores = name.String, testDate.String, email.String, scores.String
		res = append(res, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read responses: %w", err)
	}
	return res, nil
}

// CountResponses returns the number of stored submissions.
func (s *Store) CountResponses(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(id) FROM responses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return n, nil
}

// LogAdminEvent adds an entry to the admin_events table. Failures are logged
// and otherwise ignored.
func (s *Store) LogAdminEvent(ctx context.Context, actor, action, notes string) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_events (timestamp, action, actor, notes)
		VALUES ($1, $2, $3, $4)
	`, time.Now().UTC().Format(time.RFC3339), action, actor, notes)
	if err != nil {
		s.log.Error("failed to log admin event",
			zap.Error(err), zap.String("action", action), zap.String("actor", actor))
	}
}

// RecentAdminEvents returns the latest admin events, newest first.
func (s *Store) RecentAdminEvents(ctx context.Context, limit int) ([]models.AdminEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, action, actor, notes FROM admin_events ORDER BY id DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query admin events: %w", err)
	}
	defer rows.Close()

	var events []models.AdminEvent
	for rows.Next() {
		var ev models.AdminEvent
		var ts string
		var notes sql.NullString
		if err := rows.Scan(&ev.ID, &ts, &ev.Action, &ev.Actor, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan admin event: %w", err)
		}
		if ev.Timestamp, err = time.Parse(time.RFC3339, ts); err != nil {
			s.log.Warn("admin event has an invalid timestamp",
				zap.Int64("id", ev.ID), zap.String("timestamp", ts), zap.Error(err))
		}
		ev.Notes = notes.String
		events = append(events, ev)
	}
	return events, rows.Err()
}

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/mazaneh-relay/internal/calendar"
	"github.com/rickgao/mazaneh-relay/internal/model"
)

// ErrNilDB is returned by New when no database is given.
var ErrNilDB = errors.New("store: nil database")

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// Store is the size-bounded price ledger.
type Store struct {
	cfg    Config
	db     DB
	cal    *calendar.Formatter
	logger *slog.Logger

	// Serializes append+rotation and latest reads
	mu sync.Mutex

	metricsMu sync.Mutex
	metrics   Metrics
}

// New creates a Store over db. Timestamps are rendered with cal.
func New(cfg Config, db DB, cal *calendar.Formatter, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cal == nil {
		cal = calendar.NewInLocation(time.UTC)
	}
	return &Store{
		cfg:    cfg,
		db:     db,
		cal:    cal,
		logger: logger,
	}, nil
}

// Migrate creates the ledger table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create %s: %w", TableName, err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Append stores price as a new point stamped with now, then applies the size
// policy. A failed rotation is logged and does not undo the append.
func (s *Store) Append(ctx context.Context, price int64, now time.Time) (model.PricePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	point := model.PricePoint{
		Price:          price,
		CreatedAt:      now.UTC(),
		CreatedAtLocal: s.cal.Format(now),
	}

	err := pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, insertSQL,
			point.Price,
			point.CreatedAt.Format(time.RFC3339Nano),
			point.CreatedAtLocal,
		).Scan(&point.ID)
	})
	if err != nil {
		s.addMetrics(Metrics{AppendErrors: 1})
		return model.PricePoint{}, fmt.Errorf("insert price: %w", err)
	}
	s.addMetrics(Metrics{Appends: 1})

	deleted, err := s.rotate(ctx)
	if err != nil {
		s.addMetrics(Metrics{RotationErrors: 1})
		s.logger.Warn("rotation failed", "error", err)
		return point, nil
	}
	if deleted > 0 {
		s.addMetrics(Metrics{Rotations: 1, RowsRotated: deleted})
		s.logger.Info("rotated price ledger", "deleted", deleted)
		s.compact(ctx)
	}

	return point, nil
}

// Latest returns the point with the highest id; ok is false when the ledger is empty.
func (s *Store) Latest(ctx context.Context) (point model.PricePoint, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err = pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		var gregorian string
		scanErr := tx.QueryRow(ctx, latestSQL).Scan(&point.ID, &point.Price, &gregorian, &point.CreatedAtLocal)
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return nil
		}
		if scanErr != nil {
			return scanErr
		}
		point.CreatedAt, scanErr = parseGregorian(gregorian)
		if scanErr != nil {
			return scanErr
		}
		ok = true
		return nil
	})
	if err != nil {
		return model.PricePoint{}, false, fmt.Errorf("read latest price: %w", err)
	}
	if !ok {
		return model.PricePoint{}, false, nil
	}
	return point, true, nil
}

// LatestPrice returns the most recent price, or nil when the ledger is empty.
func (s *Store) LatestPrice(ctx context.Context) (*int64, error) {
	point, ok, err := s.Latest(ctx)
	if err != nil || !ok {
		return nil, err
	}
	return &point.Price, nil
}

// LatestTimestamp returns the Shamsi timestamp of the most recent point, or nil.
func (s *Store) LatestTimestamp(ctx context.Context) (*string, error) {
	point, ok, err := s.Latest(ctx)
	if err != nil || !ok {
		return nil, err
	}
	return &point.CreatedAtLocal, nil
}

// Stats returns the row count and on-disk size of the ledger.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, countSQL).Scan(&st.Rows); err != nil {
			return err
		}
		return tx.QueryRow(ctx, sizeSQL).Scan(&st.SizeBytes)
	})
	if err != nil {
		return Stats{}, fmt.Errorf("read store stats: %w", err)
	}
	return st, nil
}

// Metrics returns activity counters.
func (s *Store) Metrics() Metrics {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	return s.metrics
}

// rotate deletes the oldest rows when the table has reached its ceiling.
// Must be called with s.mu held.
func (s *Store) rotate(ctx context.Context) (int64, error) {
	var deleted int64
	err := pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var size int64
		if err := tx.QueryRow(ctx, sizeSQL).Scan(&size); err != nil {
			return fmt.Errorf("measure size: %w", err)
		}
		if size < s.cfg.MaxSizeBytes {
			return nil
		}

		var rows int64
		if err := tx.QueryRow(ctx, countSQL).Scan(&rows); err != nil {
			return fmt.Errorf("count rows: %w", err)
		}

		n := rotationCount(rows, s.cfg.RotationFraction)
		if n == 0 {
			return nil
		}

		tag, err := tx.Exec(ctx, deleteOldestSQL, n)
		if err != nil {
			return fmt.Errorf("delete oldest: %w", err)
		}
		deleted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// compact reclaims disk space after a rotation. VACUUM cannot run inside a
// transaction block, so it goes straight to the pool.
func (s *Store) compact(ctx context.Context) {
	if !s.cfg.Compact {
		return
	}
	start := time.Now()
	if _, err := s.db.Exec(ctx, compactSQL); err != nil {
		s.logger.Warn("compaction failed", "error", err)
		return
	}
	s.logger.Debug("compacted price ledger", "duration", time.Since(start))
}

func (s *Store) addMetrics(d Metrics) {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	s.metrics.Appends += d.Appends
	s.metrics.AppendErrors += d.AppendErrors
	s.metrics.Rotations += d.Rotations
	s.metrics.RowsRotated += d.RowsRotated
	s.metrics.RotationErrors += d.RotationErrors
}

// parseGregorian reads the stored UTC timestamp.
func parseGregorian(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at_gregorian %q: %w", s, err)
	}
	return t.UTC(), nil
}

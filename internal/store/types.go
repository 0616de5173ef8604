package store

// Config holds the size policy for the ledger.
type Config struct {
	MaxSizeBytes     int64   // Rotation threshold on pg_total_relation_size
	RotationFraction float64 // Share of rows deleted per rotation
	Compact          bool    // Run VACUUM FULL after a rotation deleted rows
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		MaxSizeBytes:     500 * 1024 * 1024,
		RotationFraction: 0.2,
		Compact:          true,
	}
}

// Stats is a read-only snapshot of the ledger.
type Stats struct {
	Rows      int64 `json:"rows"`
	SizeBytes int64 `json:"size_bytes"`
}

// Metrics counts store activity since start.
type Metrics struct {
	Appends        int64
	AppendErrors   int64
	Rotations      int64
	RowsRotated    int64
	RotationErrors int64
}

// rotationCount returns how many of the oldest rows a rotation removes.
func rotationCount(rows int64, fraction float64) int64 {
	if rows <= 0 || fraction <= 0 {
		return 0
	}
	if fraction >= 1 {
		return rows
	}
	return int64(float64(rows) * fraction)
}

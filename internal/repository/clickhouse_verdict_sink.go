package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"SignalBatch/internal/domain/models"
	domainrepo "SignalBatch/internal/domain/repository"
)

// VerdictSchema creates the verdict history table. Passed to the
// clickhouse client's InitSchema at startup.
var VerdictSchema = []string{
	`CREATE TABLE IF NOT EXISTS signal_verdicts (
		ts DateTime,
		job_id String,
		symbol String,
		score Float64,
		signal LowCardinality(String),
		indicators String
	) ENGINE = MergeTree()
	ORDER BY (symbol, ts)`,
}

// ClickHouseVerdictSink persists finished verdicts for history queries.
type ClickHouseVerdictSink struct {
	db    *sql.DB
	table string
}

var _ domainrepo.VerdictSink = (*ClickHouseVerdictSink)(nil)

// NewClickHouseVerdictSink creates a verdict sink over an open pool.
func NewClickHouseVerdictSink(db *sql.DB, table string) *ClickHouseVerdictSink {
	if table == "" {
		table = "signal_verdicts"
	}
	return &ClickHouseVerdictSink{db: db, table: table}
}

func (s *ClickHouseVerdictSink) StoreBatch(ctx context.Context, jobID string, verdicts []models.Verdict) error {
	if len(verdicts) == 0 {
		return nil
	}

	// Multi-row VALUES to keep round-trips down; verdict batches are one
	// job's tickers, so a single chunk is the common case.
	const chunkSize = 1000
	for start := 0; start < len(verdicts); start += chunkSize {
		end := start + chunkSize
		if end > len(verdicts) {
			end = len(verdicts)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*6)
		for _, v := range verdicts[start:end] {
			indicators, err := json.Marshal(v.Indicators)
			if err != nil {
				return fmt.Errorf("marshal indicators for %s: %w", v.Symbol, err)
			}
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			args = append(args,
				v.Timestamp,
				jobID,
				v.Symbol,
				v.Score,
				string(v.Signal),
				string(indicators),
			)
		}

		q := fmt.Sprintf("INSERT INTO %s (ts, job_id, symbol, score, signal, indicators) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert verdicts: %w", err)
		}
	}
	return nil
}

// Query reads verdict history for a symbol, newest first.
func (s *ClickHouseVerdictSink) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.VerdictRecord, error) {
	q := fmt.Sprintf("SELECT ts, job_id, symbol, score, signal FROM %s WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	var out []models.VerdictRecord
	for rows.Next() {
		var r models.VerdictRecord
		var sig string
		if err := rows.Scan(&r.Timestamp, &r.JobID, &r.Symbol, &r.Score, &sig); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		r.Signal = models.Signal(sig)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *ClickHouseVerdictSink) Close() error {
	return nil // pool owned by pkg/clickhouse client
}

package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/neura/fraudshield/internal/domain/scans"
)

type HistoryRepository struct{ db *sql.DB }

func NewHistoryRepository(db *sql.DB) *HistoryRepository { return &HistoryRepository{db: db} }

// Save insert/update one history record
func (r *HistoryRepository) Save(ctx context.Context, item *domain.HistoryItem) error {
	const q = `
INSERT INTO scan_history
(id, scan_kind, is_fraud, confidence, risk_level, message, source_message, ts)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
 is_fraud = EXCLUDED.is_fraud,
 confidence = EXCLUDED.confidence,
 risk_level = EXCLUDED.risk_level,
 message = EXCLUDED.message,
 source_message = EXCLUDED.source_message,
 ts = EXCLUDED.ts;`

	kind := string(item.Kind)
	if kind == "" {
		kind = "-"
	}
	risk := string(item.RiskLevel)
	if risk == "" {
		risk = "-"
	}
	ts := item.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}

	_, err := r.db.ExecContext(ctx, q,
		item.ID, kind, item.IsFraud, item.Confidence, risk,
		item.Message, item.SourceMessage, ts,
	)
	return err
}

// Latest history records, newest first
func (r *HistoryRepository) Latest(ctx context.Context, limit int) ([]*domain.HistoryItem, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, scan_kind, is_fraud, confidence, risk_level, message, source_message, ts
FROM scan_history
ORDER BY ts DESC LIMIT $1;`

	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.HistoryItem
	for rows.Next() {
		var item domain.HistoryItem
		if err := rows.Scan(
			&item.ID, &item.Kind, &item.IsFraud, &item.Confidence,
			&item.RiskLevel, &item.Message, &item.SourceMessage, &item.Timestamp,
		); err != nil {
			return nil, err
		}
		out = append(out, &item)
	}
	return out, rows.Err()
}

// Delete by ID
func (r *HistoryRepository) Delete(ctx context.Context, id domain.HistoryID) error {
	const q = `DELETE FROM scan_history WHERE id=$1;`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// Summary counts stored results since N days
func (r *HistoryRepository) Summary(ctx context.Context, sinceDays int) (domain.Summary, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays).UnixMilli()

	const q = `
SELECT COUNT(*) AS total_scans,
       COALESCE(SUM(CASE WHEN is_fraud THEN 1 ELSE 0 END),0)            AS fraud,
       COALESCE(SUM(CASE WHEN risk_level = 'HIGH' THEN 1 ELSE 0 END),0) AS high,
       COALESCE(SUM(CASE WHEN risk_level = 'MEDIUM' THEN 1 ELSE 0 END),0) AS medium,
       COALESCE(SUM(CASE WHEN risk_level = 'LOW' THEN 1 ELSE 0 END),0)  AS low
FROM scan_history
WHERE ts >= $1;`

	var s domain.Summary
	if err := r.db.QueryRowContext(ctx, q, cut).Scan(&s.Total, &s.Fraud, &s.High, &s.Medium, &s.Low); err != nil {
		return domain.Summary{}, err
	}
	return s, nil
}

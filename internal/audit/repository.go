package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Insert(ctx context.Context, record *AuditRecord) error
	List(ctx context.Context, userID string, q Query) ([]*AuditRecord, int64, error)
	// LatestFraud returns the newest FRAUD_DETECTED record for the user at or
	// after since, or nil when there is none.
	LatestFraud(ctx context.Context, userID string, since time.Time) (*AuditRecord, error)
}

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, record *AuditRecord) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_history (user_id, action, details, timestamp)
		VALUES ($1,$2,$3,$4)
	`, record.UserID, record.Action, record.Details, record.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string, q Query) ([]*AuditRecord, int64, error) {
	where := "WHERE user_id = $1"
	args := []interface{}{userID}
	argIdx := 2

	if q.EventType != "" && q.EventType != "ALL" {
		where += fmt.Sprintf(" AND action = $%d", argIdx)
		args = append(args, q.EventType)
		argIdx++
	}
	if q.Details != "" {
		where += fmt.Sprintf(" AND details ILIKE $%d", argIdx)
		args = append(args, "%"+q.Details+"%")
		argIdx++
	}
	if q.StartDate != nil {
		where += fmt.Sprintf(" AND timestamp >= $%d", argIdx)
		args = append(args, *q.StartDate)
		argIdx++
	}
	if q.EndDate != nil {
		where += fmt.Sprintf(" AND timestamp <= $%d", argIdx)
		args = append(args, *q.EndDate)
		argIdx++
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM audit_history "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		"SELECT id, user_id, action, details, timestamp FROM audit_history %s ORDER BY timestamp DESC LIMIT $%d OFFSET $%d",
		where, argIdx, argIdx+1,
	)
	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []*AuditRecord
	for rows.Next() {
		var rec AuditRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Action, &rec.Details, &rec.Timestamp); err != nil {
			return nil, 0, err
		}
		records = append(records, &rec)
	}
	return records, total, rows.Err()
}

func (r *PostgresRepository) LatestFraud(ctx context.Context, userID string, since time.Time) (*AuditRecord, error) {
	var rec AuditRecord
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, action, details, timestamp
		FROM audit_history
		WHERE user_id = $1 AND action = 'FRAUD_DETECTED' AND timestamp >= $2
		ORDER BY timestamp DESC
		LIMIT 1
	`, userID, since).Scan(&rec.ID, &rec.UserID, &rec.Action, &rec.Details, &rec.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

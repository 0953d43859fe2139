package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	xerrors "payguard/pkg/xerrors"
)

// Repository persists staged changes and applies finalized ones to the
// authoritative user record.
type Repository interface {
	Create(ctx context.Context, change *PendingChange) error
	Get(ctx context.Context, userID, transactionID string) (*PendingChange, error)
	// Apply writes the staged IBAN to the user record and removes the staging
	// row in one transaction. Returns ErrNoPendingUpdate if the row is gone.
	Apply(ctx context.Context, userID, transactionID string) (*PendingChange, error)
	FindExpired(ctx context.Context, olderThan time.Time) ([]*PendingChange, error)
	// DeleteExpired removes the row only if it is still older than the
	// threshold, reporting whether a removal happened. A row finalized by a
	// racing request is left alone.
	DeleteExpired(ctx context.Context, transactionID string, olderThan time.Time) (bool, error)
}

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, change *PendingChange) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO pending_updates (transaction_id, user_id, new_iban, created_at)
		VALUES ($1,$2,$3,$4)
	`, change.TransactionID, change.UserID, change.NewIBAN, change.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create pending update: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, transactionID string) (*PendingChange, error) {
	var c PendingChange
	err := r.db.QueryRow(ctx, `
		SELECT transaction_id, user_id, new_iban, created_at
		FROM pending_updates
		WHERE transaction_id=$1 AND user_id=$2
	`, transactionID, userID).Scan(&c.TransactionID, &c.UserID, &c.NewIBAN, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNoPendingUpdate
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresRepository) Apply(ctx context.Context, userID, transactionID string) (*PendingChange, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var c PendingChange
	err = tx.QueryRow(ctx, `
		SELECT transaction_id, user_id, new_iban, created_at
		FROM pending_updates
		WHERE transaction_id=$1 AND user_id=$2
		FOR UPDATE
	`, transactionID, userID).Scan(&c.TransactionID, &c.UserID, &c.NewIBAN, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNoPendingUpdate
	}
	if err != nil {
		return nil, err
	}

	result, err := tx.Exec(ctx, `UPDATE users SET iban=$1, updated_at=NOW() WHERE id=$2`, c.NewIBAN, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update IBAN: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: user %s", xerrors.ErrNotFound, userID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM pending_updates WHERE transaction_id=$1`, transactionID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresRepository) FindExpired(ctx context.Context, olderThan time.Time) ([]*PendingChange, error) {
	rows, err := r.db.Query(ctx, `
		SELECT transaction_id, user_id, new_iban, created_at
		FROM pending_updates
		WHERE created_at < $1
	`, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []*PendingChange
	for rows.Next() {
		var c PendingChange
		if err := rows.Scan(&c.TransactionID, &c.UserID, &c.NewIBAN, &c.CreatedAt); err != nil {
			return nil, err
		}
		changes = append(changes, &c)
	}
	return changes, rows.Err()
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, transactionID string, olderThan time.Time) (bool, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM pending_updates
		WHERE transaction_id=$1 AND created_at < $2
	`, transactionID, olderThan)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

package repository

import (
	"adaudit/features/accounts"
	"context"
	"database/sql"
	"fmt"
)

type SQLiteAccountRepository struct {
	db *sql.DB
}

func NewSQLiteAccountRepository(db *sql.DB) *SQLiteAccountRepository {
	return &SQLiteAccountRepository{db: db}
}

func (r *SQLiteAccountRepository) List(ctx context.Context) ([]accounts.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, platform, external_id, connected_at
		FROM ad_accounts
		ORDER BY connected_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var result []accounts.Account
	for rows.Next() {
		var a accounts.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Platform, &a.ExternalID, &a.ConnectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *SQLiteAccountRepository) GetByID(ctx context.Context, id string) (*accounts.Account, error) {
	var a accounts.Account
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, platform, external_id, connected_at
		FROM ad_accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.Platform, &a.ExternalID, &a.ConnectedAt)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	return &a, nil
}

func (r *SQLiteAccountRepository) Save(ctx context.Context, account accounts.Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ad_accounts (id, name, platform, external_id, connected_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (platform, external_id) DO UPDATE SET name = excluded.name`,
		account.ID, account.Name, account.Platform, account.ExternalID, account.ConnectedAt)
	if err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.ID, err)
	}
	return nil
}

func (r *SQLiteAccountRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ad_accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account %s: %w", id, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

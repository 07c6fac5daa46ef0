package store

import (
	"context"
	"errors"

	"github.com/BatmanBruc/docx-quiz-bot/types"
	"github.com/jackc/pgx/v5"
)

func (s *PostgresStore) PricePerFile(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var price int64
	err := s.pool.QueryRow(ctx, `SELECT file_price FROM settings WHERE id = 1`).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.defaults.FilePrice, nil
	}
	if err != nil {
		return 0, err
	}
	return price, nil
}

func (s *PostgresStore) MinExternalCharge(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var amount int64
	err := s.pool.QueryRow(ctx, `SELECT min_external_charge FROM settings WHERE id = 1`).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.defaults.MinExternalCharge, nil
	}
	if err != nil {
		return 0, err
	}
	return amount, nil
}

func (s *PostgresStore) Balance(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance int64
	err := s.pool.QueryRow(ctx, `SELECT balance FROM users WHERE user_id = $1`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *PostgresStore) Debit(ctx context.Context, userID, amount int64, reason, ref string) (int64, error) {
	if amount <= 0 {
		return 0, types.ErrInvalidAmount
	}
	ctx, cancel := context.WithTimeout(ctx, 2*queryTimeout)
	defer cancel()

	var remaining int64
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		balance, err := lockBalance(ctx, tx, userID)
		if err != nil {
			return err
		}
		if balance < amount {
			remaining = balance
			return types.ErrInsufficientBalance
		}
		remaining, err = applyDelta(ctx, tx, userID, -amount, reason, ref)
		return err
	})
	return remaining, err
}

func (s *PostgresStore) Credit(ctx context.Context, userID, amount int64, reason, ref string) (int64, error) {
	if amount <= 0 {
		return 0, types.ErrInvalidAmount
	}
	ctx, cancel := context.WithTimeout(ctx, 2*queryTimeout)
	defer cancel()

	var balance int64
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockBalance(ctx, tx, userID); err != nil {
			return err
		}
		var err error
		balance, err = applyDelta(ctx, tx, userID, amount, reason, ref)
		return err
	})
	return balance, err
}

// lockBalance makes sure the user row exists and holds its lock until the
// transaction ends.
func lockBalance(ctx context.Context, tx pgx.Tx, userID int64) (int64, error) {
	if _, err := tx.Exec(ctx, `
INSERT INTO users (user_id) VALUES ($1)
ON CONFLICT (user_id) DO NOTHING
`, userID); err != nil {
		return 0, err
	}
	var balance int64
	err := tx.QueryRow(ctx, `SELECT balance FROM users WHERE user_id = $1 FOR UPDATE`, userID).Scan(&balance)
	return balance, err
}

func applyDelta(ctx context.Context, tx pgx.Tx, userID, delta int64, reason, ref string) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx, `
UPDATE users
SET balance = balance + $2,
    total_earned = total_earned + CASE WHEN $3 = 'referral' THEN $2 ELSE 0 END,
    updated_at = NOW()
WHERE user_id = $1
RETURNING balance
`, userID, delta, reason).Scan(&balance)
	if err != nil {
		return 0, err
	}
	_, err = tx.Exec(ctx, `
INSERT INTO balance_ledger (user_id, delta, balance_after, reason, reference)
VALUES ($1, $2, $3, $4, $5)
`, userID, delta, balance, reason, ref)
	return balance, err
}

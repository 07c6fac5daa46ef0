package store

import (
	"context"
	"errors"
	"strings"

	"github.com/BatmanBruc/docx-quiz-bot/types"
	"github.com/jackc/pgx/v5"
)

const userColumns = `user_id, chat_id, username, first_name, last_name, language, COALESCE(referral_code, ''),
       referred_by, balance, total_earned, is_admin, created_at, updated_at`

func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	err := row.Scan(&u.UserID, &u.ChatID, &u.Username, &u.FirstName, &u.LastName, &u.Language, &u.ReferralCode,
		&u.ReferredBy, &u.Balance, &u.TotalEarned, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) UpsertUser(ctx context.Context, user types.User) (*types.User, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var created bool
	err := s.pool.QueryRow(ctx, `
INSERT INTO users (user_id, chat_id, username, first_name, last_name, language, referral_code)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
ON CONFLICT (user_id) DO UPDATE SET
  chat_id = EXCLUDED.chat_id,
  username = EXCLUDED.username,
  first_name = EXCLUDED.first_name,
  last_name = EXCLUDED.last_name,
  language = CASE WHEN users.language = '' THEN EXCLUDED.language ELSE users.language END,
  referral_code = COALESCE(users.referral_code, EXCLUDED.referral_code),
  updated_at = NOW()
RETURNING (xmax = 0)
`, user.UserID, user.ChatID, strings.TrimSpace(user.Username), strings.TrimSpace(user.FirstName),
		strings.TrimSpace(user.LastName), strings.TrimSpace(user.Language), strings.TrimSpace(user.ReferralCode)).Scan(&created)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, false, types.ErrConflict
		}
		return nil, false, err
	}

	stored, err := s.GetUser(ctx, user.UserID)
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, userID int64) (*types.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID))
}

func (s *PostgresStore) GetUserByReferralCode(ctx context.Context, code string) (*types.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	code = strings.ToUpper(strings.TrimSpace(code))
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code))
}

func (s *PostgresStore) SetLanguage(ctx context.Context, userID int64, lang string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := s.pool.Exec(ctx, `UPDATE users SET language = $2, updated_at = NOW() WHERE user_id = $1`, userID, lang)
	return err
}

// RewardReferral links referred to referrer and credits the referrer in one
// transaction. A user can be referred only once.
func (s *PostgresStore) RewardReferral(ctx context.Context, referrerID, referredID, reward int64) error {
	if referrerID == referredID {
		return types.ErrAlreadyReferred
	}
	ctx, cancel := context.WithTimeout(ctx, 2*queryTimeout)
	defer cancel()

	return s.withTx(ctx, func(tx pgx.Tx) error {
		var referredBy *int64
		err := tx.QueryRow(ctx, `SELECT referred_by FROM users WHERE user_id = $1 FOR UPDATE`, referredID).Scan(&referredBy)
		if errors.Is(err, pgx.ErrNoRows) {
			return types.ErrNotFound
		}
		if err != nil {
			return err
		}
		if referredBy != nil {
			return types.ErrAlreadyReferred
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET referred_by = $2 WHERE user_id = $1`, referredID, referrerID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO referral_history (referrer_id, referred_id, reward_amount)
VALUES ($1, $2, $3)
`, referrerID, referredID, reward); err != nil {
			if isUniqueViolation(err) {
				return types.ErrAlreadyReferred
			}
			return err
		}
		if reward <= 0 {
			return nil
		}
		if _, err := lockBalance(ctx, tx, referrerID); err != nil {
			return err
		}
		_, err = applyDelta(ctx, tx, referrerID, reward, types.ReasonReferral, "")
		return err
	})
}

func (s *PostgresStore) ReferralCount(ctx context.Context, userID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM referral_history WHERE referrer_id = $1`, userID).Scan(&n)
	return n, err
}

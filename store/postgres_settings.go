package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BatmanBruc/docx-quiz-bot/types"
	"github.com/jackc/pgx/v5"
)

// EnsureSettings seeds the settings row with defaults if it does not exist yet
// and keeps them as the fallback for reads.
func (s *PostgresStore) EnsureSettings(ctx context.Context, defaults types.Settings) error {
	s.defaults = defaults
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
INSERT INTO settings (id, file_price, referral_reward, min_external_charge, offer_uz, offer_ru, offer_en)
VALUES (1, $1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING
`, defaults.FilePrice, defaults.ReferralReward, defaults.MinExternalCharge, defaults.OfferUZ, defaults.OfferRU, defaults.OfferEN)
	return err
}

func (s *PostgresStore) GetSettings(ctx context.Context) (*types.Settings, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var st types.Settings
	err := s.pool.QueryRow(ctx, `
SELECT file_price, referral_reward, min_external_charge, offer_uz, offer_ru, offer_en
FROM settings
WHERE id = 1
`).Scan(&st.FilePrice, &st.ReferralReward, &st.MinExternalCharge, &st.OfferUZ, &st.OfferRU, &st.OfferEN)
	if errors.Is(err, pgx.ErrNoRows) {
		d := s.defaults
		return &d, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *PostgresStore) SetFilePrice(ctx context.Context, price int64) error {
	if price <= 0 {
		return types.ErrInvalidAmount
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
INSERT INTO settings (id, file_price, referral_reward)
VALUES (1, $1, $2)
ON CONFLICT (id) DO UPDATE SET file_price = EXCLUDED.file_price, updated_at = NOW()
`, price, s.defaults.ReferralReward)
	return err
}

// SetOfferLink replaces the public offer link for one language; an empty
// link hides the offer step.
func (s *PostgresStore) SetOfferLink(ctx context.Context, lang, link string) error {
	var query string
	switch lang {
	case "uz":
		query = `UPDATE settings SET offer_uz = $1, updated_at = NOW() WHERE id = 1`
	case "ru":
		query = `UPDATE settings SET offer_ru = $1, updated_at = NOW() WHERE id = 1`
	case "en":
		query = `UPDATE settings SET offer_en = $1, updated_at = NOW() WHERE id = 1`
	default:
		return fmt.Errorf("unknown offer language %q", lang)
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx, query, link)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Stats(ctx context.Context) (*types.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var st types.Stats
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&st.Users); err != nil {
		return nil, err
	}
	err := s.pool.QueryRow(ctx, `
SELECT COUNT(*), COALESCE(SUM(charged_amount), 0)
FROM payments
WHERE status = 'paid'
`).Scan(&st.PaidInvoices, &st.Revenue)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *PostgresStore) CreatePromo(ctx context.Context, p types.Promocode) error {
	if p.RewardAmount <= 0 {
		return types.ErrInvalidAmount
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `
INSERT INTO promocodes (code, reward_amount, max_uses)
VALUES ($1, $2, $3)
ON CONFLICT (code) DO NOTHING
`, strings.ToUpper(strings.TrimSpace(p.Code)), p.RewardAmount, p.MaxUses)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return types.ErrPromoExists
	}
	return nil
}

// RedeemPromo checks and consumes one use of code for userID and credits the
// reward, all under the promo row lock.
func (s *PostgresStore) RedeemPromo(ctx context.Context, userID int64, code string) (int64, int64, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	ctx, cancel := context.WithTimeout(ctx, 2*queryTimeout)
	defer cancel()

	var reward, balance int64
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var (
			maxUses, currentUses int
			active               bool
		)
		err := tx.QueryRow(ctx, `
SELECT reward_amount, max_uses, current_uses, active
FROM promocodes
WHERE code = $1
FOR UPDATE
`, code).Scan(&reward, &maxUses, &currentUses, &active)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && !active) {
			return types.ErrPromoNotFound
		}
		if err != nil {
			return err
		}
		if maxUses > 0 && currentUses >= maxUses {
			return types.ErrPromoExhausted
		}

		if _, err := lockBalance(ctx, tx, userID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
INSERT INTO promocode_usages (code, user_id) VALUES ($1, $2)
ON CONFLICT (code, user_id) DO NOTHING
`, code, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return types.ErrPromoUsed
		}
		if _, err := tx.Exec(ctx, `UPDATE promocodes SET current_uses = current_uses + 1 WHERE code = $1`, code); err != nil {
			return err
		}
		balance, err = applyDelta(ctx, tx, userID, reward, types.ReasonPromo, code)
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	return reward, balance, nil
}

// ListPromos returns the newest promo codes first.
func (s *PostgresStore) ListPromos(ctx context.Context, limit int) ([]types.Promocode, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
SELECT code, reward_amount, max_uses, current_uses, active, created_at
FROM promocodes
ORDER BY created_at DESC, code
LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Promocode
	for rows.Next() {
		var p types.Promocode
		if err := rows.Scan(&p.Code, &p.RewardAmount, &p.MaxUses, &p.CurrentUses, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

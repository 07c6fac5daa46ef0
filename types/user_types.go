package types

import (
	"context"
	"time"
)

type User struct {
	UserID       int64
	ChatID       int64
	Username     string
	FirstName    string
	LastName     string
	Language     string
	ReferralCode string
	ReferredBy   *int64
	Balance      int64
	TotalEarned  int64
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Settings struct {
	FilePrice         int64
	ReferralReward    int64
	MinExternalCharge int64
	OfferUZ        string
	OfferRU        string
	OfferEN        string
}

type Promocode struct {
	Code         string
	RewardAmount int64
	MaxUses      int
	CurrentUses  int
	Active       bool
	CreatedAt    time.Time
}

type Stats struct {
	Users        int64
	PaidInvoices int64
	Revenue      int64
}

type UserStore interface {
	// UpsertUser inserts or refreshes profile fields and returns the stored
	// row. user.ReferralCode is only stored when the row has none yet.
	UpsertUser(ctx context.Context, user User) (stored *User, created bool, err error)
	GetUser(ctx context.Context, userID int64) (*User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*User, error)
	SetLanguage(ctx context.Context, userID int64, lang string) error
	// RewardReferral links referredID to referrerID and credits the referrer once.
	RewardReferral(ctx context.Context, referrerID, referredID, reward int64) error
	ReferralCount(ctx context.Context, userID int64) (int, error)
}

type SettingsStore interface {
	GetSettings(ctx context.Context) (*Settings, error)
	SetFilePrice(ctx context.Context, price int64) error
	// SetOfferLink sets the offer link for lang ("uz", "ru" or "en"); "" clears it.
	SetOfferLink(ctx context.Context, lang, link string) error
	Stats(ctx context.Context) (*Stats, error)
}

type PromoStore interface {
	CreatePromo(ctx context.Context, p Promocode) error
	// RedeemPromo credits the promo reward to userID and returns the new balance.
	RedeemPromo(ctx context.Context, userID int64, code string) (reward int64, balance int64, err error)
	ListPromos(ctx context.Context, limit int) ([]Promocode, error)
}

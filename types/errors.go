package types

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrPromoNotFound       = errors.New("promo code not found")
	ErrPromoUsed           = errors.New("promo code already used")
	ErrPromoExhausted      = errors.New("promo code usage limit reached")
	ErrPromoExists         = errors.New("promo code already exists")
	ErrAlreadyReferred     = errors.New("user already has a referrer")
	ErrConflict            = errors.New("unique value already taken")
)

package types

import "context"

// UserState is short-lived per-user session data kept outside Postgres.
type UserState struct {
	Lang     string   `json:"lang,omitempty"`
	Awaiting Awaiting `json:"awaiting,omitempty"`
}

type UserStateStore interface {
	GetUserState(ctx context.Context, userID int64) (UserState, error)
	SetUserState(ctx context.Context, userID int64, state UserState) error
	ClearAwaiting(ctx context.Context, userID int64) error
}

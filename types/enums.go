package types

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
	PaymentExpired PaymentStatus = "expired"
)

type PaymentMethod string

const (
	MethodUndecided PaymentMethod = ""
	MethodBalance   PaymentMethod = "balance"
	MethodPartial   PaymentMethod = "partial"
	MethodExternal  PaymentMethod = "external"
)

// Awaiting is the kind of free-text input the bot expects next from a user.
type Awaiting string

const (
	AwaitingNothing Awaiting = ""
	AwaitingPromo   Awaiting = "promo"
)

// MarkPaidResult tells a settlement caller which transition, if any, happened.
type MarkPaidResult int

const (
	MarkPaidApplied MarkPaidResult = iota
	MarkPaidAlreadyPaid
	MarkPaidNotFound
)

// Ledger reasons stored in balance_ledger.reason.
const (
	ReasonBatchDebit     = "batch_debit"
	ReasonBatchRefund    = "batch_refund"
	ReasonSettleDebit    = "settle_debit"
	ReasonOvercharge     = "overcharge"
	ReasonExpiredPayment = "expired_payment"
	ReasonPromo          = "promo"
	ReasonReferral       = "referral"
)

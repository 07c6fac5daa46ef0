package batch

import (
	"errors"

	"github.com/BatmanBruc/docx-quiz-bot/types"
)

var (
	ErrBatchNotFound     = errors.New("batch not found")
	ErrBatchClosed       = errors.New("batch is awaiting payment")
	ErrInvoiceNotFound   = errors.New("invoice not found")
	ErrAlreadyProcessed  = errors.New("invoice already processed")
	ErrSessionExpired    = errors.New("batch session expired")
	ErrChoiceUnavailable = errors.New("payment choice is no longer available")
	ErrGateway           = errors.New("payment gateway unavailable")
	ErrReconciliation    = errors.New("balance reconciliation failed")

	ErrInsufficientBalance = types.ErrInsufficientBalance
)

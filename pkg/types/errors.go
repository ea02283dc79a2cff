package types

import "fmt"

// Error is a coded settlement error. Every operation precondition
// failure maps to exactly one of the sentinel errors below, so callers
// can branch with errors.Is and transports can map codes to statuses.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Operation precondition failures.
var (
	ErrUnauthorized = &Error{"UNAUTHORIZED", "caller is not authorized to perform this action"}

	ErrMarketNotOpen         = &Error{"MARKET_NOT_OPEN", "market is not open for betting"}
	ErrMarketNotResolved     = &Error{"MARKET_NOT_RESOLVED", "market has not been resolved yet"}
	ErrMarketAlreadyResolved = &Error{"MARKET_ALREADY_RESOLVED", "market is already resolved"}

	ErrDeadlinePassed    = &Error{"DEADLINE_PASSED", "betting deadline has already passed"}
	ErrDeadlineNotPassed = &Error{"DEADLINE_NOT_PASSED", "deadline has not passed yet, market cannot be resolved"}

	ErrInvalidAmount   = &Error{"INVALID_AMOUNT", "bet amount must be greater than zero"}
	ErrQuestionTooLong = &Error{"QUESTION_TOO_LONG", "question is too long, max 200 characters"}

	ErrAlreadyClaimed    = &Error{"ALREADY_CLAIMED", "this position has already been claimed"}
	ErrInvalidCommitment = &Error{"INVALID_COMMITMENT", "commitment verification failed, wrong secret or side"}
	ErrNotAWinner        = &Error{"NOT_A_WINNER", "position did not back the winning outcome"}
	ErrZeroWinningPool   = &Error{"ZERO_WINNING_POOL", "winning pool is zero"}

	ErrInsufficientVaultBalance = &Error{"INSUFFICIENT_VAULT_BALANCE", "vault does not have enough balance"}
)

// Ledger-level failures.
var (
	ErrNotFound          = &Error{"NOT_FOUND", "record not found"}
	ErrAlreadyExists     = &Error{"ALREADY_EXISTS", "record already exists"}
	ErrNotInitialized    = &Error{"NOT_INITIALIZED", "authority has not been initialized"}
	ErrInsufficientFunds = &Error{"INSUFFICIENT_FUNDS", "account balance is too low for transfer"}
	ErrOverflow          = &Error{"OVERFLOW", "arithmetic overflow"}
)

package lottery

import (
	"errors"
	"fmt"
)

// Failures of lottery operations. Refinements wrap their parent so
// errors.Is matches both.
var (
	ErrUnauthorized                  = errors.New("only the manager can call this function")
	ErrUnauthorizedCallback          = fmt.Errorf("%w: only the coordinator can fulfill", ErrUnauthorized)
	ErrInvalidState                  = errors.New("lottery is not open")
	ErrWinnerPendingCollection       = fmt.Errorf("%w: winner pending to collect prize", ErrInvalidState)
	ErrIncorrectAmount               = errors.New("incorrect ticket amount")
	ErrMinimumAmountNotMet           = errors.New("minimum amount not met")
	ErrTokenTransferFailed           = errors.New("token transfer failed")
	ErrNotEnoughPlayers              = errors.New("no minimum players in the lottery")
	ErrInsufficientSubscriptionFunds = errors.New("insufficient funds in the subscription")
	ErrUnknownRequest                = errors.New("unknown randomness request")
	ErrNothingToWithdraw             = errors.New("nothing to withdraw")
	ErrTransferFailed                = errors.New("transfer failed")
	ErrDirectTransferNotAllowed      = errors.New("direct transfers not allowed")
	ErrNoRandomWords                 = errors.New("no random words supplied")
)

package auction

import (
	"errors"
	"fmt"
)

// Errors returned by auction operations. All are value-returned to the
// command layer, which owns user-facing wording.
var (
	ErrInvalidAmount     = errors.New("bid amount must be positive")
	ErrBanned            = errors.New("user is banned from bidding")
	ErrAuctionNotFound   = errors.New("auction not found")
	ErrAuctionClosed     = errors.New("auction is closed")
	ErrInsufficientFunds = errors.New("insufficient coins")
	ErrAlreadySettled    = errors.New("auction already settled")
	// ErrInvariantViolation means a mutation would drive a balance negative.
	// Unreachable through PlaceBid, which pre-checks affordability.
	ErrInvariantViolation = errors.New("operation would make balance negative")
)

// BidTooLowError reports the exact minimum the next bid must meet.
type BidTooLowError struct {
	Required int
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid too low: next minimum is %d", e.Required)
}

// NextMinimum computes the minimum acceptable next bid: the auction floor
// when there is no standing bid, otherwise ceil(current * 1.10). Integer
// arithmetic avoids float rounding (ceil(10*1.1) must be 11, not 12).
func NextMinimum(current, minBid int) int {
	if current <= 0 {
		return minBid
	}
	return (current*11 + 9) / 10
}

package domain

import (
	"errors"
	"fmt"
)

// ErrIllegalTrade matches every *IllegalTradeError with errors.Is.
var ErrIllegalTrade = errors.New("illegal trade")

// IllegalTradeError is a business-rule rejection of an order. The market is
// left untouched whenever it is returned.
type IllegalTradeError struct {
	Reason string
}

func (e *IllegalTradeError) Error() string {
	return "illegal trade: " + e.Reason
}

func (e *IllegalTradeError) Is(target error) bool {
	return target == ErrIllegalTrade
}

// IllegalTrade builds an *IllegalTradeError with a formatted reason.
func IllegalTrade(format string, args ...any) error {
	return &IllegalTradeError{Reason: fmt.Sprintf(format, args...)}
}

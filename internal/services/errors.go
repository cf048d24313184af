package services

import (
	"errors"
	"fmt"

	"github.com/zigopay/cargo-gateway/internal/model"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrUnknownCustomer  = errors.New("unknown customer")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidStatus    = errors.New("unknown cargo status")
	ErrAlreadySettled   = errors.New("invoice already settled")
	ErrReleaseOrderUsed = errors.New("release order already used")
	ErrInactiveWallet   = errors.New("wallet is not active")
	ErrGatewayFailure   = errors.New("payment gateway failure")
)

// ShortfallError reports a refused debit together with the numbers the
// caller needs to top up.
type ShortfallError struct {
	Required  model.Cents
	Available model.Cents
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("insufficient balance: required %s, available %s, shortfall %s",
		e.Required, e.Available, e.Shortfall())
}

func (e *ShortfallError) Shortfall() model.Cents {
	return e.Required - e.Available
}

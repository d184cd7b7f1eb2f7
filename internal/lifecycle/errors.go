package lifecycle

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidPrice    = errors.New("price must be greater than zero")
	ErrNotQuoted       = errors.New("quote is not awaiting a decision")
	ErrAlreadyAccepted = errors.New("quote already accepted")
	ErrTokenExpired    = errors.New("quote link expired")
	ErrAlreadyPromoted = errors.New("quote already has an order")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrNoCustomerEmail = errors.New("customer has no email address")
)

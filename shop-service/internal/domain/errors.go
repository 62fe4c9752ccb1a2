package domain

import "errors"

// Validation failures.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidQuantity    = errors.New("quantity must be greater than zero")
	ErrInvalidStatus      = errors.New("invalid order status")
	ErrInvalidPaymentType = errors.New("invalid payment type")
	ErrMissingReason      = errors.New("a cancellation reason is required")
	ErrInvalidDesignSize  = errors.New("design must have between 15 and 25 beads")
)

// State conflicts.
var (
	ErrOutOfStock        = errors.New("product is out of stock")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyCancelled  = errors.New("order is already cancelled")
	ErrAlreadyCompleted  = errors.New("order is already completed")
	ErrNotDeliverable    = errors.New("order must be delivered and not cancelled to be completed")
	ErrIllegalTransition = errors.New("illegal order status transition")
	ErrSellerExists      = errors.New("a seller account already exists")
)

// Missing records.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrDesignNotFound  = errors.New("design not found")
	ErrSellerNotFound  = errors.New("seller profile not found")
)

// Authorization failures.
var (
	ErrForbidden = errors.New("operation not allowed for this account")
	ErrNotOwner  = errors.New("product does not belong to this seller")
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindStateConflict
	KindNotFound
	KindAuthorization
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindStateConflict:
		return "state_conflict"
	case KindNotFound:
		return "not_found"
	case KindAuthorization:
		return "authorization"
	}
	return "internal"
}

var kinds = []struct {
	kind Kind
	errs []error
}{
	{KindValidation, []error{ErrInvalidInput, ErrInvalidQuantity, ErrInvalidStatus, ErrInvalidPaymentType, ErrMissingReason, ErrInvalidDesignSize}},
	{KindStateConflict, []error{ErrOutOfStock, ErrInsufficientStock, ErrAlreadyCancelled, ErrAlreadyCompleted, ErrNotDeliverable, ErrIllegalTransition, ErrSellerExists}},
	{KindNotFound, []error{ErrProductNotFound, ErrOrderNotFound, ErrDesignNotFound, ErrSellerNotFound}},
	{KindAuthorization, []error{ErrForbidden, ErrNotOwner}},
}

// KindOf classifies err into the error taxonomy. Unknown errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	for _, k := range kinds {
		for _, target := range k.errs {
			if errors.Is(err, target) {
				return k.kind
			}
		}
	}
	return KindInternal
}

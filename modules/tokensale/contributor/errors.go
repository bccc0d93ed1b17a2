package contributor

import "github.com/gaze-network/crosschain-sale/common/errs"

var (
	ErrBadEmitter        = errs.New(errs.AuthenticityError, "envelope is not from the conductor")
	ErrBadKYCSignature   = errs.New(errs.AuthenticityError, "contribution is not authorized by sale authority")
	ErrReplayed          = errs.New(errs.ReplayError, "contributor already applied message")
	ErrTokenIndex        = errs.New(errs.CapacityError, "token index is not accepted on this chain")
	ErrInvalidAmount     = errs.New(errs.FormatError, "amount must be positive")
	ErrWrongVariant      = errs.New(errs.FormatError, "sale init variant does not match this chain")
	ErrUnexpectedPayload = errs.New(errs.FormatError, "payload is not handled by contributors")
	ErrMissingAllocation = errs.New(errs.FormatError, "sealed sale lacks allocation of a local token")
)

var (
	ErrSaleNotFound       = errs.New(errs.StateError, "contributor has no such sale")
	ErrAlreadyInitialized = errs.New(errs.StateError, "sale already initialized")
	ErrAlreadyExpired     = errs.New(errs.StateError, "sale ended before initialization")
	ErrSaleNotActive      = errs.New(errs.StateError, "contributor sale is not active")
	ErrSaleNotStarted     = errs.New(errs.StateError, "sale has not started")
	ErrSaleEnded          = errs.New(errs.StateError, "sale has ended")
	ErrSaleNotEnded       = errs.New(errs.StateError, "contributor sale has not ended")
	ErrSaleNotSealed      = errs.New(errs.StateError, "sale is not sealed")
	ErrSaleNotAborted     = errs.New(errs.StateError, "sale is not aborted")
	ErrNothingToClaim     = errs.New(errs.StateError, "buyer has no contribution")
	ErrAlreadyClaimed     = errs.New(errs.StateError, "already claimed")
	ErrLocked             = errs.New(errs.StateError, "allocation is still locked")
)

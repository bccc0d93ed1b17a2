package conductor

import "github.com/gaze-network/crosschain-sale/common/errs"

var (
	ErrEmitterNotRegistered  = errs.New(errs.AuthenticityError, "envelope emitter is not the registered contributor of its chain")
	ErrBadGovernanceEmitter  = errs.New(errs.AuthenticityError, "envelope is not from the governance emitter")
	ErrWrongTargetChain      = errs.New(errs.AuthenticityError, "governance message targets another chain")
	ErrChainMismatch         = errs.New(errs.AuthenticityError, "attested chain differs from envelope emitter chain")
	ErrBadAuthoritySignature = errs.New(errs.AuthenticityError, "authority signature is invalid")
)

var ErrReplayed = errs.New(errs.ReplayError, "conductor already applied message")

var (
	ErrSaleNotFound         = errs.New(errs.StateError, "conductor has no such sale")
	ErrSaleFinalized        = errs.New(errs.StateError, "sale is no longer active")
	ErrAlreadyFinalized     = errs.New(errs.StateError, "sale already sealed or aborted")
	ErrAlreadyCollected     = errs.New(errs.StateError, "contributions of chain already collected")
	ErrAlreadyRegistered    = errs.New(errs.StateError, "chain registered to another emitter with a sale in flight")
	ErrChainNotRegistered   = errs.New(errs.StateError, "accepted token chain has no registered contributor")
	ErrSaleNotEnded         = errs.New(errs.StateError, "conductor sale has not ended")
	ErrContributionsMissing = errs.New(errs.StateError, "contributions of some chains not collected")
	ErrSaleStarted          = errs.New(errs.StateError, "sale already started")
	ErrUnauthorized         = errs.New(errs.StateError, "sender may not perform this operation")
)

var (
	ErrInvalidTerms          = errs.New(errs.FormatError, "invalid sale terms")
	ErrIncompleteAttestation = errs.New(errs.FormatError, "attestation does not list every token of its chain exactly once")
	ErrInvalidAuthority      = errs.New(errs.FormatError, "new authority must not be zero")
)

var ErrTokenIndex = errs.New(errs.CapacityError, "token index is not accepted on attesting chain")

// Package xerr is the error taxonomy shared across the sequencer. Every
// failure surfaced between components is an *Error carrying an explicit kind,
// a context bag for diagnostics, a severity and a retryable flag; callers
// branch on the kind, never on concrete types.
package xerr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindParamsInvalid           Kind = "ParamsInvalid"
	KindMissingTransferContext  Kind = "MissingTransferContext"
	KindInvalidChainData        Kind = "InvalidChainData"
	KindAmountInvalid           Kind = "AmountInvalid"
	KindInsufficientLiquidity   Kind = "InsufficientLiquidity"
	KindNotApprovedRouter       Kind = "NotApprovedRouter"
	KindAuctionExpired          Kind = "AuctionExpired"
	KindInvalidAuctionRound     Kind = "InvalidAuctionRound"
	KindUpstreamResponseInvalid Kind = "UpstreamResponseInvalid"
	KindSanityCheckFailed       Kind = "SanityCheckFailed"
	KindUnsupportedAsset        Kind = "UnsupportedAsset"
	KindNotFound                Kind = "NotFound"
	KindUnauthorized            Kind = "Unauthorized"
)

type Severity string

const (
	SeverityDebug Severity = "debug"
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

type Error struct {
	Kind      Kind
	Message   string
	Context   map[string]any
	Severity  Severity
	Retryable bool
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Option mutates a freshly constructed Error.
type Option func(*Error)

func WithContext(ctx map[string]any) Option {
	return func(e *Error) {
		for k, v := range ctx {
			e.Context[k] = v
		}
	}
}

func WithSeverity(s Severity) Option {
	return func(e *Error) { e.Severity = s }
}

func Retryable() Option {
	return func(e *Error) { e.Retryable = true }
}

func WithCause(err error) Option {
	return func(e *Error) { e.cause = err }
}

// New builds an error of the given kind. Defaults: severity error, not
// retryable, empty context.
func New(kind Kind, msg string, opts ...Option) *Error {
	e := &Error{
		Kind:     kind,
		Message:  msg,
		Context:  map[string]any{},
		Severity: SeverityError,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Newf is New with a formatted message and no options.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// KindOf extracts the kind from err, unwrapping as needed. Errors outside the
// taxonomy report an empty kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable reports the retryable flag of err; unknown errors are treated
// as not retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// Package errs defines the typed error taxonomy shared across the engine.
//
// Every component wraps its failures in one of these kinds so that callers
// can classify errors (retryable vs terminal, per-table vs job-aborting)
// without string matching. Each kind wraps an underlying cause with %w so
// errors.Is/errors.As keep working against it.
package errs

import "fmt"

// Kind identifies the family an error belongs to.
type Kind string

const (
	KindConfig    Kind = "ConfigError"
	KindDiscovery Kind = "DiscoveryError"
	KindDownload  Kind = "DownloadError"
	KindConvert   Kind = "ConvertError"
	KindTransform Kind = "TransformError"
	KindLoad      Kind = "LoadError"
	KindInternal  Kind = "InternalError"
)

// Reason is the sub-classification within a Kind, e.g. InvalidTenant within
// ConfigError.
type Reason string

const (
	// ConfigError reasons.
	ReasonInvalidTenant      Reason = "InvalidTenant"
	ReasonParseError         Reason = "ParseError"
	ReasonUnsupportedProvider Reason = "UnsupportedProvider"
	ReasonSecretInYaml       Reason = "SecretInYaml"

	// DiscoveryError reasons.
	ReasonListFailed    Reason = "ListFailed"
	ReasonAuthFailed    Reason = "AuthFailed"
	ReasonPrefixMissing Reason = "PrefixNotFound"

	// DownloadError reasons.
	ReasonTransient  Reason = "Transient"
	ReasonPermanent  Reason = "Permanent"
	ReasonIntegrity  Reason = "Integrity"
	ReasonTimeout    Reason = "Timeout"

	// ConvertError reasons.
	ReasonUnsupportedFormat Reason = "UnsupportedFormat"

	// TransformError reasons.
	ReasonMissingMapping   Reason = "MissingMapping"
	ReasonComputedRuleCycle Reason = "ComputedRuleCycle"
	ReasonFilterInvalid    Reason = "FilterInvalid"
	ReasonTypeCastFatal    Reason = "TypeCastFatal"

	// LoadError reasons.
	ReasonMissingColumn    Reason = "MissingColumn"
	ReasonOverflow         Reason = "Overflow"
	ReasonNumericOverflow  Reason = "NumericOverflow"
	ReasonSchemaDrift      Reason = "SchemaDrift"
	ReasonStreamLoadFail   Reason = "StreamLoadFail"
	ReasonStreamLoadTimeout Reason = "StreamLoadTimeout"
	ReasonTruncateFailed   Reason = "TruncateFailed"
)

// E is a typed engine error.
type E struct {
	Kind    Kind
	Reason  Reason
	Table   string
	Detail  string
	Cause   error
}

func (e *E) Error() string {
	s := fmt.Sprintf("%s(%s)", e.Kind, e.Reason)
	if e.Table != "" {
		s += fmt.Sprintf(" table=%s", e.Table)
	}
	if e.Detail != "" {
		s += ": " + e.Detail
	}
	if e.Cause != nil {
		s += fmt.Sprintf(": %v", e.Cause)
	}
	return s
}

func (e *E) Unwrap() error { return e.Cause }

// New constructs an *E. table and cause may be left empty/nil.
func New(kind Kind, reason Reason, table, detail string, cause error) *E {
	return &E{Kind: kind, Reason: reason, Table: table, Detail: detail, Cause: cause}
}

// Retryable reports whether a kind/reason pair is recoverable locally per
// the propagation policy in the specification: transient downloads and
// Stream Load timeouts (ReasonStreamLoadTimeout) back off and retry; everything
// else is surfaced.
func Retryable(e *E) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindDownload:
		return e.Reason == ReasonTransient || e.Reason == ReasonTimeout
	case KindLoad:
		return e.Reason == ReasonStreamLoadTimeout
	}
	return false
}

// AbortsJob reports whether this error must abort the whole job rather than
// just the current table.
func AbortsJob(e *E) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindConfig:
		return true
	case KindDiscovery:
		return e.Reason == ReasonAuthFailed
	case KindLoad:
		return e.Reason == ReasonTruncateFailed
	}
	return false
}

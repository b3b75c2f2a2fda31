package ingest

// Kind classifies the terminal outcome of processing one raise file.
type Kind int

const (
	// KindProcessed means the raise was persisted, notified and the file
	// moved to the processed directory.
	KindProcessed Kind = iota

	// KindMalformedRecord means the file content did not split into the
	// expected field count.
	KindMalformedRecord

	// KindUnknownExceptionCode means the ledger has no definition for the
	// reported code.
	KindUnknownExceptionCode

	// KindInvalidTimestamp means the raise timestamp matched neither
	// accepted layout.
	KindInvalidTimestamp

	// KindDuplicateException means the sign already has a live exception
	// for this code.
	KindDuplicateException

	// KindPersistenceFailure covers any other ledger failure.
	KindPersistenceFailure

	// KindDispatchFailure covers payload serialization and transport
	// failures after a successful insert.
	KindDispatchFailure

	// KindUnclassified is the catch-all for anything else, such as an
	// unreadable source file.
	KindUnclassified
)

// String returns the outcome name for logging.
func (k Kind) String() string {
	switch k {
	case KindProcessed:
		return "processed"
	case KindMalformedRecord:
		return "malformed_record"
	case KindUnknownExceptionCode:
		return "unknown_exception_code"
	case KindInvalidTimestamp:
		return "invalid_timestamp"
	case KindDuplicateException:
		return "duplicate_exception"
	case KindPersistenceFailure:
		return "persistence_failure"
	case KindDispatchFailure:
		return "dispatch_failure"
	default:
		return "unclassified_failure"
	}
}

// Result is the tagged outcome of one pipeline run. Every run produces
// exactly one Result, and the router acts on it exactly once.
type Result struct {
	Kind    Kind
	Message string
}

// OK reports whether the file took the success path.
func (r Result) OK() bool {
	return r.Kind == KindProcessed
}

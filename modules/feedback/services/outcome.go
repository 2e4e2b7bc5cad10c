package services

import "net/http"

// Outcome classifies a bulk merge result for the transport boundary.
type Outcome int

const (
	// OutcomeSuccess: every row was created or updated.
	OutcomeSuccess Outcome = iota
	// OutcomePartial: some rows succeeded, some failed (multi-status).
	OutcomePartial
	// OutcomeFailure: no row succeeded.
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomePartial:
		return "partial"
	default:
		return "failure"
	}
}

// HTTPStatus is the status the HTTP boundary maps this outcome to.
func (o Outcome) HTTPStatus() int {
	switch o {
	case OutcomeSuccess:
		return http.StatusCreated
	case OutcomePartial:
		return http.StatusMultiStatus
	default:
		return http.StatusBadRequest
	}
}

// Classify turns a bulk merge result into an outcome. Empty batches have
// nothing to succeed and classify as failures.
func Classify(result *BulkMergeResult) Outcome {
	if result == nil || result.TotalRequested == 0 {
		return OutcomeFailure
	}
	switch {
	case result.Failed == 0:
		return OutcomeSuccess
	case result.Failed == result.TotalRequested:
		return OutcomeFailure
	default:
		return OutcomePartial
	}
}

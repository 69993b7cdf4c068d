package client

import (
	"encoding/json"
	"fmt"
)

// FaultKind describes how the transport layer failed, if it did
type FaultKind int

const (
	// FaultNone means a response was received before the wait budget ran out
	FaultNone FaultKind = iota
	// FaultTimeout means the wait budget elapsed with no response
	FaultTimeout
	// FaultTransport means the connection failed before any response
	// (reset, DNS failure, broken pipe)
	FaultTransport
)

// OutcomeKind is the tri-state result of one submission attempt
type OutcomeKind int

const (
	// OutcomeAccepted: the server acknowledged the job with a 2xx response
	OutcomeAccepted OutcomeKind = iota
	// OutcomePendingUnknown: no response before the wait budget elapsed, or
	// the transport failed mid-flight. The job may well be running; the
	// status channel is the source of truth.
	OutcomePendingUnknown
	// OutcomeRejected: the server explicitly refused the job
	OutcomeRejected
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAccepted:
		return "accepted"
	case OutcomePendingUnknown:
		return "pending-unknown"
	case OutcomeRejected:
		return "rejected"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// SubmissionOutcome is the classified result of a single submission attempt.
// Exactly one is produced per attempt. JobID is always set: it is the
// correlation key the status channel is keyed by, generated client-side
// before the request leaves, so even a PendingUnknown submission can be
// reconciled later.
type SubmissionOutcome struct {
	Kind  OutcomeKind
	JobID string

	// Fault is set for PendingUnknown and says why the result is unknown
	Fault FaultKind

	// Status and Detail are set for Rejected
	Status int
	Detail string
}

// TransportResult is the raw material the classifier works from: what came
// back over the wire, or the kind of fault that prevented anything from
// coming back.
type TransportResult struct {
	StatusCode int
	Body       []byte
	Fault      FaultKind
}

// Classify maps a transport result to exactly one SubmissionOutcome. It is
// total over the three input shapes (response, timeout, transport fault);
// there is no unclassified escape.
//
// Timeouts and transport faults both map to PendingUnknown rather than a
// failure: the request may have reached the server before the fault, and a
// false "failed" would push the caller into resubmitting and duplicating
// work. Only an explicit non-2xx response is a rejection.
func Classify(jobID string, res TransportResult) SubmissionOutcome {
	if res.Fault != FaultNone {
		return SubmissionOutcome{
			Kind:  OutcomePendingUnknown,
			JobID: jobID,
			Fault: res.Fault,
		}
	}

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return SubmissionOutcome{
			Kind:  OutcomeAccepted,
			JobID: acceptedJobID(jobID, res.Body),
		}
	}

	return SubmissionOutcome{
		Kind:   OutcomeRejected,
		JobID:  jobID,
		Status: res.StatusCode,
		Detail: rejectionDetail(res.StatusCode, res.Body),
	}
}

// acceptedJobID prefers the id echoed by the server over the one generated
// client-side; they only differ when the client sent an invalid id
func acceptedJobID(jobID string, body []byte) string {
	var echoed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &echoed); err == nil && echoed.ID != "" {
		return echoed.ID
	}
	return jobID
}

// rejectionDetail extracts the structured detail field from an error body,
// falling back to a generic placeholder
func rejectionDetail(status int, body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return fmt.Sprintf("server returned status %d", status)
}

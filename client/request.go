package client

import "context"

// AnalysisRequest is what presentation code gets back from one submission:
// the immediate outcome plus, unless the job was rejected, a live status
// stream for observing eventual completion.
type AnalysisRequest struct {
	Outcome SubmissionOutcome

	// Statuses is attached for Accepted and PendingUnknown outcomes and nil
	// for Rejected ones
	Statuses *Subscription
}

// RequestAnalysis is the single entry point for presentation code. It
// submits the job and, when the outcome is Accepted or PendingUnknown,
// attaches the status stream automatically so the caller never has to
// re-derive the job identifier.
//
// A Rejected outcome is terminal for this attempt: no stream is attached
// and the outcome's Detail is the user-facing failure message.
//
// A non-nil error means the immediate outcome stands but the status stream
// could not be attached (wraps ErrChannelDisconnected); the caller should
// retry Subscribe with the outcome's JobID.
func (c *Client) RequestAnalysis(ctx context.Context, job JobSubmission) (AnalysisRequest, error) {
	outcome := c.Submit(ctx, job)

	if outcome.Kind == OutcomeRejected {
		return AnalysisRequest{Outcome: outcome}, nil
	}

	sub, err := c.Subscribe(ctx, outcome.JobID)
	if err != nil {
		return AnalysisRequest{Outcome: outcome}, err
	}

	return AnalysisRequest{Outcome: outcome, Statuses: sub}, nil
}

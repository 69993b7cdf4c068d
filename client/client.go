// Package client implements the submission side of the meeting analysis
// protocol: a bounded-wait transport client, the outcome classifier, and
// the out-of-band completion reconciler.
//
// A submission has three possible immediate outcomes: the server accepted
// the job, the server rejected it, or the wait budget ran out and the true
// state is unknown. The last case is not an error: the server keeps working
// after the client stops waiting, and the status channel later confirms how
// the job actually ended.
package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DefaultWaitBudget is how long Submit waits for a synchronous response
// before returning PendingUnknown
const DefaultWaitBudget = 30 * time.Second

// maxResponseBytes bounds how much of a response body is read for
// classification
const maxResponseBytes = 1 << 20

// JobSubmission is one transcript analysis request. It is immutable and
// owned by the client for the duration of the Submit call.
type JobSubmission struct {
	Payload   []byte
	Filename  string
	OwnerID   string
	ProjectID string
}

// Client submits analysis jobs and reconciles their eventual completion
type Client struct {
	// BaseURL is the server root, e.g. "http://localhost:8080"
	BaseURL string

	// WaitBudget caps how long Submit waits for a synchronous response.
	// Zero means DefaultWaitBudget.
	WaitBudget time.Duration

	// HTTPClient defaults to http.DefaultClient. Any timeout configured on
	// it should exceed the wait budget; Submit's own deadline governs.
	HTTPClient *http.Client
}

// New creates a client for the given server
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		WaitBudget: DefaultWaitBudget,
		HTTPClient: http.DefaultClient,
	}
}

// Submit sends one analysis job and classifies the result. The wait budget
// races the round trip: if the budget elapses first the in-flight request
// is cancelled best-effort and the outcome is PendingUnknown. Transport
// faults before any response are folded into PendingUnknown as well.
// Submit never retries; retrying is a caller decision.
//
// The returned outcome always carries the job's correlation id, generated
// here and sent with the request, so the caller can subscribe for status
// even when no response was ever seen.
func (c *Client) Submit(ctx context.Context, job JobSubmission) SubmissionOutcome {
	jobID := uuid.New().String()

	budget := c.WaitBudget
	if budget <= 0 {
		budget = DefaultWaitBudget
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	return Classify(jobID, c.roundTrip(ctx, jobID, job))
}

// roundTrip performs the HTTP exchange and reduces it to a TransportResult.
// Every failure mode collapses into one of the two fault kinds; nothing
// escapes past the classifier.
func (c *Client) roundTrip(ctx context.Context, jobID string, job JobSubmission) TransportResult {
	body, contentType := encodeSubmission(jobID, job)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/jobs", body)
	if err != nil {
		return TransportResult{Fault: FaultTransport}
	}
	req.Header.Set("Content-Type", contentType)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return TransportResult{Fault: faultKind(ctx, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		// Connection died mid-body; no usable response
		return TransportResult{Fault: faultKind(ctx, err)}
	}

	return TransportResult{StatusCode: resp.StatusCode, Body: respBody}
}

// faultKind separates a wait budget expiry from a genuine network fault
func faultKind(ctx context.Context, err error) FaultKind {
	if ctx.Err() == context.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded) {
		return FaultTimeout
	}
	return FaultTransport
}

// encodeSubmission builds the multipart request body
func encodeSubmission(jobID string, job JobSubmission) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	filename := job.Filename
	if filename == "" {
		filename = "transcript.vtt"
	}

	part, err := w.CreateFormFile("file", filename)
	if err == nil {
		part.Write(job.Payload)
	}
	w.WriteField("job_id", jobID)
	if job.OwnerID != "" {
		w.WriteField("owner_id", job.OwnerID)
	}
	if job.ProjectID != "" {
		w.WriteField("project_id", job.ProjectID)
	}
	w.Close()

	return &buf, w.FormDataContentType()
}

package model

import "time"

// RenderJob asks a render worker to print an HTML report page to PDF.
type RenderJob struct {
	ID         string
	HTML       string
	Properties map[string]string
	Enqueued   time.Time
	// Deadline after which the job is dropped unprocessed; zero means none.
	Deadline time.Time
	// Reply receives exactly one result. It must be buffered.
	Reply chan RenderResult
}

// RenderResult is the outcome of a RenderJob.
type RenderResult struct {
	PDF   []byte
	Pages int
	Err   error
}

// NewRenderJob returns a job with a buffered reply channel.
func NewRenderJob(id, html string, props map[string]string, deadline time.Time) RenderJob {
	return RenderJob{
		ID:         id,
		HTML:       html,
		Properties: props,
		Enqueued:   time.Now(),
		Deadline:   deadline,
		Reply:      make(chan RenderResult, 1),
	}
}

// Respond delivers r without blocking. Only the first response is kept.
func (j RenderJob) Respond(r RenderResult) {
	if j.Reply == nil {
		return
	}
	select {
	case j.Reply <- r:
	default:
	}
}

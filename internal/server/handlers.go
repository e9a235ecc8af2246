package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pbechard/citecheck/internal/job"
	"github.com/pbechard/citecheck/internal/model"
	"github.com/pbechard/citecheck/internal/store"
)

// serviceVersion is reported by the health endpoint
const serviceVersion = "0.1.0"

// Handlers contains the HTTP handlers for the citation check API
type Handlers struct {
	coord        *job.Coordinator
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewHandlers creates handlers backed by the given coordinator
func NewHandlers(coord *job.Coordinator, maxBodyBytes int64, logger *slog.Logger) *Handlers {
	return &Handlers{
		coord:        coord,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// SubmitRequest is the JSON body of POST /api/v1/documents. A request
// with any other content type is treated as the raw document text, with
// force-async taken from the "async" query parameter.
type SubmitRequest struct {
	Text       string `json:"text"`
	ForceAsync bool   `json:"force_async"`
}

// SubmitAccepted is returned when a document is queued for background
// processing instead of being checked inline.
type SubmitAccepted struct {
	JobID            string          `json:"job_id"`
	Status           model.JobStatus `json:"status"`
	ProgressEndpoint string          `json:"progress_endpoint"`
}

// ProgressResponse mirrors the job record for pollers
type ProgressResponse struct {
	JobID       string          `json:"job_id"`
	Status      model.JobStatus `json:"status"`
	CurrentStep model.JobStep   `json:"current_step,omitempty"`
	Percent     int             `json:"percent"`
	Message     string          `json:"message,omitempty"`
}

// ResultResponse carries a finished job's outcome
type ResultResponse struct {
	JobID   string          `json:"job_id"`
	Status  model.JobStatus `json:"status"`
	Message string          `json:"message,omitempty"`
	Result  *model.Result   `json:"result,omitempty"`
}

// ErrorResponse is the uniform error body
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports service liveness and queue depth
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Queued  int    `json:"queued"`
}

// HandleSubmit handles POST /api/v1/documents.
//
// Small documents are checked inline and answered with the full result.
// Large documents, and any request forcing async, are queued and
// answered 202 with the job id to poll.
func (h *Handlers) HandleSubmit(c *gin.Context) {
	if h.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}

	req, err := readSubmitRequest(c)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: fmt.Sprintf("document exceeds %d bytes", h.maxBodyBytes),
			})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "document text is required"})
		return
	}

	sub, err := h.coord.Submit(c.Request.Context(), req.Text, req.ForceAsync)
	if err != nil {
		if errors.Is(err, job.ErrQueueFull) {
			c.Header("Retry-After", "5")
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "job queue is full, retry later"})
			return
		}
		h.logger.Error("document submission failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	if sub.Async {
		c.JSON(http.StatusAccepted, SubmitAccepted{
			JobID:            sub.JobID,
			Status:           model.StatusQueued,
			ProgressEndpoint: "/api/v1/progress/" + sub.JobID,
		})
		return
	}

	c.JSON(http.StatusOK, sub.Result)
}

// HandleProgress handles GET /api/v1/progress/:id
func (h *Handlers) HandleProgress(c *gin.Context) {
	j, ok := h.lookupJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, progressOf(j))
}

// HandleResult handles GET /api/v1/results/:id.
//
// A job still in flight answers 202 with its progress; terminal jobs
// answer 200 with the result or the failure message.
func (h *Handlers) HandleResult(c *gin.Context) {
	j, ok := h.lookupJob(c)
	if !ok {
		return
	}

	switch j.Status {
	case model.StatusCompleted:
		c.JSON(http.StatusOK, ResultResponse{JobID: j.ID, Status: j.Status, Result: j.Result})
	case model.StatusFailed:
		c.JSON(http.StatusOK, ResultResponse{JobID: j.ID, Status: j.Status, Message: j.Message})
	default:
		c.Header("Retry-After", "2")
		c.JSON(http.StatusAccepted, progressOf(j))
	}
}

// HandleHealth handles GET /health
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: serviceVersion,
		Queued:  h.coord.QueueLen(),
	})
}

func (h *Handlers) lookupJob(c *gin.Context) (*model.ProcessingJob, bool) {
	j, err := h.coord.Job(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "job not found"})
			return nil, false
		}
		h.logger.Error("job lookup failed", "job_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return nil, false
	}
	return j, true
}

func progressOf(j *model.ProcessingJob) ProgressResponse {
	return ProgressResponse{
		JobID:       j.ID,
		Status:      j.Status,
		CurrentStep: j.CurrentStep,
		Percent:     j.Percent,
		Message:     j.Message,
	}
}

func readSubmitRequest(c *gin.Context) (SubmitRequest, error) {
	var req SubmitRequest

	if c.ContentType() == "application/json" {
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, fmt.Errorf("invalid request body: %w", err)
		}
		return req, nil
	}

	// Anything else is treated as the raw document text
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return req, fmt.Errorf("read request body: %w", err)
	}
	req.Text = string(body)
	req.ForceAsync, _ = strconv.ParseBool(c.Query("async"))
	return req, nil
}

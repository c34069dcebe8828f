package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mhenders/fieldflow/internal/application/port"
	"github.com/mhenders/fieldflow/internal/application/service"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	workflowService service.WorkflowService
	formService     service.FormService
	userService     service.UserService
	exportService   service.ExportService
	tokens          *TokenIssuer
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	workflowService service.WorkflowService,
	formService service.FormService,
	userService service.UserService,
	exportService service.ExportService,
	tokens *TokenIssuer,
	logger Logger,
) *Handlers {
	return &Handlers{
		workflowService: workflowService,
		formService:     formService,
		userService:     userService,
		exportService:   exportService,
		tokens:          tokens,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Warning string      `json:"warning,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// respondError maps service errors onto the HTTP status taxonomy.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, port.ErrVersionConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path)
	}

	c.JSON(status, Response{Success: false, Error: err.Error()})
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// SubmitRequest is the body for POST /api/workflow/submit
type SubmitRequest struct {
	ID string `json:"id"`
}

// Submit handles POST /api/workflow/submit
func (h *Handlers) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	form, err := h.workflowService.Submit(c.Request.Context(), req.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: form})
}

// RejectRequest is the body for POST /api/workflow/reject
type RejectRequest struct {
	ID   string `json:"id"`
	Note string `json:"note"`
}

// Reject handles POST /api/workflow/reject
func (h *Handlers) Reject(c *gin.Context) {
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	if err := h.workflowService.Reject(c.Request.Context(), req.ID, req.Note, actorEmail(c)); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"ok": true}})
}

// ForwardRequest is the body for POST /api/workflow/forward
type ForwardRequest struct {
	ID string `json:"id"`
	To string `json:"to"`
}

// Forward handles POST /api/workflow/forward
func (h *Handlers) Forward(c *gin.Context) {
	var req ForwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	if err := h.workflowService.Forward(c.Request.Context(), req.ID, req.To, actorEmail(c)); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"ok": true}})
}

// ApproveRequest is the body for POST /api/workflow/approve
type ApproveRequest struct {
	ID string `json:"id"`
}

// Approve handles POST /api/workflow/approve
func (h *Handlers) Approve(c *gin.Context) {
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	if err := h.workflowService.Approve(c.Request.Context(), req.ID, actorEmail(c)); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"ok": true}})
}

// LogRequest is the body for POST /api/workflow/log
type LogRequest struct {
	FormID     string `json:"formId"`
	Action     string `json:"action"`
	ActorEmail string `json:"actorEmail"`
}

// LogAction handles POST /api/workflow/log
func (h *Handlers) LogAction(c *gin.Context) {
	var req LogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	if err := h.workflowService.Log(c.Request.Context(), req.FormID, req.Action, req.ActorEmail); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"ok": true}})
}

// History handles GET /api/workflow/history/:formId
func (h *Handlers) History(c *gin.Context) {
	formID := c.Param("formId")

	entries, err := h.workflowService.History(c.Request.Context(), formID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

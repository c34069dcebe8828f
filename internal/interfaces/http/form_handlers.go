package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mhenders/fieldflow/internal/domain/entity"
)

// CreateFormRequest is the body for POST /api/forms
type CreateFormRequest struct {
	JobPONumber string          `json:"job_po_number"`
	Data        entity.FormData `json:"data"`
}

// CreateForm handles POST /api/forms. The owner email comes from the
// authenticated technician.
func (h *Handlers) CreateForm(c *gin.Context) {
	var req CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	form, warning, err := h.formService.Create(c.Request.Context(), req.JobPONumber, actorEmail(c), req.Data)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: form, Warning: warning})
}

// GetForm handles GET /api/forms/:id
func (h *Handlers) GetForm(c *gin.Context) {
	form, err := h.formService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: form})
}

// ListFormsRequest holds query parameters for GET /api/forms
type ListFormsRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// ListForms handles GET /api/forms
func (h *Handlers) ListForms(c *gin.Context) {
	var req ListFormsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	forms, err := h.formService.List(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: forms})
}

// SaveDraftRequest is the body for PUT /api/forms/:id
type SaveDraftRequest struct {
	Data entity.FormData `json:"data"`
}

// SaveDraft handles PUT /api/forms/:id
func (h *Handlers) SaveDraft(c *gin.Context) {
	var req SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	form, err := h.formService.SaveDraft(c.Request.Context(), c.Param("id"), req.Data, actorEmail(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: form})
}

// DeleteForm handles DELETE /api/forms/:id
func (h *Handlers) DeleteForm(c *gin.Context) {
	if err := h.formService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"ok": true}})
}

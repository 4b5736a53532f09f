package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielokoye/staffhub/internal/config"
	"github.com/danielokoye/staffhub/internal/domain/form"
	"github.com/danielokoye/staffhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type FormStore interface {
	CreateForm(ctx context.Context, req form.CreateFormRequest) (form.Form, error)
	GetByID(ctx context.Context, id string) (form.Form, error)
	CreateResponse(ctx context.Context, formID string, req form.SubmitResponseRequest) (form.Response, error)
}

type FormsHandler struct {
	repo FormStore
}

func NewFormsHandler(repo FormStore) *FormsHandler {
	return &FormsHandler{repo: repo}
}

func (h *FormsHandler) Create(ctx *gin.Context) {
	var req form.CreateFormRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// Section references are validated before anything is written: a
	// dangling index must fail the whole creation, never a partial form.
	err := req.Validate()

	if err != nil {
		RespondBadRequest(ctx, gin.H{"fields": err.Error()}, "Form creation failed due to validation errors.")
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	f, err := h.repo.CreateForm(cctx, req)

	if err != nil {
		RespondInternal(ctx, "An error occurred while creating the form.")
		return
	}

	// form definitions are admin-authored; keep an audit trail
	if username, ok := middlewares.UsernameFromContext(ctx); ok {
		slog.Default().InfoContext(cctx, "form.create",
			"form_id", f.ID,
			"created_by", username,
		)
	}

	RespondCreated(ctx, f, "Form created successfully.")
}

func (h *FormsHandler) Get(ctx *gin.Context) {
	id := ctx.Param("formId")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	f, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, form.ErrNotFound) {
			RespondNotFound(ctx, "No form found with the given ID.")
			return
		}

		RespondInternal(ctx, "An error occurred while fetching the form.")
		return
	}

	RespondOK(ctx, f, "Form retrieved successfully.")
}

func (h *FormsHandler) SubmitResponse(ctx *gin.Context) {
	var req form.SubmitResponseRequest

	if !BindJSON(ctx, &req) {
		return
	}

	formID := ctx.Param("formId")

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	f, err := h.repo.GetByID(cctx, formID)

	if err != nil {
		if errors.Is(err, form.ErrNotFound) {
			RespondNotFound(ctx, "Form not found.")
			return
		}

		RespondInternal(ctx, "An error occurred while submitting the response.")
		return
	}

	if errs := validateResponseFields(f, req); len(errs) > 0 {
		RespondBadRequest(ctx, gin.H{"responseFields": errs}, "Response submission failed due to validation errors.")
		return
	}

	resp, err := h.repo.CreateResponse(cctx, f.ID, req)

	if err != nil {
		RespondInternal(ctx, "An error occurred while submitting the response.")
		return
	}

	RespondCreated(ctx, resp, "Response submitted successfully.")
}

// validateResponseFields checks every answer against the form
// definition: the field must belong to this form and the answer must
// parse as the field's declared type.
func validateResponseFields(f form.Form, req form.SubmitResponseRequest) []string {
	fieldsByID := make(map[string]form.Field, len(f.Fields))

	for _, fld := range f.Fields {
		fieldsByID[fld.ID] = fld
	}

	var errs []string

	for i, rf := range req.ResponseFields {
		fld, ok := fieldsByID[rf.FieldID]

		if !ok {
			errs = append(errs, fmt.Sprintf("responseFields[%d]: field %s does not belong to this form", i, rf.FieldID))
			continue
		}

		if err := form.ValidateAnswer(fld.FieldType, rf.Answer); err != nil {
			errs = append(errs, fmt.Sprintf("responseFields[%d]: %v", i, err))
		}
	}

	return errs
}

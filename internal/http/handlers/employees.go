package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielokoye/staffhub/internal/config"
	"github.com/danielokoye/staffhub/internal/domain/employee"
	"github.com/danielokoye/staffhub/internal/repo/postgres"
	"github.com/danielokoye/staffhub/internal/security"
	"github.com/gin-gonic/gin"
)

// pageSize is fixed: the directory is low-volume internal tooling.
const pageSize = 10

type EmployeeStore interface {
	List(ctx context.Context, filter employee.ListFilter) ([]employee.Employee, int, error)
	GetByID(ctx context.Context, id string) (employee.Employee, error)
	Create(ctx context.Context, req employee.CreateRequest) (employee.Employee, error)
	Update(ctx context.Context, id string, req employee.UpdateRequest) (employee.Employee, error)
	Patch(ctx context.Context, id string, req employee.PatchRequest) (employee.Employee, error)
	Delete(ctx context.Context, id string) error
}

type EmployeesHandler struct {
	repo EmployeeStore
}

func NewEmployeesHandler(repo EmployeeStore) *EmployeesHandler {
	return &EmployeesHandler{repo: repo}
}

type listEmployeesQuery struct {
	FirstName  *string `form:"firstName"`
	LastName   *string `form:"lastName"`
	Email      *string `form:"email"`
	Department *string `form:"department"`
	Position   *string `form:"position"`
	HireDate   *string `form:"hireDate" binding:"omitempty,datetime=2006-01-02"`
	Page       int     `form:"page,default=1" binding:"omitempty,min=1"`
}

func (h *EmployeesHandler) List(ctx *gin.Context) {
	var q listEmployeesQuery

	err := ctx.ShouldBindQuery(&q)

	if err != nil {
		RespondBadRequest(ctx, parseBindError(err), "Invalid employee filters.")
		return
	}

	if q.Page < 1 {
		q.Page = 1
	}

	filter := employee.ListFilter{
		FirstName:    q.FirstName,
		LastName:     q.LastName,
		Email:        q.Email,
		Department:   q.Department,
		Position:     q.Position,
		HireDateFrom: q.HireDate,
		Limit:        pageSize,
		Offset:       (q.Page - 1) * pageSize,
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	employees, total, err := h.repo.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "An error occurred while fetching the employee list.")
		return
	}

	if len(employees) == 0 {
		// An empty filtered set is a user-facing "no results", not a
		// server error.
		ctx.JSON(http.StatusNotFound, Envelope{
			StatusCode: http.StatusNotFound,
			Title:      "Not Found",
			Data:       []employee.Employee{},
			Errors:     gin.H{"error": "No employees found."},
			Message:    "No employees available.",
		})
		return
	}

	RespondOK(ctx, gin.H{
		"items":    employees,
		"count":    total,
		"page":     q.Page,
		"pageSize": pageSize,
	}, "Employee list retrieved successfully.")
}

func (h *EmployeesHandler) Get(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	e, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			RespondNotFound(ctx, "No employee found with the given ID.")
			return
		}

		RespondInternal(ctx, "An error occurred while fetching the employee details.")
		return
	}

	RespondOK(ctx, e, "Employee details retrieved successfully.")
}

func (h *EmployeesHandler) Create(ctx *gin.Context) {
	var req employee.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// The nested user's password goes through the same policy as
	// self-registration.
	if err := security.ValidatePassword(req.User.Password, req.User.Username, req.User.Email, req.FirstName, req.LastName); err != nil {
		var policyErr *security.PolicyError

		if errors.As(err, &policyErr) {
			RespondBadRequest(ctx, gin.H{"user.password": policyErr.Reasons}, "Employee creation failed. Validation errors.")
			return
		}

		RespondInternal(ctx, "An error occurred while creating the employee.")
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	e, err := h.repo.Create(cctx, req)

	if err != nil {
		if respondEmployeeConflict(ctx, err, "Employee creation failed. Validation errors.") {
			return
		}

		RespondInternal(ctx, "An error occurred while creating the employee.")
		return
	}

	RespondCreated(ctx, e, "Employee created successfully.")
}

func (h *EmployeesHandler) Update(ctx *gin.Context) {
	var req employee.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	e, err := h.repo.Update(cctx, id, req)

	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			RespondNotFound(ctx, "No employee found with the given ID.")
			return
		}

		if respondEmployeeConflict(ctx, err, "Validation failed while updating employee details.") {
			return
		}

		RespondInternal(ctx, "An error occurred while updating the employee details.")
		return
	}

	RespondOK(ctx, e, "Employee details updated successfully.")
}

func (h *EmployeesHandler) Patch(ctx *gin.Context) {
	var req employee.PatchRequest

	if !BindJSON(ctx, &req) {
		return
	}

	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	e, err := h.repo.Patch(cctx, id, req)

	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			RespondNotFound(ctx, "No employee found with the given ID.")
			return
		}

		if respondEmployeeConflict(ctx, err, "Validation failed while partially updating employee details.") {
			return
		}

		RespondInternal(ctx, "An error occurred while partially updating the employee details.")
		return
	}

	RespondOK(ctx, e, "Employee details partially updated successfully.")
}

func (h *EmployeesHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			RespondNotFound(ctx, "No employee found with the given ID.")
			return
		}

		RespondInternal(ctx, "An error occurred while deleting the employee.")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// Duplicate unique fields surface as validation failures, matching the
// rest of the envelope contract.
func respondEmployeeConflict(ctx *gin.Context, err error, message string) bool {
	switch {
	case errors.Is(err, postgres.ErrEmployeeEmailTaken):
		RespondBadRequest(ctx, gin.H{"email": "This email is already taken."}, message)
	case errors.Is(err, postgres.ErrEmailTaken):
		RespondBadRequest(ctx, gin.H{"user.email": "This email is already taken."}, message)
	case errors.Is(err, postgres.ErrUsernameTaken):
		RespondBadRequest(ctx, gin.H{"user.username": "This username is already taken."}, message)
	default:
		return false
	}

	return true
}

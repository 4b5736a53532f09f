package employee

import (
	"errors"

	"github.com/danielokoye/staffhub/internal/domain/user"
)

var ErrNotFound = errors.New("employee not found")

type Employee struct {
	ID         string    `json:"id"`
	User       user.User `json:"user"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Department string    `json:"department"`
	Position   string    `json:"position"`
	HireDate   string    `json:"hireDate"` // YYYY-MM-DD
	Salary     string    `json:"salary"`   // fixed-point decimal, e.g. "55000.00"
	IsActive   bool      `json:"isActive"`
}

// NewUserPayload is the nested user block on employee creation. The
// user row is created together with the employee in one transaction.
type NewUserPayload struct {
	Username string `json:"username" binding:"required,min=3,max=150"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	IsAdmin  bool   `json:"isAdmin"`
}

// UserPayload carries the user fields that employee updates may cascade
// to the linked user. Password is deliberately absent: it is only
// changeable through /change-password.
type UserPayload struct {
	Username *string `json:"username" binding:"omitempty,min=3,max=150"`
	Email    *string `json:"email" binding:"omitempty,email"`
	IsAdmin  *bool   `json:"isAdmin"`
}

type CreateRequest struct {
	User       NewUserPayload `json:"user" binding:"required"`
	FirstName  string         `json:"firstName" binding:"required,max=100"`
	LastName   string         `json:"lastName" binding:"required,max=100"`
	Email      string         `json:"email" binding:"required,email"`
	Phone      string         `json:"phone" binding:"omitempty,max=15"`
	Department string         `json:"department" binding:"omitempty,max=100"`
	Position   string         `json:"position" binding:"omitempty,max=100"`
	HireDate   string         `json:"hireDate" binding:"required,datetime=2006-01-02"`
	Salary     string         `json:"salary" binding:"required,number"`
	IsActive   *bool          `json:"isActive"`
}

// UpdateRequest is a full replace (PUT).
type UpdateRequest struct {
	User       *UserPayload `json:"user"`
	FirstName  string       `json:"firstName" binding:"required,max=100"`
	LastName   string       `json:"lastName" binding:"required,max=100"`
	Email      string       `json:"email" binding:"required,email"`
	Phone      string       `json:"phone" binding:"omitempty,max=15"`
	Department string       `json:"department" binding:"omitempty,max=100"`
	Position   string       `json:"position" binding:"omitempty,max=100"`
	HireDate   string       `json:"hireDate" binding:"required,datetime=2006-01-02"`
	Salary     string       `json:"salary" binding:"required,number"`
	IsActive   *bool        `json:"isActive"`
}

// PatchRequest updates only the fields that are present (PATCH).
type PatchRequest struct {
	User       *UserPayload `json:"user"`
	FirstName  *string      `json:"firstName" binding:"omitempty,max=100"`
	LastName   *string      `json:"lastName" binding:"omitempty,max=100"`
	Email      *string      `json:"email" binding:"omitempty,email"`
	Phone      *string      `json:"phone" binding:"omitempty,max=15"`
	Department *string      `json:"department" binding:"omitempty,max=100"`
	Position   *string      `json:"position" binding:"omitempty,max=100"`
	HireDate   *string      `json:"hireDate" binding:"omitempty,datetime=2006-01-02"`
	Salary     *string      `json:"salary" binding:"omitempty,number"`
	IsActive   *bool        `json:"isActive"`
}

// ListFilter holds the optional directory filters; all are combined
// with AND. Substring matches are case-insensitive, HireDateFrom is a
// greater-than-or-equal bound.
type ListFilter struct {
	FirstName    *string
	LastName     *string
	Email        *string
	Department   *string
	Position     *string
	HireDateFrom *string
	Limit        int
	Offset       int
}

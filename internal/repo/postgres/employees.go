package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielokoye/staffhub/internal/domain/employee"
	"github.com/danielokoye/staffhub/internal/domain/user"
	"github.com/danielokoye/staffhub/internal/observability"
	"github.com/danielokoye/staffhub/internal/security"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrEmployeeEmailTaken = errors.New("employee email already taken")

// employeeColumns joins the employee row with its owning user.
const employeeColumns = `
	e.id, e.first_name, e.last_name, e.email, e.phone, e.department, e.position,
	e.hire_date::text, e.salary::text, e.is_active,
	u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name,
	u.is_admin, u.is_active, u.created_at, u.updated_at`

type EmployeesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewEmployeesRepo(pool *pgxpool.Pool, prom *observability.Prom) *EmployeesRepo {
	return &EmployeesRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *EmployeesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var e employee.Employee
	var u user.User

	err := row.Scan(
		&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Phone, &e.Department, &e.Position,
		&e.HireDate, &e.Salary, &e.IsActive,
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.IsAdmin, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)

	if err != nil {
		return employee.Employee{}, err
	}

	e.User = u

	return e, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike backslash-escapes the pattern metacharacters so a filter
// value only ever matches as a literal substring.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// List applies the directory filters (ANDed, case-insensitive
// substrings, hire date lower bound) ordered by hire date descending.
func (r *EmployeesRepo) List(ctx context.Context, filter employee.ListFilter) ([]employee.Employee, int, error) {
	baseQuery := `SELECT` + employeeColumns + `,
		COUNT(*) OVER() AS total
	FROM employees e
	JOIN users u ON u.id = e.user_id
	`

	var conds []string
	var args []interface{}

	argsPosition := 1

	like := func(col string, val *string) {
		if val == nil {
			return
		}
		conds = append(conds, fmt.Sprintf(`%s ILIKE '%%' || $%d || '%%' ESCAPE '\'`, col, argsPosition))
		args = append(args, escapeLike(*val))
		argsPosition++
	}

	like("e.first_name", filter.FirstName)
	like("e.last_name", filter.LastName)
	like("e.email", filter.Email)
	like("e.department", filter.Department)
	like("e.position", filter.Position)

	if filter.HireDateFrom != nil {
		conds = append(conds, fmt.Sprintf("e.hire_date >= $%d::date", argsPosition))
		args = append(args, *filter.HireDateFrom)
		argsPosition++
	}

	query := baseQuery

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// stable ordering for pagination, newest hires first
	query += fmt.Sprintf(" ORDER BY e.hire_date DESC, e.id DESC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	args = append(args, filter.Limit, filter.Offset)

	var rows pgx.Rows
	var err error

	err = r.observe("employees.list", func() error {
		rows, err = r.pool.Query(ctx, query, args...)
		return err
	})

	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	output := make([]employee.Employee, 0, filter.Limit)
	total := 0

	for rows.Next() {
		var e employee.Employee
		var u user.User
		var t int

		err = rows.Scan(
			&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Phone, &e.Department, &e.Position,
			&e.HireDate, &e.Salary, &e.IsActive,
			&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
			&u.IsAdmin, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
			&t,
		)

		if err != nil {
			return nil, 0, err
		}

		e.User = u
		total = t
		output = append(output, e)
	}

	err = rows.Err()

	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

func (r *EmployeesRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	var e employee.Employee
	var err error

	err = r.observe("employees.get_by_id", func() error {
		e, err = scanEmployee(r.pool.QueryRow(ctx, `SELECT`+employeeColumns+`
			FROM employees e
			JOIN users u ON u.id = e.user_id
			WHERE e.id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrNotFound
		}

		return employee.Employee{}, err
	}

	return e, nil
}

// Create inserts the user row and the employee row in one transaction:
// a failed sub-step must never leave a user without an employee.
func (r *EmployeesRepo) Create(ctx context.Context, req employee.CreateRequest) (emp employee.Employee, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	hash, err := security.HashPassword(req.User.Password)

	if err != nil {
		return
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Username:     req.User.Username,
		Email:        req.User.Email,
		PasswordHash: hash,
		IsAdmin:      req.User.IsAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = r.observe("employees.create.insert_user", func() error {
		return createUser(ctx, tx, u)
	})

	if err != nil {
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	emp = employee.Employee{
		ID:         uuid.NewString(),
		User:       u,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Department: req.Department,
		Position:   req.Position,
		HireDate:   req.HireDate,
		Salary:     req.Salary,
		IsActive:   isActive,
	}

	err = r.observe("employees.create.insert_employee", func() error {
		_, e := tx.Exec(ctx, `
			INSERT INTO employees (id, user_id, first_name, last_name, email, phone, department, position, hire_date, salary, is_active)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::date,$10::numeric,$11)
		`, emp.ID, u.ID, emp.FirstName, emp.LastName, emp.Email, emp.Phone, emp.Department, emp.Position, emp.HireDate, emp.Salary, emp.IsActive)
		return e
	})

	if err != nil {
		err = mapEmployeeUniqueViolation(err)
		return
	}

	err = tx.Commit(ctx)

	if err != nil {
		return
	}

	return emp, nil
}

func mapEmployeeUniqueViolation(err error) error {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "employees_email_key" {
		return ErrEmployeeEmailTaken
	}

	return err
}

// Update is a full replace of the employee scalar fields; nested user
// data cascades to the owning user row in the same transaction.
func (r *EmployeesRepo) Update(ctx context.Context, id string, req employee.UpdateRequest) (emp employee.Employee, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	var userID string

	err = r.observe("employees.update.employee", func() error {
		return tx.QueryRow(ctx, `
			UPDATE employees
			SET first_name = $2,
			    last_name = $3,
			    email = $4,
			    phone = $5,
			    department = $6,
			    position = $7,
			    hire_date = $8::date,
			    salary = $9::numeric,
			    is_active = $10
			WHERE id = $1
			RETURNING user_id
		`, id, req.FirstName, req.LastName, req.Email, req.Phone, req.Department, req.Position, req.HireDate, req.Salary, isActive).Scan(&userID)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = employee.ErrNotFound
			return
		}
		err = mapEmployeeUniqueViolation(err)
		return
	}

	err = r.updateLinkedUser(ctx, tx, userID, req.User)

	if err != nil {
		return
	}

	err = tx.Commit(ctx)

	if err != nil {
		return
	}

	return r.GetByID(ctx, id)
}

// Patch updates only the supplied fields.
func (r *EmployeesRepo) Patch(ctx context.Context, id string, req employee.PatchRequest) (emp employee.Employee, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var sets []string
	var args []interface{}

	args = append(args, id)
	pos := 2

	set := func(expr string, val interface{}) {
		sets = append(sets, fmt.Sprintf(expr, pos))
		args = append(args, val)
		pos++
	}

	if req.FirstName != nil {
		set("first_name = $%d", *req.FirstName)
	}
	if req.LastName != nil {
		set("last_name = $%d", *req.LastName)
	}
	if req.Email != nil {
		set("email = $%d", *req.Email)
	}
	if req.Phone != nil {
		set("phone = $%d", *req.Phone)
	}
	if req.Department != nil {
		set("department = $%d", *req.Department)
	}
	if req.Position != nil {
		set("position = $%d", *req.Position)
	}
	if req.HireDate != nil {
		set("hire_date = $%d::date", *req.HireDate)
	}
	if req.Salary != nil {
		set("salary = $%d::numeric", *req.Salary)
	}
	if req.IsActive != nil {
		set("is_active = $%d", *req.IsActive)
	}

	var userID string

	if len(sets) > 0 {
		query := "UPDATE employees SET " + strings.Join(sets, ", ") + " WHERE id = $1 RETURNING user_id"

		err = r.observe("employees.patch.employee", func() error {
			return tx.QueryRow(ctx, query, args...).Scan(&userID)
		})
	} else {
		err = r.observe("employees.patch.lookup", func() error {
			return tx.QueryRow(ctx, `SELECT user_id FROM employees WHERE id = $1`, id).Scan(&userID)
		})
	}

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = employee.ErrNotFound
			return
		}
		err = mapEmployeeUniqueViolation(err)
		return
	}

	err = r.updateLinkedUser(ctx, tx, userID, req.User)

	if err != nil {
		return
	}

	err = tx.Commit(ctx)

	if err != nil {
		return
	}

	return r.GetByID(ctx, id)
}

func (r *EmployeesRepo) updateLinkedUser(ctx context.Context, tx pgx.Tx, userID string, u *employee.UserPayload) error {
	if u == nil {
		return nil
	}

	var sets []string
	var args []interface{}

	args = append(args, userID)
	pos := 2

	if u.Username != nil {
		sets = append(sets, fmt.Sprintf("username = $%d", pos))
		args = append(args, *u.Username)
		pos++
	}
	if u.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", pos))
		args = append(args, *u.Email)
		pos++
	}
	if u.IsAdmin != nil {
		sets = append(sets, fmt.Sprintf("is_admin = $%d", pos))
		args = append(args, *u.IsAdmin)
		pos++
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")

	err := r.observe("employees.update.user", func() error {
		_, e := tx.Exec(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = $1", args...)
		return e
	})

	if err != nil {
		return mapUserUniqueViolation(err)
	}

	return nil
}

// Delete removes the employee row only. The owning user survives: the
// cascade runs user -> employee, never the other way.
func (r *EmployeesRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("employees.delete", func() error {
		tag, err = r.pool.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return employee.ErrNotFound
	}

	return nil
}

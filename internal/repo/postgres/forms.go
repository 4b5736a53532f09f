package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/danielokoye/staffhub/internal/domain/form"
	"github.com/danielokoye/staffhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FormsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewFormsRepo(pool *pgxpool.Pool, prom *observability.Prom) *FormsRepo {
	return &FormsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *FormsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// CreateForm persists the form, its sections and its fields in one
// transaction. Field section indexes must already be validated by the
// caller; here they are resolved to the ids of the sections created in
// the same transaction, so a field can only ever point inside its own
// form.
func (r *FormsRepo) CreateForm(ctx context.Context, req form.CreateFormRequest) (f form.Form, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	f = form.Form{
		ID:       uuid.NewString(),
		Title:    req.Title,
		Sections: make([]form.Section, 0, len(req.Sections)),
		Fields:   make([]form.Field, 0, len(req.Fields)),
	}

	err = r.observe("forms.create.form", func() error {
		_, e := tx.Exec(ctx, `INSERT INTO forms (id, title) VALUES ($1, $2)`, f.ID, f.Title)
		return e
	})

	if err != nil {
		return
	}

	for _, s := range req.Sections {
		section := form.Section{
			ID:    uuid.NewString(),
			Title: s.Title,
			Order: s.Order,
		}

		err = r.observe("forms.create.section", func() error {
			_, e := tx.Exec(ctx,
				`INSERT INTO form_sections (id, form_id, title, ord) VALUES ($1,$2,$3,$4)`,
				section.ID, f.ID, section.Title, section.Order,
			)
			return e
		})

		if err != nil {
			return
		}

		f.Sections = append(f.Sections, section)
	}

	for _, fp := range req.Fields {
		required := true
		if fp.Required != nil {
			required = *fp.Required
		}

		var sectionID *string

		if fp.Section != nil {
			if *fp.Section < 0 || *fp.Section >= len(f.Sections) {
				err = form.ErrFieldNotFound
				return
			}
			id := f.Sections[*fp.Section].ID
			sectionID = &id
		}

		field := form.Field{
			ID:        uuid.NewString(),
			SectionID: sectionID,
			Label:     fp.Label,
			FieldType: form.FieldType(fp.FieldType),
			Required:  required,
			Order:     fp.Order,
		}

		err = r.observe("forms.create.field", func() error {
			_, e := tx.Exec(ctx,
				`INSERT INTO form_fields (id, form_id, section_id, label, field_type, required, ord)
				 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				field.ID, f.ID, field.SectionID, field.Label, string(field.FieldType), field.Required, field.Order,
			)
			return e
		})

		if err != nil {
			return
		}

		f.Fields = append(f.Fields, field)
	}

	err = tx.Commit(ctx)

	if err != nil {
		return
	}

	return f, nil
}

func (r *FormsRepo) GetByID(ctx context.Context, id string) (form.Form, error) {
	var f form.Form

	err := r.observe("forms.get.form", func() error {
		return r.pool.QueryRow(ctx, `SELECT id, title FROM forms WHERE id = $1`, id).Scan(&f.ID, &f.Title)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return form.Form{}, form.ErrNotFound
		}

		return form.Form{}, err
	}

	f.Sections = make([]form.Section, 0)
	f.Fields = make([]form.Field, 0)

	err = r.observe("forms.get.sections", func() error {
		rows, e := r.pool.Query(ctx,
			`SELECT id, title, ord FROM form_sections WHERE form_id = $1 ORDER BY ord ASC, id ASC`, id)

		if e != nil {
			return e
		}

		defer rows.Close()

		for rows.Next() {
			var s form.Section

			if e := rows.Scan(&s.ID, &s.Title, &s.Order); e != nil {
				return e
			}

			f.Sections = append(f.Sections, s)
		}

		return rows.Err()
	})

	if err != nil {
		return form.Form{}, err
	}

	err = r.observe("forms.get.fields", func() error {
		rows, e := r.pool.Query(ctx,
			`SELECT id, section_id, label, field_type, required, ord
			 FROM form_fields WHERE form_id = $1 ORDER BY ord ASC, id ASC`, id)

		if e != nil {
			return e
		}

		defer rows.Close()

		for rows.Next() {
			var fld form.Field

			if e := rows.Scan(&fld.ID, &fld.SectionID, &fld.Label, &fld.FieldType, &fld.Required, &fld.Order); e != nil {
				return e
			}

			f.Fields = append(f.Fields, fld)
		}

		return rows.Err()
	})

	if err != nil {
		return form.Form{}, err
	}

	return f, nil
}

// CreateResponse stamps one response row and one row per answer, all in
// one transaction so a failed answer insert leaves nothing behind.
func (r *FormsRepo) CreateResponse(ctx context.Context, formID string, req form.SubmitResponseRequest) (resp form.Response, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	resp = form.Response{
		ID:        uuid.NewString(),
		FormID:    formID,
		CreatedAt: time.Now().UTC(),
		Fields:    make([]form.ResponseField, 0, len(req.ResponseFields)),
	}

	err = r.observe("forms.submit.response", func() error {
		_, e := tx.Exec(ctx,
			`INSERT INTO form_responses (id, form_id, created_at) VALUES ($1,$2,$3)`,
			resp.ID, resp.FormID, resp.CreatedAt,
		)
		return e
	})

	if err != nil {
		return
	}

	for _, rf := range req.ResponseFields {
		answer := form.ResponseField{
			ID:      uuid.NewString(),
			FieldID: rf.FieldID,
			Answer:  rf.Answer,
		}

		err = r.observe("forms.submit.response_field", func() error {
			_, e := tx.Exec(ctx,
				`INSERT INTO form_response_fields (id, response_id, field_id, answer) VALUES ($1,$2,$3,$4)`,
				answer.ID, resp.ID, answer.FieldID, answer.Answer,
			)
			return e
		})

		if err != nil {
			return
		}

		resp.Fields = append(resp.Fields, answer)
	}

	err = tx.Commit(ctx)

	if err != nil {
		return
	}

	return resp, nil
}

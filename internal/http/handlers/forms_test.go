package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielokoye/staffhub/internal/domain/form"
	"github.com/danielokoye/staffhub/internal/http/handlers"
)

// Fake repository implementation of the handlers.FormStore interface

type fakeFormsRepo struct {
	createFormFn     func(ctx context.Context, req form.CreateFormRequest) (form.Form, error)
	getFn            func(ctx context.Context, id string) (form.Form, error)
	createResponseFn func(ctx context.Context, formID string, req form.SubmitResponseRequest) (form.Response, error)
}

func (f *fakeFormsRepo) CreateForm(ctx context.Context, req form.CreateFormRequest) (form.Form, error) {
	if f.createFormFn != nil {
		return f.createFormFn(ctx, req)
	}
	return form.Form{}, nil
}

func (f *fakeFormsRepo) GetByID(ctx context.Context, id string) (form.Form, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return form.Form{}, form.ErrNotFound
}

func (f *fakeFormsRepo) CreateResponse(ctx context.Context, formID string, req form.SubmitResponseRequest) (form.Response, error) {
	if f.createResponseFn != nil {
		return f.createResponseFn(ctx, formID, req)
	}
	return form.Response{}, nil
}

func TestCreateFormHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		repoSetup      func(*fakeFormsRepo)
		wantStatusCode int
	}{
		{
			name: "success_with_sections_and_fields",
			body: `{
				"title": "Onboarding Survey",
				"sections": [
					{"title": "Personal", "order": 0},
					{"title": "Work", "order": 1}
				],
				"fields": [
					{"label": "Full name", "fieldType": "text", "required": true, "section": 0},
					{"label": "Start date", "fieldType": "date", "section": 1},
					{"label": "Years of experience", "fieldType": "number"}
				]
			}`,
			repoSetup: func(f *fakeFormsRepo) {
				f.createFormFn = func(ctx context.Context, req form.CreateFormRequest) (form.Form, error) {
					if len(req.Sections) != 2 || len(req.Fields) != 3 {
						return form.Form{}, errors.New("payload not passed through")
					}
					if req.Fields[0].Section == nil || *req.Fields[0].Section != 0 {
						return form.Form{}, errors.New("section index not passed")
					}
					if req.Fields[2].Section != nil {
						return form.Form{}, errors.New("sectionless field must stay nil")
					}
					return form.Form{ID: newUUID(), Title: req.Title}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "success_bare_form",
			body: `{"title": "Quick Poll"}`,
			repoSetup: func(f *fakeFormsRepo) {
				f.createFormFn = func(ctx context.Context, req form.CreateFormRequest) (form.Form, error) {
					return form.Form{ID: newUUID(), Title: req.Title}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "dangling_section_index",
			body: `{
				"title": "Onboarding Survey",
				"sections": [{"title": "Personal"}],
				"fields": [{"label": "Full name", "fieldType": "text", "section": 5}]
			}`,
			repoSetup:      nil, // a dangling reference never reaches the store
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "unknown_field_type",
			body:           `{"title": "Survey", "fields": [{"label": "Agree?", "fieldType": "checkbox"}]}`,
			repoSetup:      nil,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing_title",
			body:           `{"fields": [{"label": "Full name", "fieldType": "text"}]}`,
			repoSetup:      nil,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "repo_error",
			body: `{"title": "Quick Poll"}`,
			repoSetup: func(f *fakeFormsRepo) {
				f.createFormFn = func(ctx context.Context, req form.CreateFormRequest) (form.Form, error) {
					return form.Form{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeFormsRepo{}

			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewFormsHandler(fakeRepo)
			r := setupRouter(http.MethodPost, "/form/create", h.Create)

			w := postJSON(r, "/form/create", tt.body, nil)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestGetFormHandler(t *testing.T) {
	validID := newUUID()

	tests := []struct {
		name           string
		url            string
		repoSetup      func(*fakeFormsRepo)
		wantStatusCode int
	}{
		{
			name: "success",
			url:  "/form/" + validID,
			repoSetup: func(f *fakeFormsRepo) {
				f.getFn = func(ctx context.Context, id string) (form.Form, error) {
					return form.Form{
						ID:       id,
						Title:    "Onboarding Survey",
						Sections: []form.Section{{ID: newUUID(), Title: "Personal", Order: 0}},
						Fields:   []form.Field{{ID: newUUID(), Label: "Full name", FieldType: form.FieldTypeText}},
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "not_found",
			url:            "/form/" + newUUID(),
			repoSetup:      nil, // default store returns ErrNotFound
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "repo_error",
			url:  "/form/" + validID,
			repoSetup: func(f *fakeFormsRepo) {
				f.getFn = func(ctx context.Context, id string) (form.Form, error) {
					return form.Form{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeFormsRepo{}

			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewFormsHandler(fakeRepo)
			r := setupRouter(http.MethodGet, "/form/:formId", h.Get)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestSubmitResponseHandler(t *testing.T) {
	formID := newUUID()
	textFieldID := newUUID()
	numberFieldID := newUUID()
	dateFieldID := newUUID()

	storedForm := form.Form{
		ID:    formID,
		Title: "Onboarding Survey",
		Fields: []form.Field{
			{ID: textFieldID, Label: "Full name", FieldType: form.FieldTypeText, Required: true},
			{ID: numberFieldID, Label: "Years of experience", FieldType: form.FieldTypeNumber},
			{ID: dateFieldID, Label: "Start date", FieldType: form.FieldTypeDate},
		},
	}

	tests := []struct {
		name           string
		url            string
		body           string
		repoSetup      func(*fakeFormsRepo)
		wantStatusCode int
	}{
		{
			name: "success",
			url:  "/form/" + formID + "/submit",
			body: `{"responseFields": [
				{"fieldId": "` + textFieldID + `", "answer": "Ada Obi"},
				{"fieldId": "` + numberFieldID + `", "answer": "7"},
				{"fieldId": "` + dateFieldID + `", "answer": "2021-06-01"}
			]}`,
			repoSetup: func(f *fakeFormsRepo) {
				f.getFn = func(ctx context.Context, id string) (form.Form, error) {
					return storedForm, nil
				}
				f.createResponseFn = func(ctx context.Context, fID string, req form.SubmitResponseRequest) (form.Response, error) {
					if fID != formID {
						return form.Response{}, errors.New("response stored against wrong form")
					}
					if len(req.ResponseFields) != 3 {
						return form.Response{}, errors.New("answers not passed through")
					}
					return form.Response{
						ID:        newUUID(),
						FormID:    fID,
						CreatedAt: time.Now().UTC(),
						Fields: []form.ResponseField{
							{ID: newUUID(), FieldID: textFieldID, Answer: "Ada Obi"},
							{ID: newUUID(), FieldID: numberFieldID, Answer: "7"},
							{ID: newUUID(), FieldID: dateFieldID, Answer: "2021-06-01"},
						},
					}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "partial_submission_is_allowed",
			url:  "/form/" + formID + "/submit",
			body: `{"responseFields": [{"fieldId": "` + textFieldID + `", "answer": "Ada Obi"}]}`,
			repoSetup: func(f *fakeFormsRepo) {
				f.getFn = func(ctx context.Context, id string) (form.Form, error) {
					return storedForm, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "form_not_found",
			url:            "/form/" + newUUID() + "/submit",
			body:           `{"responseFields": [{"fieldId": "` + textFieldID + `", "answer": "Ada Obi"}]}`,
			repoSetup:      nil, // default store returns ErrNotFound
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "field_from_another_form",
			url:  "/form/" + formID + "/submit",
			body: `{"responseFields": [{"fieldId": "` + newUUID() + `", "answer": "Ada Obi"}]}`,
			repoSetup: func(f *fakeFormsRepo) {
				f.getFn = func(ctx context.Context, id string) (form.Form, error) {
					return storedForm, nil
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "number_answer_rejects_words",
			url:  "/form/" + formID + "/submit",
			body: `{"responseFields": [{"fieldId": "` + numberFieldID + `", "answer": "seven"}]}`,
			repoSetup: func(f *fakeFormsRepo) {
				f.getFn = func(ctx context.Context, id string) (form.Form, error) {
					return storedForm, nil
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "date_answer_rejects_bad_format",
			url:  "/form/" + formID + "/submit",
			body: `{"responseFields": [{"fieldId": "` + dateFieldID + `", "answer": "01/06/2021"}]}`,
			repoSetup: func(f *fakeFormsRepo) {
				f.getFn = func(ctx context.Context, id string) (form.Form, error) {
					return storedForm, nil
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing_response_fields",
			url:            "/form/" + formID + "/submit",
			body:           `{}`,
			repoSetup:      nil,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "field_id_must_be_uuid",
			url:            "/form/" + formID + "/submit",
			body:           `{"responseFields": [{"fieldId": "42", "answer": "Ada Obi"}]}`,
			repoSetup:      nil,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeFormsRepo{}

			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewFormsHandler(fakeRepo)
			r := setupRouter(http.MethodPost, "/form/:formId/submit", h.SubmitResponse)

			w := postJSON(r, tt.url, tt.body, nil)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusCreated && tt.name == "success" {
				env := decodeEnvelope(t, w)

				var resp form.Response
				if err := json.Unmarshal(env.Data, &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.FormID != formID {
					t.Fatalf("got formId %s, want %s", resp.FormID, formID)
				}
				if len(resp.Fields) != 3 {
					t.Fatalf("expected 3 stored answers, got %d", len(resp.Fields))
				}
			}
		})
	}
}

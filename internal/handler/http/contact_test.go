package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mattparisien/becoming-front/internal/domain"
	"github.com/mattparisien/becoming-front/internal/service"
	"github.com/mattparisien/becoming-front/pkg/pagination"
)

// ============================================================================
// Mock ContactRepository
// ============================================================================

type mockContactRepository struct {
	mock.Mock
}

func (m *mockContactRepository) Create(ctx context.Context, s *domain.ContactSubmission) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockContactRepository) List(ctx context.Context, offset, limit int) ([]domain.ContactSubmission, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ContactSubmission), args.Int(1), args.Error(2)
}

func setupContactRouter(repo *mockContactRepository) *chi.Mux {
	h := NewContactHandler(service.NewContactService(repo, testLogger()), testLogger())
	r := chi.NewRouter()
	r.Post("/api/contact", h.Submit)
	r.Get("/api/admin/contact-submissions", h.List)
	return r
}

func decodeContact(t *testing.T, body []byte) contactResponse {
	t.Helper()
	var resp contactResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

// ============================================================================
// POST /api/contact
// ============================================================================

func TestContactSubmit_Success(t *testing.T) {
	repo := new(mockContactRepository)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(s *domain.ContactSubmission) bool {
		return s.Name == "Ada" && s.Email == "ada@example.com" && s.Topic == "support" && s.ID != ""
	})).Return(nil)

	rec := doRequest(setupContactRouter(repo), http.MethodPost, "/api/contact",
		`{"name":"Ada","email":"ada@example.com","topic":"support","message":"The slider plugin stutters."}`)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeContact(t, rec.Body.Bytes())
	assert.True(t, resp.OK)
	assert.Len(t, resp.ID, 36)
	assert.Empty(t, resp.Error)
	repo.AssertExpectations(t)
}

func TestContactSubmit_MissingFields(t *testing.T) {
	repo := new(mockContactRepository)

	rec := doRequest(setupContactRouter(repo), http.MethodPost, "/api/contact", `{"name":"Ada","email":"ada@example.com"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeContact(t, rec.Body.Bytes())
	assert.False(t, resp.OK)
	assert.Equal(t, "Missing required fields", resp.Error)
	assert.Contains(t, resp.Fields, "topic")
	assert.Contains(t, resp.Fields, "message")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestContactSubmit_InvalidEmail(t *testing.T) {
	rec := doRequest(setupContactRouter(new(mockContactRepository)), http.MethodPost, "/api/contact",
		`{"name":"Ada","email":"not-an-email","topic":"support","message":"hi"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "must be a valid email address", decodeContact(t, rec.Body.Bytes()).Fields["email"])
}

func TestContactSubmit_InvalidJSON(t *testing.T) {
	rec := doRequest(setupContactRouter(new(mockContactRepository)), http.MethodPost, "/api/contact", `name=Ada`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Invalid JSON"}`, rec.Body.String())
}

func TestContactSubmit_StoreFailure(t *testing.T) {
	repo := new(mockContactRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	rec := doRequest(setupContactRouter(repo), http.MethodPost, "/api/contact",
		`{"name":"Ada","email":"ada@example.com","topic":"support","message":"hi"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Failed to submit message"}`, rec.Body.String())
}

// ============================================================================
// GET /api/admin/contact-submissions
// ============================================================================

func TestContactList_Paginates(t *testing.T) {
	repo := new(mockContactRepository)
	items := []domain.ContactSubmission{
		{ID: "s3", Name: "C", Email: "c@example.com", Topic: "sales", Message: "m", CreatedAt: time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)},
	}
	repo.On("List", mock.Anything, 2, 2).Return(items, 5, nil)

	rec := doRequest(setupContactRouter(repo), http.MethodGet, "/api/admin/contact-submissions?page=2&limit=2", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var page pagination.Page[domain.ContactSubmission]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.True(t, page.HasNext)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "s3", page.Items[0].ID)
	repo.AssertExpectations(t)
}

func TestContactList_Empty(t *testing.T) {
	repo := new(mockContactRepository)
	repo.On("List", mock.Anything, 0, 25).Return(nil, 0, nil)

	rec := doRequest(setupContactRouter(repo), http.MethodGet, "/api/admin/contact-submissions", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"items":[]`)
}

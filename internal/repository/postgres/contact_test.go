package postgres

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattparisien/becoming-front/internal/domain"
	"github.com/mattparisien/becoming-front/internal/repository/postgres/migrations"
)

func sampleSubmission() *domain.ContactSubmission {
	return &domain.ContactSubmission{
		ID:        "0b6f7a4e-5d7b-4c1e-9f3a-2a1d0c9e8b7f",
		Name:      "Ada",
		Email:     "ada@example.com",
		Topic:     "support",
		Message:   "The guide password is not accepted.",
		CreatedAt: time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC),
	}
}

var contactColumns = []string{"id", "name", "email", "topic", "message", "created_at", "total_count"}

// ─── Create ──────────────────────────────────────────────────────────────────

func TestContactRepository_Create_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewContactRepository(mock)
	s := sampleSubmission()

	mock.ExpectExec("INSERT INTO contact_submissions").
		WithArgs(s.ID, s.Name, s.Email, s.Topic, s.Message, s.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), s)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_Create_ExecError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewContactRepository(mock)
	s := sampleSubmission()

	mock.ExpectExec("INSERT INTO contact_submissions").
		WithArgs(s.ID, s.Name, s.Email, s.Topic, s.Message, s.CreatedAt).
		WillReturnError(errors.New("connection refused"))

	err = repo.Create(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert contact submission")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─── List ────────────────────────────────────────────────────────────────────

func TestContactRepository_List_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewContactRepository(mock)
	s := sampleSubmission()
	later := s.CreatedAt.Add(time.Hour)

	mock.ExpectQuery("SELECT (.+) FROM contact_submissions").
		WithArgs(2, 0).
		WillReturnRows(pgxmock.NewRows(contactColumns).
			AddRow("id-2", "Grace", "grace@example.com", "sales", "Pricing?", later, 3).
			AddRow(s.ID, s.Name, s.Email, s.Topic, s.Message, s.CreatedAt, 3))

	got, total, err := repo.List(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, got, 2)
	assert.Equal(t, "id-2", got[0].ID)
	assert.Equal(t, *s, got[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_List_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewContactRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM contact_submissions").
		WithArgs(25, 50).
		WillReturnRows(pgxmock.NewRows(contactColumns))

	got, total, err := repo.List(context.Background(), 50, 25)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestContactRepository_List_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewContactRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM contact_submissions").
		WithArgs(10, 0).
		WillReturnError(errors.New("relation does not exist"))

	_, _, err = repo.List(context.Background(), 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list contact submissions")
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func TestMigrations_Embedded(t *testing.T) {
	names, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_create_contact_submissions.up.sql"}, names)

	content, err := fs.ReadFile(migrations.FS, names[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "CREATE TABLE IF NOT EXISTS contact_submissions")
}

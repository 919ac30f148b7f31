package postgres

import (
	"context"
	"fmt"

	"github.com/mattparisien/becoming-front/internal/domain"
	"github.com/mattparisien/becoming-front/pkg/database"
)

// ContactRepository implements repository.ContactRepository using PostgreSQL.
type ContactRepository struct {
	pool database.DBTX
}

// NewContactRepository creates a new PostgreSQL-backed contact repository.
func NewContactRepository(pool database.DBTX) *ContactRepository {
	return &ContactRepository{pool: pool}
}

// Create inserts a submission.
func (r *ContactRepository) Create(ctx context.Context, s *domain.ContactSubmission) error {
	query := `
		INSERT INTO contact_submissions (id, name, email, topic, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, done := database.TraceQuery(ctx, "insert_contact_submission", query)
	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.Name,
		s.Email,
		s.Topic,
		s.Message,
		s.CreatedAt,
	)
	done(err)
	if err != nil {
		return fmt.Errorf("insert contact submission: %w", err)
	}

	return nil
}

// List returns submissions newest first, with the total count.
func (r *ContactRepository) List(ctx context.Context, offset, limit int) ([]domain.ContactSubmission, int, error) {
	query := `
		SELECT id, name, email, topic, message, created_at,
		       count(*) OVER() AS total_count
		FROM contact_submissions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	ctx, done := database.TraceQuery(ctx, "list_contact_submissions", query)
	submissions, total, err := r.list(ctx, query, limit, offset)
	done(err)
	return submissions, total, err
}

func (r *ContactRepository) list(ctx context.Context, query string, args ...any) ([]domain.ContactSubmission, int, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list contact submissions: %w", err)
	}
	defer rows.Close()

	var totalCount int
	submissions := make([]domain.ContactSubmission, 0)

	for rows.Next() {
		var s domain.ContactSubmission
		if err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.Email,
			&s.Topic,
			&s.Message,
			&s.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan contact submission row: %w", err)
		}
		submissions = append(submissions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate contact submission rows: %w", err)
	}

	return submissions, totalCount, nil
}

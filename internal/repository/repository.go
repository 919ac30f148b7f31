package repository

import (
	"context"

	"github.com/mattparisien/becoming-front/internal/domain"
)

// ContactRepository stores contact form submissions.
type ContactRepository interface {
	Create(ctx context.Context, s *domain.ContactSubmission) error
	List(ctx context.Context, offset, limit int) ([]domain.ContactSubmission, int, error)
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mattparisien/becoming-front/internal/domain"
	"github.com/mattparisien/becoming-front/internal/repository"
	"github.com/mattparisien/becoming-front/pkg/pagination"
)

// ContactInput is a contact form post.
type ContactInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email,max=320"`
	Topic   string `json:"topic" validate:"required,max=100"`
	Message string `json:"message" validate:"required,max=5000"`
}

// ContactService records contact form submissions.
type ContactService struct {
	repo   repository.ContactRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewContactService creates a new contact service.
func NewContactService(repo repository.ContactRepository, logger *slog.Logger) *ContactService {
	return &ContactService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Submit stores a validated submission and returns it with its new id.
func (s *ContactService) Submit(ctx context.Context, input ContactInput) (*domain.ContactSubmission, error) {
	sub := &domain.ContactSubmission{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Email:     input.Email,
		Topic:     input.Topic,
		Message:   input.Message,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("store contact submission: %w", err)
	}

	s.logger.InfoContext(ctx, "contact submission received",
		slog.String("id", sub.ID),
		slog.String("topic", sub.Topic),
	)
	return sub, nil
}

// List returns one page of submissions, newest first.
func (s *ContactService) List(ctx context.Context, p pagination.Params) (pagination.Page[domain.ContactSubmission], error) {
	items, total, err := s.repo.List(ctx, p.Offset, p.Limit)
	if err != nil {
		return pagination.Page[domain.ContactSubmission]{}, fmt.Errorf("list contact submissions: %w", err)
	}
	return pagination.NewPage(items, total, p), nil
}

package application

import (
	"context"
	"log/slog"

	"github.com/grocify/storefront/internal/feedback/domain"
)

// FeedbackAPI is the backend's feedback surface.
type FeedbackAPI interface {
	SubmitFeedback(ctx context.Context, sub domain.Submission) error
	ProductFeedback(ctx context.Context, productID int64) ([]domain.Feedback, error)
}

type Service struct {
	log *slog.Logger
	api FeedbackAPI
}

func NewService(log *slog.Logger, api FeedbackAPI) *Service {
	return &Service{log: log, api: api}
}

// Submit validates and sends a review. Validation failures never reach
// the network.
func (s *Service) Submit(ctx context.Context, sub domain.Submission) error {
	if sub.FeedbackType == "" {
		sub.FeedbackType = domain.TypeReview
	}
	if err := sub.Validate(); err != nil {
		return err
	}
	if err := s.api.SubmitFeedback(ctx, sub); err != nil {
		return err
	}
	s.log.Info("feedback submitted", "product_id", sub.ProductID, "rating", sub.Rating)
	return nil
}

// ForProduct lists the public reviews of a product.
func (s *Service) ForProduct(ctx context.Context, productID int64) ([]domain.Feedback, error) {
	return s.api.ProductFeedback(ctx, productID)
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	TypeReview     = "REVIEW"
	TypeSuggestion = "SUGGESTION"
	TypeComplaint  = "COMPLAINT"
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("feedback: invalid %s: %s", e.Field, e.Reason)
}

// Submission is the feedback payload sent to the backend. ProductID is
// optional; zero means general storefront feedback.
type Submission struct {
	ProductID    int64  `json:"productId,omitempty"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
	FeedbackType string `json:"feedbackType"`
	Public       bool   `json:"isPublic"`
}

func (s Submission) Validate() error {
	if s.Rating < 1 || s.Rating > 5 {
		return &ValidationError{Field: "rating", Reason: "must be between 1 and 5"}
	}
	if strings.TrimSpace(s.Comment) == "" {
		return &ValidationError{Field: "comment", Reason: "comment is required"}
	}
	switch s.FeedbackType {
	case "", TypeReview, TypeSuggestion, TypeComplaint:
	default:
		return &ValidationError{Field: "feedbackType", Reason: "unknown feedback type"}
	}
	return nil
}

// Feedback is a stored review as returned by the backend.
type Feedback struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	ProductID    int64     `json:"productId,omitempty"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	FeedbackType string    `json:"feedbackType"`
	CreatedAt    time.Time `json:"createdAt"`
}

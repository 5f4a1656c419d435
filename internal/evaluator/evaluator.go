package evaluator

import (
	"context"

	"github.com/felixgeelhaar/pmdrill/internal/domain"
)

// Request is what the evaluation endpoint scores.
type Request struct {
	Conversation []domain.Message `json:"conversation"`
	// QuestionType is the lowercase category name
	QuestionType    string `json:"questionType"`
	SessionDuration int    `json:"sessionDuration"`
}

// Result is the evaluation of one interview.
type Result struct {
	CompositeScore  *float64           `json:"composite_score"`
	DimensionScores map[string]float64 `json:"dimension_scores"`
	WhatWorkedWell  []string           `json:"what_worked_well"`
	AreasToImprove  []string           `json:"areas_to_improve"`
}

// Feedback returns the qualitative part of the result.
func (r *Result) Feedback() *domain.Feedback {
	return &domain.Feedback{
		WhatWorkedWell: r.WhatWorkedWell,
		AreasToImprove: r.AreasToImprove,
	}
}

// Evaluator scores a finished interview
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, req *Request) (*Result, error)
}

// NewRequest builds the evaluation request for a session.
func NewRequest(sess *domain.InterviewSession) *Request {
	return &Request{
		Conversation:    sess.Conversation,
		QuestionType:    string(sess.Category),
		SessionDuration: sess.DurationMinutes,
	}
}

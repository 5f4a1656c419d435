package evaluator

import (
	"context"
	"maps"
)

// Static returns the same evaluation for every request. It backs offline
// mode and tests.
type Static struct {
	Result Result
}

// NewStatic creates a static evaluator that awards score on every dimension.
func NewStatic(score float64) *Static {
	return &Static{Result: Result{
		CompositeScore: &score,
		DimensionScores: map[string]float64{
			"structure":     score,
			"communication": score,
			"insight":       score,
		},
		WhatWorkedWell: []string{},
		AreasToImprove: []string{},
	}}
}

func (s *Static) Name() string {
	return "static"
}

func (s *Static) Evaluate(ctx context.Context, req *Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := s.Result
	out.DimensionScores = maps.Clone(s.Result.DimensionScores)
	if s.Result.CompositeScore != nil {
		v := *s.Result.CompositeScore
		out.CompositeScore = &v
	}
	return &out, nil
}

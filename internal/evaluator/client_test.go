package evaluator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/felixgeelhaar/pmdrill/internal/domain"
)

func TestClient_Evaluate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s; want POST", r.Method)
		}
		if r.URL.Path != "/ai/evaluate" {
			t.Errorf("path = %s; want /ai/evaluate", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q; want Bearer secret", got)
		}

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if req.QuestionType != "rca" {
			t.Errorf("questionType = %q; want rca", req.QuestionType)
		}
		if req.SessionDuration != 12 {
			t.Errorf("sessionDuration = %d; want 12", req.SessionDuration)
		}
		if len(req.Conversation) != 2 {
			t.Errorf("len(conversation) = %d; want 2", len(req.Conversation))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"composite_score": 78.5,
			"dimension_scores": {"structure": 80, "insight": 77},
			"what_worked_well": ["clear hypothesis"],
			"areas_to_improve": ["quantify impact"]
		}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL + "/", APIKey: "secret"})
	result, err := client.Evaluate(context.Background(), &Request{
		Conversation: []domain.Message{
			{Role: domain.RoleAssistant, Content: "Why did signups drop?"},
			{Role: domain.RoleUser, Content: "First I'd check tracking."},
		},
		QuestionType:    "rca",
		SessionDuration: 12,
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if result.CompositeScore == nil || *result.CompositeScore != 78.5 {
		t.Errorf("CompositeScore = %v; want 78.5", result.CompositeScore)
	}
	if result.DimensionScores["structure"] != 80 {
		t.Errorf("DimensionScores[structure] = %v; want 80", result.DimensionScores["structure"])
	}
	fb := result.Feedback()
	if len(fb.WhatWorkedWell) != 1 || len(fb.AreasToImprove) != 1 {
		t.Errorf("Feedback() = %+v", fb)
	}
}

func TestClient_Evaluate_NullScore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"composite_score": null, "dimension_scores": {}}`))
	}))
	defer server.Close()

	result, err := NewClient(ClientConfig{BaseURL: server.URL}).Evaluate(context.Background(), &Request{})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.CompositeScore != nil {
		t.Errorf("CompositeScore = %v; want nil", *result.CompositeScore)
	}
}

func TestClient_Evaluate_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(ClientConfig{BaseURL: server.URL}).Evaluate(context.Background(), &Request{})

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Evaluate() error = %v; want *StatusError", err)
	}
	if se.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d; want 503", se.StatusCode)
	}
}

func TestClient_Evaluate_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	if _, err := NewClient(ClientConfig{BaseURL: server.URL}).Evaluate(context.Background(), &Request{}); err == nil {
		t.Error("Evaluate() expected decode error")
	}
}

func TestClient_Evaluate_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := NewClient(ClientConfig{BaseURL: server.URL}).Evaluate(ctx, &Request{}); err == nil {
		t.Error("Evaluate() expected error for canceled context")
	}
}

func TestNewRequest(t *testing.T) {
	sess := &domain.InterviewSession{
		Category:        domain.CategoryGuesstimate,
		DurationMinutes: 25,
		Conversation:    []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	}
	req := NewRequest(sess)
	if req.QuestionType != "guesstimate" || req.SessionDuration != 25 || len(req.Conversation) != 1 {
		t.Errorf("NewRequest() = %+v", req)
	}
}

func TestStatic_Evaluate(t *testing.T) {
	s := NewStatic(70)
	first, err := s.Evaluate(context.Background(), &Request{})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	*first.CompositeScore = 1
	first.DimensionScores["structure"] = 1

	second, _ := s.Evaluate(context.Background(), &Request{})
	if *second.CompositeScore != 70 {
		t.Errorf("CompositeScore = %v; want 70 (results must not alias)", *second.CompositeScore)
	}
	if second.DimensionScores["structure"] != 70 {
		t.Errorf("DimensionScores[structure] = %v; want 70", second.DimensionScores["structure"])
	}
	if s.Name() != "static" {
		t.Errorf("Name() = %q; want static", s.Name())
	}
}

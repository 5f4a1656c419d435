package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by stores
// and services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Category errors
var (
	ErrUnknownCategory = errors.New("unknown question category")
)

// Interview session errors
var (
	ErrSessionNotFound = errors.New("interview session not found")
	ErrSessionClosed   = errors.New("interview session is closed")
	ErrNoUserInput     = errors.New("interview session has no user input")
)

// Question bank errors
var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrNoQuestions      = errors.New("no questions available")
)

// Stats errors
var (
	ErrStatsNotFound = errors.New("user stats not found")
)

// Evaluation errors
var (
	ErrEvaluationFailed = errors.New("evaluation failed")
)

// General errors
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz id does not resolve to a quiz.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSubmissionNotFound indicates the submission id does not resolve.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrUserNotFound indicates no user matches the given id or email.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering an already-known email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a missing or expired session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrIncompleteAnswers blocks a manual submit before every question has
	// an answer. The expiry path never raises it.
	ErrIncompleteAnswers = errors.New("not all questions answered")
	// ErrAttemptCompleted is returned when acting on a finished attempt.
	ErrAttemptCompleted = errors.New("attempt already completed")
	// ErrSubmitInFlight guards against a second submit while one is pending.
	ErrSubmitInFlight = errors.New("submission already in flight")
	// ErrPersistence wraps store write failures. A submission id is never
	// reported unless the whole record committed.
	ErrPersistence = errors.New("persistence failure")
)

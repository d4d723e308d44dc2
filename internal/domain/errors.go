package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID does not belong to the quiz.
	ErrQuestionNotFound = errors.New("question not found in quiz")
	// ErrInvalidAnswer indicates a submitted answer value has the wrong shape for its question type.
	ErrInvalidAnswer = errors.New("invalid answer value")
	// ErrAlreadyAttempted is returned when a user submits a quiz they have already taken.
	ErrAlreadyAttempted = errors.New("quiz already attempted")
	// ErrEmptySubmission is returned when XP would be computed over zero questions.
	ErrEmptySubmission = errors.New("cannot award xp for an empty submission")
	// ErrUserNotFound indicates the submitting user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrCacheMiss is returned by view caches when a key is absent.
	ErrCacheMiss = errors.New("cache miss")
)

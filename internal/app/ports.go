package app

import (
	"context"
	"time"

	"quizhub-service/internal/domain"
)

// QuizRepository loads quiz content with questions and choices. Implementations
// may serve cached copies: questions are rarely mutated mid-quiz, and the
// recorder never uses this path for correctness-critical checks.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ParticipationStore is the transactional write side of the recorder. It must
// hit the primary datastore directly, never a cache.
type ParticipationStore interface {
	// HasParticipation reports whether (userID, quizID) was already attempted.
	HasParticipation(ctx context.Context, userID, quizID string) (bool, error)
	// SaveSubmission persists the participation, its answers, the XP ledger
	// row, and the user XP increment in a single transaction. A duplicate
	// (user, quiz) pair surfaces as domain.ErrAlreadyAttempted even when the
	// earlier existence check raced.
	SaveSubmission(ctx context.Context, p *domain.Participation, answers []domain.Answer, ledger *domain.XPHistory) error
}

// AnalyticsStore is the read side used to build reports.
type AnalyticsStore interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	// ListParticipations returns the full history with answers and users, in
	// submission (encounter) order.
	ListParticipations(ctx context.Context, quizID string) ([]domain.Participation, error)
	// RecentParticipations returns the newest attempts first.
	RecentParticipations(ctx context.Context, quizID string, limit int) ([]domain.Participation, error)
}

// ViewCache stores rendered views and cached listings as opaque bytes.
// Staleness up to the TTL is acceptable for everything stored through it; Get
// returns domain.ErrCacheMiss when the key is absent.
type ViewCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Forget(ctx context.Context, keys ...string) error
}

// Cache key builders shared by the recorder (invalidation) and the services
// (population). The question key matches the read-through quiz repository so
// a forget drops the cached questions too.
func QuizQuestionsKey(quizID string) string { return "quiz:" + quizID + ":questions" }

func QuizAnalyticsKey(quizID string) string { return "analytics:quiz:" + quizID }

func UserTakenQuizzesKey(userID string) string { return "user:" + userID + ":quizzes-taken" }

func UserAvailableQuizzesKey(userID string) string { return "user:" + userID + ":available-quizzes" }

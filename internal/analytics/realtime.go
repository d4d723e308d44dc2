package analytics

import (
	"time"

	"quizhub-service/internal/domain"
)

// RecentAttempt is one row of the uncached realtime view.
type RecentAttempt struct {
	ParticipationID string    `json:"participationId"`
	UserID          string    `json:"userId"`
	UserName        string    `json:"userName"`
	TotalScore      int       `json:"totalScore"`
	Percentage      float64   `json:"percentage"`
	CompletedAt     time.Time `json:"completedAt"`
}

// RealtimeStats is the lightweight always-fresh view served alongside the
// cached full report.
type RealtimeStats struct {
	QuizID             string             `json:"quizId"`
	ParticipationStats ParticipationStats `json:"participationStats"`
	RecentAttempts     []RecentAttempt    `json:"recentAttempts"`
	LastUpdated        time.Time          `json:"lastUpdated"`
}

// BuildRealtimeStats computes the realtime view from the full participation
// set plus the most recent attempts (already ordered newest first).
func BuildRealtimeStats(quiz domain.Quiz, participations, recent []domain.Participation) RealtimeStats {
	attempts := make([]RecentAttempt, 0, len(recent))
	for _, p := range recent {
		name := ""
		if p.User != nil {
			name = p.User.Name
		}
		attempts = append(attempts, RecentAttempt{
			ParticipationID: p.ID,
			UserID:          p.UserID,
			UserName:        name,
			TotalScore:      p.TotalScore,
			Percentage:      round2(scorePercentage(quiz, p.TotalScore)),
			CompletedAt:     p.CompletedAt,
		})
	}
	return RealtimeStats{
		QuizID:             quiz.ID,
		ParticipationStats: buildParticipationStats(participations),
		RecentAttempts:     attempts,
		LastUpdated:        time.Now().UTC(),
	}
}

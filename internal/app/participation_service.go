package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"quizhub-service/internal/domain"
	"quizhub-service/internal/scoring"
)

// RawAnswer is one answer as it arrives at the boundary, before it is typed
// against the question's own type tag.
type RawAnswer struct {
	QuestionID string `json:"question_id"`
	Value      []byte `json:"answer"`
}

// Submission is one user's complete answer set for one quiz. TimeTaken is
// client-reported and consumed as input, not enforced.
type Submission struct {
	UserID    string
	QuizID    string
	TimeTaken *int
	Answers   []RawAnswer
}

// ParticipationService records quiz submissions: it validates, evaluates
// every answer, persists the attempt atomically, awards XP, invalidates
// affected cached views, and notifies the live stats feed.
type ParticipationService struct {
	quizzes QuizRepository
	store   ParticipationStore
	cache   ViewCache
	feed    *StatsFeed
	now     func() time.Time
	newID   func() string
}

func NewParticipationService(quizzes QuizRepository, store ParticipationStore, cache ViewCache, feed *StatsFeed) *ParticipationService {
	return &ParticipationService{
		quizzes: quizzes,
		store:   store,
		cache:   cache,
		feed:    feed,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// Submit records a single attempt. Exactly one participation, N answers, one
// XP ledger row and one user XP increment are persisted, all or nothing.
func (s *ParticipationService) Submit(ctx context.Context, sub Submission) (domain.SubmissionResult, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, sub.QuizID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	if len(sub.Answers) == 0 {
		return domain.SubmissionResult{}, fmt.Errorf("%w: no answers submitted", domain.ErrInvalidAnswer)
	}

	// Friendly pre-check; the unique index inside SaveSubmission has the
	// final word under concurrent duplicates.
	taken, err := s.store.HasParticipation(ctx, sub.UserID, sub.QuizID)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("check participation: %w", err)
	}
	if taken {
		return domain.SubmissionResult{}, domain.ErrAlreadyAttempted
	}

	questions := make(map[string]domain.Question, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions[q.ID] = q
	}

	participationID := s.newID()
	now := s.now().UTC()

	var (
		answers      []domain.Answer
		totalScore   int
		correctCount int
	)
	for _, raw := range sub.Answers {
		question, ok := questions[raw.QuestionID]
		if !ok {
			return domain.SubmissionResult{}, fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, raw.QuestionID)
		}
		value, err := domain.ParseAnswerValue(question.Type, raw.Value)
		if err != nil {
			return domain.SubmissionResult{}, err
		}
		correct := scoring.Evaluate(question, value)
		if correct {
			totalScore += question.Score
			correctCount++
		}
		answers = append(answers, domain.Answer{
			ID:              s.newID(),
			ParticipationID: participationID,
			QuestionID:      question.ID,
			Value:           value.Encode(),
			IsCorrect:       correct,
		})
	}

	award, err := scoring.CalculateXP(quiz, totalScore, correctCount, len(sub.Answers))
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	participation := &domain.Participation{
		ID:          participationID,
		UserID:      sub.UserID,
		QuizID:      sub.QuizID,
		TotalScore:  totalScore,
		XPEarned:    award.XP,
		TimeTaken:   sub.TimeTaken,
		Status:      domain.StatusCompleted,
		CompletedAt: now,
	}
	ledger := &domain.XPHistory{
		ID:          s.newID(),
		UserID:      sub.UserID,
		SourceType:  domain.XPSourceQuiz,
		SourceID:    sub.QuizID,
		XPEarned:    award.XP,
		Description: fmt.Sprintf("Completed quiz %q: %d/%d correct", quiz.Title, correctCount, len(sub.Answers)),
		CreatedAt:   now,
	}

	if err := s.store.SaveSubmission(ctx, participation, answers, ledger); err != nil {
		return domain.SubmissionResult{}, err
	}

	// Cache invalidation is best-effort: a stale listing heals at TTL, the
	// transactional store stays authoritative.
	keys := []string{
		UserTakenQuizzesKey(sub.UserID),
		UserAvailableQuizzesKey(sub.UserID),
		QuizQuestionsKey(sub.QuizID),
		QuizAnalyticsKey(sub.QuizID),
	}
	if err := s.cache.Forget(ctx, keys...); err != nil {
		log.Printf("cache invalidation failed for quiz %s: %v", sub.QuizID, err)
	}

	if s.feed != nil {
		s.feed.Notify(sub.QuizID)
	}

	return domain.SubmissionResult{
		ParticipationID: participationID,
		TotalScore:      totalScore,
		XPEarned:        award.XP,
		Percentage:      award.Breakdown.Percentage,
	}, nil
}

// PreviewXP exposes the XP breakdown without side effects, for UI previews.
func (s *ParticipationService) PreviewXP(ctx context.Context, quizID string, totalScore, correctCount, totalQuestions int) (scoring.XPAward, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return scoring.XPAward{}, err
	}
	return scoring.CalculateXP(quiz, totalScore, correctCount, totalQuestions)
}

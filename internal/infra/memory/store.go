// Package memory provides in-process implementations of the app ports,
// used for local development without Postgres/Redis and as test fakes.
package memory

import (
	"context"
	"sort"
	"sync"

	"quizhub-service/internal/domain"
)

// Store keeps all state in maps guarded by one mutex. It implements
// app.ParticipationStore, app.AnalyticsStore and the quiz loader used by the
// cached quiz repositories.
type Store struct {
	mu             sync.RWMutex
	quizzes        map[string]domain.Quiz
	users          map[string]*domain.User
	participations map[string][]domain.Participation // by quiz, encounter order
	attempted      map[string]struct{}               // userID + "\x00" + quizID
	ledger         []domain.XPHistory
}

func NewStore() *Store {
	return &Store{
		quizzes:        make(map[string]domain.Quiz),
		users:          make(map[string]*domain.User),
		participations: make(map[string][]domain.Participation),
		attempted:      make(map[string]struct{}),
	}
}

// SeedQuiz registers authored quiz content.
func (s *Store) SeedQuiz(quiz domain.Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = quiz
}

// SeedUser registers a user.
func (s *Store) SeedUser(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := user
	s.users[user.ID] = &u
}

func attemptKey(userID, quizID string) string {
	return userID + "\x00" + quizID
}

// LoadQuiz satisfies the quiz loader interface of the cached repositories.
func (s *Store) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	return s.GetQuiz(context.Background(), quizID)
}

func (s *Store) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *Store) HasParticipation(_ context.Context, userID, quizID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.attempted[attemptKey(userID, quizID)]
	return ok, nil
}

// SaveSubmission mirrors the transactional semantics of the Postgres store:
// the duplicate check and all writes happen under one lock, so either the
// whole submission lands or none of it does.
func (s *Store) SaveSubmission(_ context.Context, p *domain.Participation, answers []domain.Answer, ledger *domain.XPHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := attemptKey(p.UserID, p.QuizID)
	if _, ok := s.attempted[key]; ok {
		return domain.ErrAlreadyAttempted
	}

	stored := *p
	stored.Answers = append([]domain.Answer(nil), answers...)
	if user, ok := s.users[p.UserID]; ok {
		u := *user
		stored.User = &u
		user.XP += ledger.XPEarned
	}

	s.attempted[key] = struct{}{}
	s.participations[p.QuizID] = append(s.participations[p.QuizID], stored)
	s.ledger = append(s.ledger, *ledger)
	return nil
}

func (s *Store) ListParticipations(_ context.Context, quizID string) ([]domain.Participation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Participation, len(s.participations[quizID]))
	copy(out, s.participations[quizID])
	return out, nil
}

func (s *Store) RecentParticipations(_ context.Context, quizID string, limit int) ([]domain.Participation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.participations[quizID]
	out := make([]domain.Participation, len(all))
	copy(out, all)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// XPLedger returns a copy of the append-only ledger, for tests and dev tools.
func (s *Store) XPLedger() []domain.XPHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.XPHistory, len(s.ledger))
	copy(out, s.ledger)
	return out
}

// UserXP returns the denormalized lifetime counter for a user.
func (s *Store) UserXP(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[userID]; ok {
		return user.XP
	}
	return 0
}

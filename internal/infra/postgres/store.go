// Package postgres implements the app's storage ports over Postgres: bun for
// the transactional write path and relational reads, pgx for the lightweight
// quiz loader behind the cache.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"quizhub-service/internal/domain"
)

// Store is the bun-backed implementation of app.ParticipationStore and
// app.AnalyticsStore.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) HasParticipation(ctx context.Context, userID, quizID string) (bool, error) {
	return s.db.NewSelect().
		Model((*domain.Participation)(nil)).
		Where("user_id = ?", userID).
		Where("quiz_id = ?", quizID).
		Exists(ctx)
}

// SaveSubmission writes the participation, its answers, the XP ledger row and
// the user XP increment in one transaction. The unique index on
// participations(user_id, quiz_id) is the authoritative duplicate guard; its
// violation maps to domain.ErrAlreadyAttempted.
func (s *Store) SaveSubmission(ctx context.Context, p *domain.Participation, answers []domain.Answer, ledger *domain.XPHistory) error {
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(p).Exec(ctx); err != nil {
			return fmt.Errorf("insert participation: %w", err)
		}
		if len(answers) > 0 {
			if _, err := tx.NewInsert().Model(&answers).Exec(ctx); err != nil {
				return fmt.Errorf("insert answers: %w", err)
			}
		}
		if _, err := tx.NewInsert().Model(ledger).Exec(ctx); err != nil {
			return fmt.Errorf("insert xp ledger: %w", err)
		}
		res, err := tx.NewUpdate().
			Model((*domain.User)(nil)).
			Set("xp = xp + ?", ledger.XPEarned).
			Where("id = ?", ledger.UserID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("increment user xp: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("increment user xp: %w", err)
		}
		if rows == 0 {
			return domain.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
			return domain.ErrAlreadyAttempted
		}
		return err
	}
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.db.NewSelect().
		Model(&quiz).
		Relation("Questions", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("qn.position ASC", "qn.id ASC")
		}).
		Relation("Questions.Choices").
		Where("q.id = ?", quizID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return quiz, nil
}

func (s *Store) ListParticipations(ctx context.Context, quizID string) ([]domain.Participation, error) {
	var participations []domain.Participation
	err := s.db.NewSelect().
		Model(&participations).
		Relation("Answers").
		Relation("User").
		Where("p.quiz_id = ?", quizID).
		Order("p.completed_at ASC", "p.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	return participations, nil
}

func (s *Store) RecentParticipations(ctx context.Context, quizID string, limit int) ([]domain.Participation, error) {
	var participations []domain.Participation
	err := s.db.NewSelect().
		Model(&participations).
		Relation("User").
		Where("p.quiz_id = ?", quizID).
		Order("p.completed_at DESC", "p.id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recent participations: %w", err)
	}
	return participations, nil
}

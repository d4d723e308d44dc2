package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizhub-service/internal/domain"
)

// QuizLoader assembles quiz content from Postgres for the cached quiz
// repositories. It runs on a pgx pool separate from the bun write path, so
// submission bursts reading questions don't contend with transactions.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := l.pool.QueryRow(ctx,
		`SELECT id, owner_id, title, description, mode, total_score, total_time
		 FROM quizzes WHERE id=$1`, quizID).
		Scan(&quiz.ID, &quiz.OwnerID, &quiz.Title, &quiz.Description, &quiz.Mode, &quiz.TotalScore, &quiz.TotalTime)
	if err == pgx.ErrNoRows {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	rows, err := l.pool.Query(ctx,
		`SELECT id, quiz_id, question_type, text, score, time_limit, required, position
		 FROM questions WHERE quiz_id=$1 ORDER BY position, id`, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Type, &q.Text, &q.Score, &q.TimeLimit, &q.Required, &q.Position); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan question: %w", err)
		}
		index[q.ID] = len(quiz.Questions)
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}

	choiceRows, err := l.pool.Query(ctx,
		`SELECT c.id, c.question_id, c.text, c.is_correct
		 FROM choices c
		 JOIN questions qn ON qn.id = c.question_id
		 WHERE qn.quiz_id=$1 ORDER BY c.id`, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load choices: %w", err)
	}
	defer choiceRows.Close()

	for choiceRows.Next() {
		var c domain.Choice
		if err := choiceRows.Scan(&c.ID, &c.QuestionID, &c.Text, &c.IsCorrect); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan choice: %w", err)
		}
		if i, ok := index[c.QuestionID]; ok {
			quiz.Questions[i].Choices = append(quiz.Questions[i].Choices, c)
		}
	}
	if err := choiceRows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("load choices: %w", err)
	}

	return quiz, nil
}

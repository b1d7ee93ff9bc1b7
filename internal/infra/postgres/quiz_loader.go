package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"live-quiz-service/internal/domain"
)

// QuizLoader reads quiz definitions from the quizzes table. The data column
// holds the quiz JSON; id and title columns win over what the JSON says.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		title string
		raw   []byte
	)
	err := l.pool.QueryRow(ctx, `SELECT title, data FROM quizzes WHERE id=$1`, quizID).Scan(&title, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, fmt.Errorf("%w: %s", domain.ErrQuizNotFound, quizID)
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz %s: %w", quizID, err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz %s: %w", quizID, err)
	}
	quiz.ID = quizID
	if title != "" {
		quiz.Title = title
	}
	return quiz, nil
}

// SaveQuiz upserts a quiz definition. Used for seeding.
func (l *QuizLoader) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz %s: %w", quiz.ID, err)
	}
	_, err = l.pool.Exec(ctx, `
		INSERT INTO quizzes (id, title, data, updated_at) VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, data = EXCLUDED.data, updated_at = now()`,
		quiz.ID, quiz.Title, string(data))
	if err != nil {
		return fmt.Errorf("save quiz %s: %w", quiz.ID, err)
	}
	return nil
}

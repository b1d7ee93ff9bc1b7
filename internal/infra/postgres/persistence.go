package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"live-quiz-service/internal/domain"
)

// XPLedgerEntry is one credit. (session_id, participant_id) is unique, which
// is what makes crediting idempotent.
type XPLedgerEntry struct {
	bun.BaseModel `bun:"table:xp_ledger,alias:xp_ledger"`

	ID            int64     `bun:"id,pk,autoincrement"`
	SessionID     string    `bun:"session_id,notnull"`
	ParticipantID string    `bun:"participant_id,notnull"`
	Points        int       `bun:"points,notnull"`
	Reason        string    `bun:"reason,notnull"`
	Guest         bool      `bun:"guest,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// UserXP is the running point balance of an authenticated user.
type UserXP struct {
	bun.BaseModel `bun:"table:user_xp,alias:user_xp"`

	UserID    string    `bun:"user_id,pk"`
	XP        int64     `bun:"xp,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// QuizHistory is the summary of one finished session.
type QuizHistory struct {
	bun.BaseModel `bun:"table:quiz_history,alias:quiz_history"`

	SessionID        string                    `bun:"session_id,pk"`
	Code             string                    `bun:"code,notnull"`
	QuizID           string                    `bun:"quiz_id,notnull"`
	QuizTitle        string                    `bun:"quiz_title,notnull"`
	StartedAt        time.Time                 `bun:"started_at,notnull"`
	FinishedAt       time.Time                 `bun:"finished_at,notnull"`
	ParticipantCount int                       `bun:"participant_count,notnull"`
	QuestionCount    int                       `bun:"question_count,notnull"`
	Leaderboard      []domain.LeaderboardEntry `bun:"leaderboard,type:jsonb"`
}

// OpenDB opens a bun handle over the pgdriver connector.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Persistence is the Postgres app.PersistenceBridge.
type Persistence struct {
	db  *bun.DB
	now func() time.Time
}

func NewPersistence(db *bun.DB) *Persistence {
	return &Persistence{db: db, now: time.Now}
}

// CreditPoints appends the ledger entry and, the first time only, adds the
// points to the user's balance. Guests and zero credits get a ledger entry
// but no balance.
func (p *Persistence) CreditPoints(ctx context.Context, credit domain.PointCredit) error {
	return p.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		entry := &XPLedgerEntry{
			SessionID:     credit.SessionID,
			ParticipantID: credit.ParticipantID,
			Points:        credit.Points,
			Reason:        credit.Reason,
			Guest:         credit.Guest,
			CreatedAt:     p.now(),
		}
		res, err := tx.NewInsert().
			Model(entry).
			On("CONFLICT (session_id, participant_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("insert ledger entry: %w", err)
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("ledger rows affected: %w", err)
		}
		if inserted == 0 || credit.Guest || credit.Points <= 0 {
			return nil
		}

		balance := &UserXP{UserID: credit.ParticipantID, XP: int64(credit.Points), UpdatedAt: p.now()}
		_, err = tx.NewInsert().
			Model(balance).
			On("CONFLICT (user_id) DO UPDATE").
			Set("xp = user_xp.xp + EXCLUDED.xp").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update user xp: %w", err)
		}
		return nil
	})
}

// RecordSessionSummary stores the summary once per session.
func (p *Persistence) RecordSessionSummary(ctx context.Context, summary domain.SessionSummary) error {
	history := &QuizHistory{
		SessionID:        summary.SessionID,
		Code:             summary.Code,
		QuizID:           summary.QuizID,
		QuizTitle:        summary.QuizTitle,
		StartedAt:        summary.StartedAt,
		FinishedAt:       summary.FinishedAt,
		ParticipantCount: summary.ParticipantCount,
		QuestionCount:    summary.QuestionCount,
		Leaderboard:      summary.Leaderboard,
	}
	if history.Leaderboard == nil {
		history.Leaderboard = []domain.LeaderboardEntry{}
	}
	_, err := p.db.NewInsert().
		Model(history).
		On("CONFLICT (session_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert quiz history: %w", err)
	}
	return nil
}

// Balance returns a user's credited points; unknown users have zero.
func (p *Persistence) Balance(ctx context.Context, userID string) (int64, error) {
	balance := new(UserXP)
	err := p.db.NewSelect().Model(balance).Where("user_id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load user xp: %w", err)
	}
	return balance.XP, nil
}

// History returns the recorded summary of a session.
func (p *Persistence) History(ctx context.Context, sessionID string) (QuizHistory, error) {
	var history QuizHistory
	err := p.db.NewSelect().Model(&history).Where("session_id = ?", sessionID).Scan(ctx)
	if err != nil {
		return QuizHistory{}, fmt.Errorf("load quiz history: %w", err)
	}
	return history, nil
}

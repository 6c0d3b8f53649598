package transcripts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gemspark/internal/common"
	"github.com/dmitrijs2005/gemspark/internal/dbx"
	"github.com/dmitrijs2005/gemspark/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, sessionID string) ([]models.Message, error) {
	query := `
		SELECT messages FROM transcripts
		WHERE session_id = $1
	`
	var raw []byte
	if err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.Message{}, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	messages := []models.Message{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &messages); err != nil {
			return nil, fmt.Errorf("decode transcript %s: %w", sessionID, err)
		}
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

func (r *PostgresRepository) Save(ctx context.Context, sessionID string, messages []models.Message) error {
	if messages == nil {
		messages = []models.Message{}
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode transcript %s: %w", sessionID, err)
	}

	query := `
		INSERT INTO transcripts (session_id, messages, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (session_id) DO UPDATE
		SET messages = EXCLUDED.messages, updated_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, sessionID, string(raw)); err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return common.ErrSessionNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, sessionID string) error {
	query := `
		DELETE FROM transcripts
		WHERE session_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

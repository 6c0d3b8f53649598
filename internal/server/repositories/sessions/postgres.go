package sessions

import (
	"context"
	"database/sql"
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

func (r *PostgresRepository) Create(ctx context.Context, s *models.ChatSession) (*models.ChatSession, error) {
	query := `
		INSERT INTO chat_sessions (id, user_id, name)
		VALUES ($1, $2, $3)
		RETURNING seq, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, s.ID, s.UserID, s.Name).Scan(&s.Seq, &s.CreatedAt); err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.ChatSession, error) {
	query := `
		SELECT id, user_id, name, seq, created_at
		FROM chat_sessions
		WHERE user_id = $1
		ORDER BY seq
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.ChatSession, 0)
	for rows.Next() {
		var s models.ChatSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Seq, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.ChatSession, error) {
	query := `
		SELECT id, user_id, name, seq, created_at
		FROM chat_sessions
		WHERE id = $1 AND user_id = $2
	`
	s := &models.ChatSession{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(&s.ID, &s.UserID, &s.Name, &s.Seq, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Count(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM chat_sessions WHERE user_id = $1
	`
	var n int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Rename(ctx context.Context, userID, id, name string) error {
	query := `
		UPDATE chat_sessions SET name = $1
		WHERE id = $2 AND user_id = $3
	`
	res, err := r.db.ExecContext(ctx, query, name, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `
		DELETE FROM chat_sessions
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

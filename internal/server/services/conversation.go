package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gemspark/internal/common"
	"github.com/dmitrijs2005/gemspark/internal/logging"
	"github.com/dmitrijs2005/gemspark/internal/server/llm"
	"github.com/dmitrijs2005/gemspark/internal/server/models"
	"github.com/dmitrijs2005/gemspark/internal/syncx"
)

// TurnResult is what one completed turn appended to the transcript.
type TurnResult struct {
	SessionID string
	Prompt    models.Message
	Reply     models.Message
	// Length is the transcript length after the turn was saved.
	Length int
}

// ConversationService runs user turns: it sends the prompt with the
// trailing history to the model, collects the streamed reply and saves
// prompt and reply together. Turns on one session never overlap.
type ConversationService struct {
	sessions     *SessionService
	transcripts  *TranscriptService
	model        llm.Model
	window       int
	modelTimeout time.Duration
	locks        *syncx.KeyedLock
	logger       logging.Logger
}

func NewConversationService(sessions *SessionService, transcripts *TranscriptService, model llm.Model,
	window int, modelTimeout time.Duration, logger logging.Logger) *ConversationService {
	return &ConversationService{
		sessions:     sessions,
		transcripts:  transcripts,
		model:        model,
		window:       window,
		modelTimeout: modelTimeout,
		locks:        syncx.NewKeyedLock(),
		logger:       logger.With("module", "conversation"),
	}
}

// SubmitTurn processes one prompt on sessionID. onFragment, when set, sees
// every reply fragment as it arrives; it is for display only. When the
// model fails nothing is saved and the error wraps common.ErrModelInvocation.
func (s *ConversationService) SubmitTurn(ctx context.Context, userID, sessionID, prompt string, onFragment func(string)) (*TurnResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is empty", common.ErrValidation)
	}

	unlock, err := s.locks.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := s.sessions.Get(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	history, err := s.transcripts.GetHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if bad := llm.UnknownRoles(history, s.window); len(bad) > 0 {
		s.logger.Warn(ctx, "transcript has messages with unknown roles, sending them as user turns",
			"session_id", sessionID, "positions", bad)
	}
	turns := llm.Format(history, s.window)

	reply, err := s.ask(ctx, turns, prompt, onFragment)
	if err != nil {
		s.logger.Error(ctx, "model invocation failed", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrModelInvocation, err)
	}

	promptMsg := models.Message{Role: models.RoleUser, Text: prompt}
	replyMsg := models.Message{Role: models.RoleAssistant, Text: reply}
	updated := append(models.CloneMessages(history), promptMsg, replyMsg)

	// The caller may have gone away while the model was talking; the turn is
	// complete, so it is still saved.
	saveCtx := context.WithoutCancel(ctx)
	if err := s.transcripts.SaveHistory(saveCtx, sessionID, updated); err != nil {
		s.logger.Error(ctx, "saving turn failed", "session_id", sessionID, "error", err)
		if errors.Is(err, common.ErrSessionNotFound) {
			return nil, common.ErrSessionNotFound
		}
		if !errors.Is(err, common.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
		}
		return nil, err
	}

	s.logger.Info(ctx, "turn completed", "session_id", sessionID,
		"history_turns", len(turns), "reply_len", len(reply), "transcript_len", len(updated))

	return &TurnResult{
		SessionID: sessionID,
		Prompt:    promptMsg,
		Reply:     replyMsg,
		Length:    len(updated),
	}, nil
}

func (s *ConversationService) ask(ctx context.Context, turns []llm.Turn, prompt string, onFragment func(string)) (string, error) {
	if s.modelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.modelTimeout)
		defer cancel()
	}

	chat, err := s.model.StartChat(ctx, turns)
	if err != nil {
		return "", err
	}
	reply, err := llm.Collect(chat.SendStream(ctx, prompt), onFragment)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return reply, nil
}

package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gemspark/internal/api"
	"github.com/dmitrijs2005/gemspark/internal/common"
)

// showActive prints the active chat and its transcript.
func (a *App) showActive(ctx context.Context) error {
	rctx, cancel := a.requestCtx(ctx)
	defer cancel()

	s, err := a.chatService.Active(rctx)
	if err != nil {
		return err
	}
	a.printf("Active chat: %s\n", s.Name)

	msgs, err := a.chatService.History(rctx)
	if err != nil {
		return err
	}
	a.printMessages(msgs)
	return nil
}

func (a *App) printMessages(msgs []api.Message) {
	for _, m := range msgs {
		who := "you"
		if m.Role == "assistant" {
			who = "gemspark"
		}
		a.printf("%s: %s\n", who, m.Text)
	}
}

// List prints the sessions in creation order, marking the active one.
func (a *App) List(ctx context.Context) error {
	rctx, cancel := a.requestCtx(ctx)
	defer cancel()

	active, err := a.chatService.Active(rctx)
	if err != nil {
		return err
	}
	list, err := a.chatService.Sessions(rctx)
	if err != nil {
		return err
	}

	for i, s := range list {
		marker := " "
		if s.ID == active.ID {
			marker = "*"
		}
		a.printf("%s %d. %s\n", marker, i+1, s.Name)
	}
	return nil
}

func (a *App) New(ctx context.Context, name string) error {
	rctx, cancel := a.requestCtx(ctx)
	defer cancel()

	s, err := a.chatService.NewChat(rctx, name)
	if err != nil {
		return err
	}
	a.printf("Started %s.\n", s.Name)
	return nil
}

func (a *App) Use(ctx context.Context, arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("%w: usage /use N, N from /list", common.ErrValidation)
	}

	rctx, cancel := a.requestCtx(ctx)
	defer cancel()

	if _, err := a.chatService.Use(rctx, n); err != nil {
		return err
	}
	return a.showActive(ctx)
}

func (a *App) Rename(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: usage /rename NAME", common.ErrValidation)
	}

	rctx, cancel := a.requestCtx(ctx)
	defer cancel()

	s, err := a.chatService.Rename(rctx, name)
	if err != nil {
		return err
	}
	a.printf("Renamed to %s.\n", s.Name)
	return nil
}

func (a *App) Delete(ctx context.Context) error {
	rctx, cancel := a.requestCtx(ctx)
	defer cancel()

	s, err := a.chatService.Delete(rctx)
	if err != nil {
		return err
	}
	a.printf("Deleted. Active chat: %s\n", s.Name)
	return nil
}

func (a *App) History(ctx context.Context) error {
	rctx, cancel := a.requestCtx(ctx)
	defer cancel()

	msgs, err := a.chatService.History(rctx)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		a.printf("No messages yet.\n")
		return nil
	}
	a.printMessages(msgs)
	return nil
}

func (a *App) Export(ctx context.Context) error {
	rctx, cancel := a.requestCtx(ctx)
	defer cancel()

	url, err := a.chatService.Export(rctx)
	if err != nil {
		return err
	}
	a.printf("Transcript exported, link valid for 15 minutes:\n%s\n", url)
	return nil
}

// Send streams the reply to the terminal as it arrives.
func (a *App) Send(ctx context.Context, prompt string) error {
	tctx, cancel := context.WithTimeout(ctx, a.config.TurnTimeout)
	defer cancel()

	started := false
	_, err := a.chatService.Send(tctx, prompt, func(fragment string) {
		if !started {
			a.printf("gemspark: ")
			started = true
		}
		a.printf("%s", fragment)
	})
	if started {
		a.printf("\n")
	}
	return err
}

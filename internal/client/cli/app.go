package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gemspark/internal/client/client"
	"github.com/dmitrijs2005/gemspark/internal/client/config"
	"github.com/dmitrijs2005/gemspark/internal/client/services"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config      *config.Config
	authService services.AuthService
	chatService services.ChatService
	reader      *bufio.Reader
	out         io.Writer

	outMu sync.Mutex

	mu       sync.Mutex
	userName string
	loggedIn bool
	mode     Mode
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	db, err := client.InitDatabase(ctx, c.StateDSN)
	if err != nil {
		return nil, fmt.Errorf("error initializing state database: %w", err)
	}

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	as := services.NewAuthService(apiClient, db)
	cs := services.NewChatService(apiClient, db)

	return newApp(c, as, cs, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, as services.AuthService, cs services.ChatService, in io.Reader, out io.Writer) *App {
	return &App{
		config:      c,
		authService: as,
		chatService: cs,
		reader:      bufio.NewReader(in),
		out:         out,
	}
}

// printf is safe to call from the connectivity watcher.
func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.printf("\nSwitched to %s mode\n", mode)
	}
}

func (a *App) setUser(name string, loggedIn bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.userName = name
	a.loggedIn = loggedIn
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loggedIn
}

func (a *App) status() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var parts []string
	if a.loggedIn {
		parts = append(parts, a.userName)
	}
	if a.mode != "" {
		parts = append(parts, string(a.mode))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// requestCtx bounds an ordinary call.
func (a *App) requestCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

// Run resumes a remembered login, starts the connectivity watcher and
// blocks in the REPL until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() { _ = a.authService.Close(ctx) }()

	a.printf("Welcome to GemSpark (type /help for commands)\n")
	a.resume(ctx)

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) resume(ctx context.Context) {
	rctx, cancel := a.requestCtx(ctx)
	defer cancel()

	name, err := a.authService.Resume(rctx)
	if err != nil {
		a.printf("Could not restore your last login: %s\n", describe(err))
		return
	}
	if name == "" {
		return
	}
	a.setUser(name, true)
	a.printf("Welcome back, %s.\n", name)
	_ = a.showActive(ctx)
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.authService.Ping(pctx)
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
)

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	printf(format string, args ...any)

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error

	List(ctx context.Context) error
	New(ctx context.Context, name string) error
	Use(ctx context.Context, arg string) error
	Rename(ctx context.Context, name string) error
	Delete(ctx context.Context) error
	History(ctx context.Context) error
	Export(ctx context.Context) error
	Send(ctx context.Context, prompt string) error

	// afterCommand runs once per processed line while logged in.
	afterCommand(ctx context.Context)
}

const (
	helpLoggedOut = "Commands: /register, /login, /help, /exit"
	helpLoggedIn  = "Type a message to chat. Commands: /list, /new [name], /use N, /rename NAME, /delete, /history, /export, /logout, /help, /exit"
)

// runREPL reads lines from reader until EOF, /exit or /quit. Lines starting
// with "/" are commands; anything else is a prompt for the active chat.
// Command errors are printed inline and never end the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		a.printf("gemspark%s> ", withSpace(statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			a.printf("\n")
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			if !a.isLoggedIn() {
				a.printf("Please /login or /register first.\n")
				continue
			}
			report(a, a.Send(ctx, line))
			a.afterCommand(ctx)
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		if cmd == "/exit" || cmd == "/quit" {
			a.printf("Bye!\n")
			return
		}

		if !dispatch(ctx, a, cmd, arg) {
			a.printf("Unknown command: %s (try /help)\n", cmd)
			continue
		}
		if a.isLoggedIn() {
			a.afterCommand(ctx)
		}
	}
}

// dispatch runs cmd and reports whether it was recognised.
func dispatch(ctx context.Context, a execIface, cmd, arg string) bool {
	switch cmd {
	case "/help":
		if a.isLoggedIn() {
			a.printf("%s\n", helpLoggedIn)
		} else {
			a.printf("%s\n", helpLoggedOut)
		}
		return true
	case "/register":
		report(a, a.Register(ctx))
		return true
	case "/login":
		report(a, a.Login(ctx))
		return true
	}

	var fn func() error
	switch cmd {
	case "/logout":
		fn = func() error { return a.Logout(ctx) }
	case "/list", "/l":
		fn = func() error { return a.List(ctx) }
	case "/new":
		fn = func() error { return a.New(ctx, arg) }
	case "/use":
		fn = func() error { return a.Use(ctx, arg) }
	case "/rename":
		fn = func() error { return a.Rename(ctx, arg) }
	case "/delete":
		fn = func() error { return a.Delete(ctx) }
	case "/history":
		fn = func() error { return a.History(ctx) }
	case "/export":
		fn = func() error { return a.Export(ctx) }
	default:
		return false
	}

	if !a.isLoggedIn() {
		a.printf("Please /login or /register first.\n")
		return true
	}
	report(a, fn())
	return true
}

func report(a execIface, err error) {
	if err != nil {
		a.printf("%s\n", describe(err))
	}
}

func withSpace(s string) string {
	if s == "" {
		return ""
	}
	return " " + s
}

package cli

import (
	"context"

	"github.com/dmitrijs2005/gemspark/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) askCredentials() (string, []byte, error) {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

// Register creates an account and logs straight into it.
func (a *App) Register(ctx context.Context) error {
	userName, password, err := a.askCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	rctx, cancel := a.requestCtx(ctx)
	defer cancel()

	if err := a.authService.Register(rctx, userName, password); err != nil {
		return err
	}
	a.printf("Account %s created.\n", userName)

	return a.login(ctx, userName, password)
}

func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.askCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	return a.login(ctx, userName, password)
}

func (a *App) login(ctx context.Context, userName string, password []byte) error {
	rctx, cancel := a.requestCtx(ctx)
	defer cancel()

	if err := a.authService.Login(rctx, userName, password); err != nil {
		return err
	}
	a.setUser(userName, true)
	a.printf("Logged in as %s.\n", userName)
	return a.showActive(ctx)
}

func (a *App) Logout(ctx context.Context) error {
	a.setUser("", false)
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.printf("Logged out.\n")
	return nil
}

// afterCommand keeps the remembered refresh token current.
func (a *App) afterCommand(ctx context.Context) {
	if err := a.authService.Checkpoint(ctx); err != nil {
		a.printf("Could not save login state: %s\n", describe(err))
	}
}

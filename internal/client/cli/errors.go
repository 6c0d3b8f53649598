package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gemspark/internal/client/client"
	"github.com/dmitrijs2005/gemspark/internal/common"
)

// describe turns an error into the inline message shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrUsernameTaken):
		return "That username is already taken."
	case errors.Is(err, common.ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, client.ErrNotLoggedIn), errors.Is(err, client.ErrUnauthorized):
		return "Your login has expired, please /login again."
	case errors.Is(err, common.ErrSessionNotFound):
		return "That chat no longer exists. Use /list to pick another."
	case errors.Is(err, common.ErrModelInvocation):
		return "The model could not answer (" + err.Error() + "). Nothing was saved, send your message again."
	case errors.Is(err, common.ErrExportDisabled):
		return "Export is not configured on the server."
	case errors.Is(err, common.ErrValidation):
		return err.Error()
	case errors.Is(err, client.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return "Server unavailable, try again later."
	default:
		return "Error: " + err.Error()
	}
}

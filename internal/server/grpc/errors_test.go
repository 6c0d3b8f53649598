package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/gemspark/internal/common"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"nil", nil, codes.OK},
		{"taken", fmt.Errorf("error creating user: %w", common.ErrUsernameTaken), codes.AlreadyExists},
		{"credentials", common.ErrInvalidCredentials, codes.Unauthenticated},
		{"expired refresh", common.ErrRefreshTokenExpired, codes.Unauthenticated},
		{"session", fmt.Errorf("rename: %w", common.ErrSessionNotFound), codes.NotFound},
		{"validation", fmt.Errorf("%w: prompt is empty", common.ErrValidation), codes.InvalidArgument},
		{"model", fmt.Errorf("%w: %w", common.ErrModelInvocation, context.DeadlineExceeded), codes.Unavailable},
		{"store", common.ErrStoreUnavailable, codes.Unavailable},
		{"export", common.ErrExportDisabled, codes.FailedPrecondition},
		{"canceled", context.Canceled, codes.Canceled},
		{"status passthrough", status.Error(codes.PermissionDenied, "x"), codes.PermissionDenied},
		{"other", errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(toStatus(tt.err)))
		})
	}
}

func TestToStatus_HidesInternalDetail(t *testing.T) {
	st, _ := status.FromError(toStatus(errors.New("pq: password authentication failed")))
	assert.Equal(t, "internal error", st.Message())
}

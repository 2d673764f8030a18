package errs

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError(t *testing.T) {
	tests := []struct {
		name        string
		code        int
		details     []any
		wantCode    int
		wantKind    Kind
		wantMessage string
		wantStatus  int
	}{
		{
			name:        "validation error keeps default status",
			code:        ErrUsernameRoomRequired,
			wantCode:    ErrUsernameRoomRequired,
			wantKind:    KindValidation,
			wantMessage: "Username and room are required.",
			wantStatus:  http.StatusOK,
		},
		{
			name:        "conflict error carries its status",
			code:        ErrUsernameInUse,
			wantCode:    ErrUsernameInUse,
			wantKind:    KindConflict,
			wantMessage: "Username is in use.",
			wantStatus:  http.StatusConflict,
		},
		{
			name:        "template is formatted with details",
			code:        ErrUnknownEvent,
			details:     []any{"typing"},
			wantCode:    ErrUnknownEvent,
			wantKind:    KindValidation,
			wantMessage: `Unknown event "typing".`,
			wantStatus:  http.StatusOK,
		},
		{
			name:        "unknown code falls back",
			code:        424242,
			wantCode:    ErrUnknown,
			wantKind:    KindInternal,
			wantMessage: "Something went wrong. Please try again.",
			wantStatus:  http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewError(tt.code, tt.details...)

			assert.Equal(t, tt.wantCode, err.Code)
			assert.Equal(t, tt.wantKind, err.Kind)
			assert.Equal(t, tt.wantMessage, err.Message)
			assert.Equal(t, tt.wantStatus, err.Status)
		})
	}
}

func TestNewError_DoesNotShareTemplate(t *testing.T) {
	first := NewError(ErrUnknownEvent, "a")
	second := NewError(ErrUnknownEvent, "b")

	assert.NotEqual(t, first.Message, second.Message)
	assert.Equal(t, "Unknown event %q.", errorMap[ErrUnknownEvent].Message)
}

func TestIsAndIsKind(t *testing.T) {
	req := require.New(t)

	wrapped := fmt.Errorf("join: %w", NewError(ErrProfanity))

	req.True(Is(wrapped, ErrProfanity))
	req.False(Is(wrapped, ErrUsernameInUse))
	req.True(IsKind(wrapped, KindContentRejected))
	req.False(IsKind(fmt.Errorf("plain"), KindContentRejected))

	customErr, ok := As(wrapped)
	req.True(ok)
	req.Equal("Profanity is not allowed!", customErr.Message)
}

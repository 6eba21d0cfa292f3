package validation

import (
	"chat-uol/domain"
	chaterrors "chat-uol/errors"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateParticipant(t *testing.T) {
	tests := []struct {
		name    string
		req     ParticipantRequest
		details []string
	}{
		{"Valid name", ParticipantRequest{Name: "Alice"}, nil},
		{"Missing name", ParticipantRequest{}, []string{`"name" is required`}},
		{"Blank name", ParticipantRequest{Name: "   "}.Normalize(), []string{`"name" is required`}},
		{"Broadcast token is reserved", ParticipantRequest{Name: domain.BroadcastToken}, []string{`"name" must not be "Todos"`}},
		{"Broadcast token is case-sensitive", ParticipantRequest{Name: "todos"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			err := ValidateParticipant(tt.req)
			if tt.details == nil {
				req.NoError(err)
				return
			}
			req.ErrorIs(err, chaterrors.ErrValidation)
			var validationErr *chaterrors.ValidationError
			req.True(errors.As(err, &validationErr))
			req.Equal(tt.details, validationErr.Details)
		})
	}
}

func TestValidateMessage_Collects_All_Violations(t *testing.T) {
	req := require.New(t)

	// Given a message missing every field
	err := ValidateMessage(MessageRequest{})

	// Then every violation is reported at once, in field order
	var validationErr *chaterrors.ValidationError
	req.True(errors.As(err, &validationErr))
	req.Equal([]string{
		`"to" is required`,
		`"text" is required`,
		`"kind" is required`,
	}, validationErr.Details)
}

func TestValidateMessage_Rejects_Unknown_Kind(t *testing.T) {
	req := require.New(t)

	err := ValidateMessage(MessageRequest{To: "Bob", Text: "hi", Kind: "status"})

	var validationErr *chaterrors.ValidationError
	req.True(errors.As(err, &validationErr))
	req.Equal([]string{`"kind" must be one of [direct, broadcast]`}, validationErr.Details)
}

func TestValidateMessage_Valid(t *testing.T) {
	req := require.New(t)
	req.NoError(ValidateMessage(MessageRequest{To: "Todos", Text: "hi", Kind: "broadcast"}))
	req.NoError(ValidateMessage(MessageRequest{To: "Bob", Text: "psst", Kind: "direct"}))
}

func TestMessageRequest_Normalize_Keeps_Text(t *testing.T) {
	req := require.New(t)
	normalized := MessageRequest{To: " Bob ", Text: "  hi ", Kind: "direct "}.Normalize()
	req.Equal(MessageRequest{To: "Bob", Text: "  hi ", Kind: "direct"}, normalized)
}

func TestValidateMessage_Blank_Text_Is_Missing(t *testing.T) {
	req := require.New(t)

	err := ValidateMessage(MessageRequest{To: "Bob", Text: " \t\n ", Kind: "direct"})

	var validationErr *chaterrors.ValidationError
	req.True(errors.As(err, &validationErr))
	req.Equal([]string{`"text" is required`}, validationErr.Details)
}

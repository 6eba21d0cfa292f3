//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	"chat-uol/clock"
	"chat-uol/domain"
	chaterrors "chat-uol/errors"
	"chat-uol/repositories"
	"chat-uol/validation"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

type IMessageService interface {
	Post(ctx context.Context, from string, req validation.MessageRequest) (domain.Message, error)
	AppendSystem(ctx context.Context, message domain.Message) error
	ListFor(ctx context.Context, user string, limit int) ([]domain.Message, error)
}

// Censor rewrites forbidden words of a message body.
type Censor interface {
	Censor(original string) string
}

type MessageService struct {
	messages     repositories.IMessageRepository
	participants repositories.IParticipantRepository
	censor       Censor
	clock        clock.Clock
	log          *slog.Logger
}

// NewMessageService builds the message store. censor may be nil.
func NewMessageService(
	messages repositories.IMessageRepository,
	participants repositories.IParticipantRepository,
	censor Censor,
	clk clock.Clock,
	log *slog.Logger,
) *MessageService {
	return &MessageService{
		messages:     messages,
		participants: participants,
		censor:       censor,
		clock:        clk,
		log:          log,
	}
}

// Post stores a user message sent by from, the identity supplied with the request.
// It fails with ErrSenderNotRegistered, creating nothing, when from is not a
// registered participant.
func (s *MessageService) Post(ctx context.Context, from string, req validation.MessageRequest) (domain.Message, error) {
	req = req.Normalize()
	if err := validation.ValidateMessage(req); err != nil {
		return domain.Message{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}

	if _, err := s.participants.GetParticipant(from); err != nil {
		if errors.Is(err, chaterrors.ErrNotFound) {
			return domain.Message{}, chaterrors.ErrSenderNotRegistered
		}
		return domain.Message{}, err
	}

	text := req.Text
	if s.censor != nil {
		text = s.censor.Censor(text)
	}
	now := s.clock.Now()
	message, err := s.messages.StoreMessage(domain.Message{
		ID:   uuid.New(),
		From: from,
		To:   req.To,
		Text: text,
		Kind: domain.Kind(req.Kind),
		Time: now.Format(domain.TimeLayout),
	})
	if err != nil {
		return domain.Message{}, err
	}

	// Sending a message is also a sign of life. The message is already
	// stored, so a failed refresh never turns the post into an error.
	if err := s.participants.TouchParticipant(ctx, from, now); err != nil {
		if errors.Is(err, chaterrors.ErrNotFound) {
			s.log.Debug("Sender evicted while posting", "from", from)
		} else {
			s.log.Warn("Failed to refresh sender presence", "from", from, "error", err)
		}
	}
	return message, nil
}

// AppendSystem stores a join/leave announcement. The system is the implicit
// sender, so no registration check applies.
func (s *MessageService) AppendSystem(_ context.Context, message domain.Message) error {
	if message.Kind != domain.Status {
		return fmt.Errorf("system message must be of kind %q, got %q", domain.Status, message.Kind)
	}
	if _, err := s.messages.StoreMessage(message); err != nil {
		return err
	}
	s.log.Debug("Status message appended", "name", message.From, "text", message.Text)
	return nil
}

// ListFor returns the messages user is allowed to see, oldest first,
// truncated to the last limit ones when limit > 0.
func (s *MessageService) ListFor(ctx context.Context, user string, limit int) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.messages.GetMessagesFor(user, limit)
}

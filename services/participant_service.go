//go:generate go run go.uber.org/mock/mockgen -source=participant_service.go -destination=../mocks/mock_participant_service.go -package=mocks
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
	"time"
)

type IParticipantService interface {
	Register(ctx context.Context, req validation.ParticipantRequest) (domain.Participant, error)
	List(ctx context.Context) ([]domain.Participant, error)
	Heartbeat(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
	Sweep(ctx context.Context, now time.Time, timeout time.Duration) ([]string, error)
}

// ParticipantService is the registry of present participants.
// Join and leave announcements go through the message service.
type ParticipantService struct {
	participants repositories.IParticipantRepository
	messages     IMessageService
	clock        clock.Clock
	log          *slog.Logger
}

func NewParticipantService(
	participants repositories.IParticipantRepository,
	messages IMessageService,
	clk clock.Clock,
	log *slog.Logger,
) *ParticipantService {
	return &ParticipantService{
		participants: participants,
		messages:     messages,
		clock:        clk,
		log:          log,
	}
}

// Register creates the participant and announces the join.
// ErrConflict is returned when the name is already taken.
func (s *ParticipantService) Register(ctx context.Context, req validation.ParticipantRequest) (domain.Participant, error) {
	req = req.Normalize()
	if err := validation.ValidateParticipant(req); err != nil {
		return domain.Participant{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Participant{}, err
	}

	now := s.clock.Now()
	participant, err := s.participants.CreateParticipant(req.Name, now)
	if err != nil {
		return domain.Participant{}, err
	}
	s.log.Info("Participant joined", "name", participant.Name)

	if err := s.messages.AppendSystem(ctx, domain.NewJoinMessage(participant.Name, now)); err != nil {
		return participant, fmt.Errorf("announce join of %s: %w", participant.Name, err)
	}
	return participant, nil
}

func (s *ParticipantService) List(ctx context.Context) ([]domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.participants.ListParticipants()
}

// Heartbeat refreshes LastSeen. ErrNotFound when name is not registered.
func (s *ParticipantService) Heartbeat(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.participants.TouchParticipant(ctx, name, s.clock.Now())
}

func (s *ParticipantService) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := s.participants.GetParticipant(name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, chaterrors.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Sweep evicts every participant not seen for more than timeout at now and
// announces each departure. A participant whose heartbeat lands between the
// snapshot and the delete is kept. Storage failures on one participant do not
// stop the pass: they are joined into the returned error.
func (s *ParticipantService) Sweep(ctx context.Context, now time.Time, timeout time.Duration) ([]string, error) {
	participants, err := s.participants.ListParticipants()
	if err != nil {
		return nil, err
	}

	evicted := make([]string, 0)
	var errs []error
	for _, participant := range participants {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if !domain.IsStale(now, participant.LastSeen, timeout) {
			continue
		}

		deleted, err := s.participants.DeleteIfUnchanged(participant)
		if err != nil {
			s.log.Warn("Failed to evict participant", "name", participant.Name, "error", err)
			errs = append(errs, err)
			continue
		}
		if !deleted {
			s.log.Debug("Participant came back before eviction", "name", participant.Name)
			continue
		}

		evicted = append(evicted, participant.Name)
		s.log.Info("Participant left", "name", participant.Name, "last_seen", participant.LastSeen)
		if err := s.messages.AppendSystem(ctx, domain.NewLeaveMessage(participant.Name, now)); err != nil {
			s.log.Warn("Failed to announce departure", "name", participant.Name, "error", err)
			errs = append(errs, err)
		}
	}
	return evicted, errors.Join(errs...)
}

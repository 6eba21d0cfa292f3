package services

import (
	"chat-uol/clock"
	"chat-uol/repositories"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	clock        *clock.FakeClock
	participants *ParticipantService
	messages     *MessageService
}

// newFixture wires both services on a real Badger store with a fake clock.
func newFixture(t *testing.T, censor Censor) fixture {
	t.Helper()
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	participantRepository, err := repositories.NewParticipantRepository(db, log)
	req.NoError(err)
	t.Cleanup(func() { _ = participantRepository.Close() })
	messageRepository, err := repositories.NewMessageRepository(db, log)
	req.NoError(err)
	t.Cleanup(func() { _ = messageRepository.Close() })

	clk := clock.Fake(t0)
	messages := NewMessageService(messageRepository, participantRepository, censor, clk, log)
	participants := NewParticipantService(participantRepository, messages, clk, log)
	return fixture{clock: clk, participants: participants, messages: messages}
}

package server

import (
	"bytes"
	"chat-uol/clock"
	"chat-uol/domain"
	chaterrors "chat-uol/errors"
	"chat-uol/mocks"
	"chat-uol/repositories"
	"chat-uol/services"
	"chat-uol/validation"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func do(t *testing.T, h http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		r.Header.Set(UserHeader, user)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

// newStack serves the API on real services backed by Badger.
func newStack(t *testing.T) (http.Handler, *clock.FakeClock, *services.ParticipantService) {
	t.Helper()
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	participantRepository, err := repositories.NewParticipantRepository(db, log)
	req.NoError(err)
	messageRepository, err := repositories.NewMessageRepository(db, log)
	req.NoError(err)
	t.Cleanup(func() {
		_ = participantRepository.Close()
		_ = messageRepository.Close()
	})

	clk := clock.Fake(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	messages := services.NewMessageService(messageRepository, participantRepository, nil, clk, log)
	participants := services.NewParticipantService(participantRepository, messages, clk, log)
	return NewChatServer(log, participants, messages).Router(), clk, participants
}

func TestChatServer_Scenario(t *testing.T) {
	req := require.New(t)
	h, _, _ := newStack(t)

	// Register "Alice" -> 201, then again -> 409
	w := do(t, h, http.MethodPost, "/participants", "", `{"name":"Alice"}`)
	req.Equal(http.StatusCreated, w.Code)
	w = do(t, h, http.MethodPost, "/participants", "", `{"name":"Alice"}`)
	req.Equal(http.StatusConflict, w.Code)

	// Alice broadcasts
	w = do(t, h, http.MethodPost, "/messages", "Alice", `{"to":"Todos","text":"hi","kind":"broadcast"}`)
	req.Equal(http.StatusCreated, w.Code)

	// Bob never registered but sees the join and the broadcast
	w = do(t, h, http.MethodGet, "/messages?limit=10", "Bob", "")
	req.Equal(http.StatusOK, w.Code)
	var inbox []MessageResponse
	req.NoError(json.Unmarshal(w.Body.Bytes(), &inbox))
	req.Len(inbox, 2)
	req.Equal("status", inbox[0].Kind)
	req.Equal("Alice", inbox[0].From)
	req.Equal("broadcast", inbox[1].Kind)
	req.Equal("hi", inbox[1].Text)
	req.Equal("10:00:00", inbox[1].Time)

	// Participants lists Alice once
	w = do(t, h, http.MethodGet, "/participants", "", "")
	req.Equal(http.StatusOK, w.Code)
	var participants []ParticipantResponse
	req.NoError(json.Unmarshal(w.Body.Bytes(), &participants))
	req.Equal([]ParticipantResponse{{Name: "Alice", LastSeen: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Unix()}}, participants)
}

func TestChatServer_Validation_Reports_Every_Violation(t *testing.T) {
	req := require.New(t)
	h, _, _ := newStack(t)

	w := do(t, h, http.MethodPost, "/participants", "", `{}`)
	req.Equal(http.StatusUnprocessableEntity, w.Code)
	var details []string
	req.NoError(json.Unmarshal(w.Body.Bytes(), &details))
	req.Equal([]string{`"name" is required`}, details)

	w = do(t, h, http.MethodPost, "/messages", "Alice", `{"kind":"status"}`)
	req.Equal(http.StatusUnprocessableEntity, w.Code)
	req.NoError(json.Unmarshal(w.Body.Bytes(), &details))
	req.Equal([]string{`"to" is required`, `"text" is required`, `"kind" must be one of [direct, broadcast]`}, details)

	w = do(t, h, http.MethodPost, "/participants", "", `not json`)
	req.Equal(http.StatusUnprocessableEntity, w.Code)
}

func TestChatServer_Unknown_Sender_And_Heartbeat(t *testing.T) {
	req := require.New(t)
	h, clk, participants := newStack(t)

	w := do(t, h, http.MethodPost, "/messages", "Ghost", `{"to":"Todos","text":"boo","kind":"broadcast"}`)
	req.Equal(http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodPost, "/status", "Ghost", "")
	req.Equal(http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodPost, "/participants", "", `{"name":"Alice"}`)
	req.Equal(http.StatusCreated, w.Code)
	clk.Advance(5 * time.Second)
	w = do(t, h, http.MethodPost, "/status", "Alice", "")
	req.Equal(http.StatusOK, w.Code)

	// The heartbeat keeps Alice through a sweep 12s after she joined
	clk.Advance(7 * time.Second)
	evicted, err := participants.Sweep(t.Context(), clk.Now(), 10*time.Second)
	req.NoError(err)
	req.Empty(evicted)
}

func TestChatServer_Limit_Parsing(t *testing.T) {
	ctrl := gomock.NewController(t)
	messages := mocks.NewMockIMessageService(ctrl)
	h := NewChatServer(slog.Default(), mocks.NewMockIParticipantService(ctrl), messages).Router()

	tests := []struct {
		query string
		limit int
	}{
		{"", 0},
		{"?limit=3", 3},
		{"?limit=abc", 0},
		{"?limit=-2", 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("query %q", tt.query), func(t *testing.T) {
			messages.EXPECT().ListFor(gomock.Any(), "Bob", tt.limit).Return([]domain.Message{}, nil)
			w := do(t, h, http.MethodGet, "/messages"+tt.query, "Bob", "")
			require.Equal(t, http.StatusOK, w.Code)
			require.JSONEq(t, `[]`, w.Body.String())
		})
	}
}

func TestChatServer_Default_Limit_Applies_Without_Usable_Limit(t *testing.T) {
	ctrl := gomock.NewController(t)
	messages := mocks.NewMockIMessageService(ctrl)
	h := NewChatServer(slog.Default(), mocks.NewMockIParticipantService(ctrl), messages).
		WithDefaultLimit(50).
		Router()

	gomock.InOrder(
		messages.EXPECT().ListFor(gomock.Any(), "Bob", 50).Return([]domain.Message{}, nil),
		messages.EXPECT().ListFor(gomock.Any(), "Bob", 50).Return([]domain.Message{}, nil),
		messages.EXPECT().ListFor(gomock.Any(), "Bob", 5).Return([]domain.Message{}, nil),
	)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/messages", "Bob", "").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/messages?limit=0", "Bob", "").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/messages?limit=5", "Bob", "").Code)
}

func TestChatServer_Storage_Failure_Is_A_Server_Error(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	participants := mocks.NewMockIParticipantService(ctrl)
	h := NewChatServer(slog.Default(), participants, mocks.NewMockIMessageService(ctrl)).Router()

	participants.EXPECT().List(gomock.Any()).Return(nil, fmt.Errorf("%w: closed", chaterrors.ErrStorageUnavailable))
	participants.EXPECT().
		Register(gomock.Any(), validation.ParticipantRequest{Name: "Alice"}).
		Return(domain.Participant{}, fmt.Errorf("%w: closed", chaterrors.ErrStorageUnavailable))

	w := do(t, h, http.MethodGet, "/participants", "", "")
	req.Equal(http.StatusInternalServerError, w.Code)
	req.JSONEq(`{"error":"internal error"}`, w.Body.String())

	w = do(t, h, http.MethodPost, "/participants", "", `{"name":"Alice"}`)
	req.Equal(http.StatusInternalServerError, w.Code)
}

func TestChatServer_CORS_Preflight(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	h := NewChatServer(slog.Default(), mocks.NewMockIParticipantService(ctrl), mocks.NewMockIMessageService(ctrl)).Router()

	w := do(t, h, http.MethodOptions, "/messages", "", "")

	req.Equal(http.StatusNoContent, w.Code)
	req.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))
	req.Contains(w.Header().Get("Access-Control-Allow-Headers"), UserHeader)
	req.Contains(w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

// brokenConnection accepts headers but fails every body write.
type brokenConnection struct {
	header http.Header
	status int
}

func (b *brokenConnection) Header() http.Header       { return b.header }
func (b *brokenConnection) WriteHeader(status int)    { b.status = status }
func (b *brokenConnection) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestChatServer_Logs_Response_Write_Failures(t *testing.T) {
	req := require.New(t)
	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctrl := gomock.NewController(t)
	s := NewChatServer(log, mocks.NewMockIParticipantService(ctrl), mocks.NewMockIMessageService(ctrl))

	w := &brokenConnection{header: http.Header{}}
	s.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	req.Equal(http.StatusOK, w.status)
	req.Contains(logs.String(), "Failed to write response")
	req.Contains(logs.String(), "connection reset")
}

package server

import (
	"chat-uol/domain"
	"chat-uol/errors"
	"chat-uol/services"
	"chat-uol/validation"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/lo"
)

// UserHeader carries the caller identity. The sender of a message is never
// read from the request body.
const UserHeader = "User"

type ChatServer struct {
	participants services.IParticipantService
	messages     services.IMessageService
	defaultLimit int
	log          *slog.Logger
}

func NewChatServer(log *slog.Logger, participants services.IParticipantService, messages services.IMessageService) *ChatServer {
	return &ChatServer{participants: participants, messages: messages, log: log}
}

// WithDefaultLimit caps GET /messages when the caller sends no usable limit.
// Zero keeps the whole history.
func (s *ChatServer) WithDefaultLimit(limit int) *ChatServer {
	s.defaultLimit = max(limit, 0)
	return s
}

type ParticipantResponse struct {
	Name     string `json:"name"`
	LastSeen int64  `json:"lastSeen"`
}

type MessageResponse struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Kind string `json:"kind"`
	Time string `json:"time"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Router wires every route of the chat API.
func (s *ChatServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/participants", s.RegisterParticipant).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/participants", s.ListParticipants).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/messages", s.PostMessage).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/messages", s.ListMessages).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/status", s.Heartbeat).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/health", s.HealthCheck).Methods(http.MethodGet)
	r.Use(mux.CORSMethodMiddleware(r), cors, s.accessLog)
	return r
}

// RegisterParticipant handles POST /participants
func (s *ChatServer) RegisterParticipant(w http.ResponseWriter, r *http.Request) {
	var body validation.ParticipantRequest
	if !s.decode(w, r, &body) {
		return
	}
	participant, err := s.participants.Register(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toParticipantResponse(participant))
}

// ListParticipants handles GET /participants
func (s *ChatServer) ListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := s.participants.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, lo.Map(participants, func(p domain.Participant, _ int) ParticipantResponse {
		return toParticipantResponse(p)
	}))
}

// PostMessage handles POST /messages, sent by the participant named in the User header.
func (s *ChatServer) PostMessage(w http.ResponseWriter, r *http.Request) {
	var body validation.MessageRequest
	if !s.decode(w, r, &body) {
		return
	}
	message, err := s.messages.Post(r.Context(), user(r), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toMessageResponse(message))
}

// ListMessages handles GET /messages?limit=N. A missing, malformed or
// non-positive limit falls back to the default limit.
func (s *ChatServer) ListMessages(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = s.defaultLimit
	}
	messages, err := s.messages.ListFor(r.Context(), user(r), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, lo.Map(messages, func(m domain.Message, _ int) MessageResponse {
		return toMessageResponse(m)
	}))
}

// Heartbeat handles POST /status
func (s *ChatServer) Heartbeat(w http.ResponseWriter, r *http.Request) {
	if err := s.participants.Heartbeat(r.Context(), user(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HealthCheck handles GET /health
func (s *ChatServer) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *ChatServer) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.log.Debug("Malformed body", "path", r.URL.Path, "error", err)
		s.writeJSON(w, http.StatusUnprocessableEntity, []string{"body must be a JSON object"})
		return false
	}
	return true
}

// fail writes the response of a service error. Validation errors are answered
// with the list of every violation.
func (s *ChatServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.MapToHTTPStatus(err)
	var validationErr *errors.ValidationError
	switch {
	case stderrors.As(err, &validationErr):
		s.writeJSON(w, status, validationErr.Details)
	case status == http.StatusInternalServerError:
		s.log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		s.writeJSON(w, status, ErrorResponse{Error: "internal error"})
	default:
		s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
	}
}

func user(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(UserHeader))
}

func (s *ChatServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug("Failed to write response", "status", status, "error", err)
	}
}

func toParticipantResponse(p domain.Participant) ParticipantResponse {
	return ParticipantResponse{Name: p.Name, LastSeen: p.LastSeen.Unix()}
}

func toMessageResponse(m domain.Message) MessageResponse {
	return MessageResponse{
		ID:   m.ID.String(),
		From: m.From,
		To:   m.To,
		Text: m.Text,
		Kind: string(m.Kind),
		Time: m.Time,
	}
}

// cors lets browser clients from any origin call the API.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+UserHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *ChatServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.log.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"user", user(r),
			"status", recorder.status,
			"duration", time.Since(start))
	})
}

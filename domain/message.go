// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable once stored.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// BroadcastToken is the reserved recipient meaning "everyone".
// It can never be used as a participant name.
const BroadcastToken = "Todos"

// TimeLayout is the HH:MM:SS format stamped on every message.
const TimeLayout = "15:04:05"

const (
	JoinText  = "entra na sala..."
	LeaveText = "sai da sala..."
)

type Kind string

const (
	Direct    Kind = "direct"
	Broadcast Kind = "broadcast"
	Status    Kind = "status"
)

func (k Kind) IsValid() bool {
	switch k {
	case Direct, Broadcast, Status:
		return true
	default:
		return false
	}
}

// Message represents an immutable chat event.
type Message struct {
	ID   uuid.UUID
	From string
	To   string
	Text string
	Kind Kind
	Time string
	// Seq is the insertion rank assigned by the store.
	Seq uint64
}

// VisibleTo reports whether user may read the message in its inbox:
// the user wrote it, it is addressed to everyone, or it is addressed to the user.
func (m Message) VisibleTo(user string) bool {
	return m.From == user || m.To == BroadcastToken || m.To == user
}

// NewStatusMessage builds a system announcement about name, addressed to everyone.
func NewStatusMessage(name, text string, at time.Time) Message {
	return Message{
		ID:   uuid.New(),
		From: name,
		To:   BroadcastToken,
		Text: text,
		Kind: Status,
		Time: at.Format(TimeLayout),
	}
}

func NewJoinMessage(name string, at time.Time) Message {
	return NewStatusMessage(name, JoinText, at)
}

func NewLeaveMessage(name string, at time.Time) Message {
	return NewStatusMessage(name, LeaveText, at)
}

//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-uol/codec"
	"chat-uol/domain"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	messagePrefix   = "msg:"
	messageSequence = "seq:messages"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) (domain.Message, error)
	GetMessagesFor(user string, limit int) ([]domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte(messageSequence), 100)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &MessageRepository{db: db, seq: seq, log: log}, nil
}

type messageRecord struct {
	ID   string `cbor:"id"`
	From string `cbor:"from"`
	To   string `cbor:"to"`
	Text string `cbor:"text"`
	Kind string `cbor:"kind"`
	Time string `cbor:"time"`
	Seq  uint64 `cbor:"seq"`
}

// StoreMessage appends a message to the log.
// The key is formatted as "msg:{seq_padded}:{uuid}" so that a prefix scan
// returns messages in insertion order (19-digit zero padding keeps the
// lexicographical order equal to the numeric one).
func (m *MessageRepository) StoreMessage(message domain.Message) (domain.Message, error) {
	seq, err := m.seq.Next()
	if err != nil {
		return domain.Message{}, unavailable(err)
	}
	message.Seq = seq
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}

	bytes, err := codec.Marshal(fromMessage(message))
	if err != nil {
		return domain.Message{}, fmt.Errorf("marshal failed: %w", err)
	}
	key := fmt.Sprintf("%s%019d:%s", messagePrefix, message.Seq, message.ID)
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return domain.Message{}, unavailable(err)
	}
	return message, nil
}

// GetMessagesFor walks the log from the newest message backwards and keeps the
// ones visible to user, stopping once limit of them are collected
// (limit <= 0 means no limit). The result is returned oldest first.
func (m *MessageRepository) GetMessagesFor(user string, limit int) ([]domain.Message, error) {
	messages := make([]domain.Message, 0)
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		// In reverse mode Seek lands on the last key <= seekKey, i.e. the newest message.
		seekKey := append([]byte(messagePrefix), 0xff)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(messages) == limit {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", limit))
				break
			}
			var record messageRecord
			err := it.Item().Value(func(val []byte) error {
				return codec.Unmarshal(val, &record)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal message: %w", err)
			}
			message, err := toMessage(record)
			if err != nil {
				return err
			}
			if message.VisibleTo(user) {
				messages = append(messages, message)
			}
		}
		return nil
	})
	if err != nil {
		return nil, unavailable(err)
	}
	return lo.Reverse(messages), nil
}

func (m *MessageRepository) Close() error {
	return m.seq.Release()
}

func fromMessage(message domain.Message) messageRecord {
	return messageRecord{
		ID:   message.ID.String(),
		From: message.From,
		To:   message.To,
		Text: message.Text,
		Kind: string(message.Kind),
		Time: message.Time,
		Seq:  message.Seq,
	}
}

func toMessage(record messageRecord) (domain.Message, error) {
	parsedID, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:   parsedID,
		From: record.From,
		To:   record.To,
		Text: record.Text,
		Kind: domain.Kind(record.Kind),
		Time: record.Time,
		Seq:  record.Seq,
	}, nil
}

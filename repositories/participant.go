//go:generate go run go.uber.org/mock/mockgen -source=participant.go -destination=../mocks/mock_participant_repository.go -package=mocks
package repositories

import (
	"chat-uol/codec"
	"chat-uol/domain"
	chaterrors "chat-uol/errors"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	participantPrefix   = "participant:"
	participantSequence = "seq:participants"
)

type IParticipantRepository interface {
	CreateParticipant(name string, at time.Time) (domain.Participant, error)
	GetParticipant(name string) (domain.Participant, error)
	ListParticipants() ([]domain.Participant, error)
	TouchParticipant(ctx context.Context, name string, at time.Time) error
	DeleteIfUnchanged(participant domain.Participant) (bool, error)
}

type ParticipantRepository struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

func NewParticipantRepository(db *badger.DB, log *slog.Logger) (*ParticipantRepository, error) {
	seq, err := db.GetSequence([]byte(participantSequence), 100)
	if err != nil {
		return nil, fmt.Errorf("participant sequence: %w", err)
	}
	return &ParticipantRepository{db: db, seq: seq, log: log}, nil
}

// participantRecord is the stored form. LastSeen has seconds resolution.
type participantRecord struct {
	Name     string `cbor:"name"`
	LastSeen int64  `cbor:"last_seen"`
	Order    uint64 `cbor:"order"`
}

// CreateParticipant inserts the participant if no record holds that name yet.
// The read and the write share one transaction: when two registrations of the
// same name race, Badger refuses the second commit and ErrConflict is returned.
func (r *ParticipantRepository) CreateParticipant(name string, at time.Time) (domain.Participant, error) {
	order, err := r.seq.Next()
	if err != nil {
		return domain.Participant{}, unavailable(err)
	}
	participant := domain.Participant{
		Name:     name,
		LastSeen: at.Truncate(time.Second).UTC(),
		Order:    order,
	}
	data, err := codec.Marshal(fromParticipant(participant))
	if err != nil {
		return domain.Participant{}, fmt.Errorf("marshal failed: %w", err)
	}

	key := participantKey(name)
	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return chaterrors.ErrConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	switch {
	case err == nil:
		return participant, nil
	case errors.Is(err, chaterrors.ErrConflict), errors.Is(err, badger.ErrConflict):
		return domain.Participant{}, chaterrors.ErrConflict
	default:
		return domain.Participant{}, unavailable(err)
	}
}

func (r *ParticipantRepository) GetParticipant(name string) (domain.Participant, error) {
	var participant domain.Participant
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		participant, err = readParticipant(txn, participantKey(name))
		return err
	})
	if err != nil {
		return domain.Participant{}, notFoundOrUnavailable(err)
	}
	return participant, nil
}

// ListParticipants returns every participant in the order they joined.
func (r *ParticipantRepository) ListParticipants() ([]domain.Participant, error) {
	participants := make([]domain.Participant, 0)
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(participantPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record participantRecord
				if err := codec.Unmarshal(val, &record); err != nil {
					return fmt.Errorf("failed to unmarshal participant: %w", err)
				}
				participants = append(participants, toParticipant(record))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, unavailable(err)
	}
	sort.SliceStable(participants, func(i, j int) bool {
		return participants[i].Order < participants[j].Order
	})
	return participants, nil
}

// TouchParticipant moves LastSeen forward to at. It never moves it backwards.
// A commit conflict means another writer refreshed or removed the record:
// the transaction is replayed on a fresh read until it commits or ctx is done.
func (r *ParticipantRepository) TouchParticipant(ctx context.Context, name string, at time.Time) error {
	key := participantKey(name)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := r.db.Update(func(txn *badger.Txn) error {
			participant, err := readParticipant(txn, key)
			if err != nil {
				return err
			}
			data, err := codec.Marshal(fromParticipant(participant.Touch(at)))
			if err != nil {
				return err
			}
			return txn.Set(key, data)
		})
		switch {
		case err == nil:
			return nil
		case errors.Is(err, badger.ErrConflict):
			r.log.Debug("Heartbeat write conflict, retrying", "name", name, "attempt", attempt)
		default:
			return notFoundOrUnavailable(err)
		}
	}
}

// DeleteIfUnchanged removes the participant only if its LastSeen still equals
// the value the caller read. A heartbeat landing in between keeps it alive.
func (r *ParticipantRepository) DeleteIfUnchanged(expected domain.Participant) (bool, error) {
	deleted := false
	err := r.db.Update(func(txn *badger.Txn) error {
		key := participantKey(expected.Name)
		current, err := readParticipant(txn, key)
		if err != nil {
			return err
		}
		if !current.LastSeen.Equal(expected.LastSeen) {
			return nil
		}
		deleted = true
		return txn.Delete(key)
	})
	switch {
	case err == nil:
		return deleted, nil
	case errors.Is(err, badger.ErrKeyNotFound), errors.Is(err, badger.ErrConflict):
		return false, nil
	default:
		return false, unavailable(err)
	}
}

// Close releases the leased sequence range.
func (r *ParticipantRepository) Close() error {
	return r.seq.Release()
}

func participantKey(name string) []byte {
	return []byte(participantPrefix + name)
}

func readParticipant(txn *badger.Txn, key []byte) (domain.Participant, error) {
	item, err := txn.Get(key)
	if err != nil {
		return domain.Participant{}, err
	}
	var record participantRecord
	err = item.Value(func(val []byte) error {
		return codec.Unmarshal(val, &record)
	})
	if err != nil {
		return domain.Participant{}, err
	}
	return toParticipant(record), nil
}

func fromParticipant(p domain.Participant) participantRecord {
	return participantRecord{
		Name:     p.Name,
		LastSeen: p.LastSeen.Unix(),
		Order:    p.Order,
	}
}

func toParticipant(record participantRecord) domain.Participant {
	return domain.Participant{
		Name:     record.Name,
		LastSeen: time.Unix(record.LastSeen, 0).UTC(),
		Order:    record.Order,
	}
}

func notFoundOrUnavailable(err error) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return chaterrors.ErrNotFound
	}
	return unavailable(err)
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", chaterrors.ErrStorageUnavailable, err)
}

package repositories

import (
	"chat-uol/domain"
	"fmt"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func message(from, to, text string, kind domain.Kind) domain.Message {
	return domain.Message{From: from, To: to, Text: text, Kind: kind, Time: time.Now().Format(domain.TimeLayout)}
}

func Test_Store_And_Get_Messages_In_Insertion_Order(t *testing.T) {
	req := require.New(t)
	repository := newMessageRepository(t, openTestDB(t))

	stored := []domain.Message{
		message("Alice", domain.BroadcastToken, "hello", domain.Broadcast),
		message("Bob", domain.BroadcastToken, "hi", domain.Broadcast),
		message("Clara", domain.BroadcastToken, "hey", domain.Broadcast),
	}
	for i, m := range stored {
		saved, err := repository.StoreMessage(m)
		req.NoError(err)
		req.NotEmpty(saved.ID)
		stored[i] = saved
	}

	fetched, err := repository.GetMessagesFor("Dave", 0)
	req.NoError(err)
	req.Equal(stored, fetched)
}

func Test_Get_Messages_Filters_By_Visibility(t *testing.T) {
	req := require.New(t)
	repository := newMessageRepository(t, openTestDB(t))

	for _, m := range []domain.Message{
		message("Alice", "Bob", "for bob", domain.Direct),
		message("Bob", "Alice", "for alice", domain.Direct),
		message("Clara", "Dave", "for dave", domain.Direct),
		message("Clara", domain.BroadcastToken, "for all", domain.Broadcast),
	} {
		_, err := repository.StoreMessage(m)
		req.NoError(err)
	}

	fetched, err := repository.GetMessagesFor("Alice", 0)
	req.NoError(err)

	// Alice sees what she sent, what was sent to her and the broadcast
	req.Equal([]string{"for bob", "for alice", "for all"}, lo.Map(fetched, func(m domain.Message, _ int) string {
		return m.Text
	}))
}

func Test_Get_Messages_Keeps_The_Most_Recent_Within_Limit(t *testing.T) {
	req := require.New(t)
	repository := newMessageRepository(t, openTestDB(t))

	for i := 1; i <= 12; i++ {
		_, err := repository.StoreMessage(message("Alice", domain.BroadcastToken, fmt.Sprintf("Message %d", i), domain.Broadcast))
		req.NoError(err)
	}

	fetched, err := repository.GetMessagesFor("Bob", 2)
	req.NoError(err)

	// The two newest, in their original relative order
	req.Len(fetched, 2)
	req.Equal("Message 11", fetched[0].Text)
	req.Equal("Message 12", fetched[1].Text)
	req.Less(fetched[0].Seq, fetched[1].Seq)
}

func Test_Get_Messages_Limit_Counts_Only_Visible_Messages(t *testing.T) {
	req := require.New(t)
	repository := newMessageRepository(t, openTestDB(t))

	_, err := repository.StoreMessage(message("Alice", "Bob", "visible", domain.Direct))
	req.NoError(err)
	for i := 0; i < 5; i++ {
		_, err = repository.StoreMessage(message("Clara", "Dave", "hidden", domain.Direct))
		req.NoError(err)
	}

	fetched, err := repository.GetMessagesFor("Bob", 1)
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("visible", fetched[0].Text)
}

func Test_Get_Messages_Empty_Store(t *testing.T) {
	req := require.New(t)
	repository := newMessageRepository(t, openTestDB(t))

	fetched, err := repository.GetMessagesFor("Alice", 10)
	req.NoError(err)
	req.Empty(fetched)
	req.NotNil(fetched)
}

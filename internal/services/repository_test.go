package services

import (
	"context"
	"testing"

	"github.com/shockz09/uni-cli-sub002/internal/gmail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail_v1 "google.golang.org/api/gmail/v1"
)

func TestNewMessageRepository(t *testing.T) {
	client := &gmail.Client{}
	repo := NewMessageRepository(client)
	require.NotNil(t, repo)
	assert.Equal(t, client, repo.client)

	assert.NotNil(t, NewMessageRepository(nil))
}

func TestMessageRepository_RejectsBlankIDs(t *testing.T) {
	repo := NewMessageRepository(&gmail.Client{})
	ctx := context.Background()

	for _, id := range []string{"", "   ", "\t", "\n"} {
		msg, err := repo.GetMessage(ctx, id)
		assert.Nil(t, msg)
		assert.ErrorIs(t, err, ErrInvalidMessageID)
		assert.Contains(t, err.Error(), "message ID cannot be empty")

		err = repo.UpdateMessage(ctx, id, MessageUpdates{})
		assert.ErrorIs(t, err, ErrInvalidMessageID)

		draft, err := repo.GetDraft(ctx, id)
		assert.Nil(t, draft)
		assert.ErrorIs(t, err, ErrInvalidMessageID)
		assert.Contains(t, err.Error(), "draft ID cannot be empty")
	}
}

func TestMessageRepository_RejectsBlankQuery(t *testing.T) {
	repo := NewMessageRepository(&gmail.Client{})

	for _, query := range []string{"", "  ", "\t\n"} {
		page, err := repo.SearchMessages(context.Background(), query, QueryOptions{MaxResults: 10})
		assert.Nil(t, page)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), "search query cannot be empty")
	}
}

// Validation must run before the Gmail client is touched, so bad input
// cannot panic even when the repository was built with a nil client.
func TestMessageRepository_ValidatesBeforeClientUse(t *testing.T) {
	repo := NewMessageRepository(nil)
	ctx := context.Background()

	_, err := repo.GetMessage(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidMessageID)

	_, err = repo.SearchMessages(ctx, "", QueryOptions{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = repo.UpdateMessage(ctx, "", MessageUpdates{})
	assert.ErrorIs(t, err, ErrInvalidMessageID)

	_, err = repo.GetDraft(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidMessageID)
}

// An update with no label changes and no read-state change is a no-op
// and must not call Gmail at all.
func TestMessageRepository_UpdateMessage_NoChangesIsNoop(t *testing.T) {
	repo := NewMessageRepository(nil)

	err := repo.UpdateMessage(context.Background(), "msg-1", MessageUpdates{})
	assert.NoError(t, err)
}

// Client failures surface with enough context to tell which change
// inside the update failed.
func TestMessageRepository_UpdateMessage_ErrorContext(t *testing.T) {
	repo := NewMessageRepository(gmail.NewClient(nil))
	ctx := context.Background()

	t.Run("mark_as_read", func(t *testing.T) {
		read := true
		err := repo.UpdateMessage(ctx, "msg-1", MessageUpdates{MarkAsRead: &read})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mark message as read")
	})

	t.Run("mark_as_unread", func(t *testing.T) {
		read := false
		err := repo.UpdateMessage(ctx, "msg-1", MessageUpdates{MarkAsRead: &read})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mark message as unread")
	})

	t.Run("apply_label", func(t *testing.T) {
		err := repo.UpdateMessage(ctx, "msg-1", MessageUpdates{AddLabels: []string{"Label_7"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to apply label Label_7")
	})

	t.Run("remove_label", func(t *testing.T) {
		err := repo.UpdateMessage(ctx, "msg-1", MessageUpdates{RemoveLabels: []string{"Label_7"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to remove label Label_7")
	})
}

func TestPageOf(t *testing.T) {
	messages := []*gmail_v1.Message{{Id: "a"}, {Id: "b"}}

	page := pageOf(messages, "tok-2")
	require.NotNil(t, page)
	assert.Equal(t, messages, page.Messages)
	assert.Equal(t, "tok-2", page.NextPageToken)
	assert.Equal(t, 2, page.TotalCount)

	empty := pageOf(nil, "")
	assert.Empty(t, empty.Messages)
	assert.Zero(t, empty.TotalCount)
}

func BenchmarkMessageRepository_Validation(b *testing.B) {
	repo := NewMessageRepository(&gmail.Client{})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = repo.GetMessage(ctx, "")
	}
}

package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shockz09/uni-cli-sub002/internal/db"
	"github.com/shockz09/uni-cli-sub002/internal/gmail"
	"github.com/shockz09/uni-cli-sub002/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	gmail_v1 "google.golang.org/api/gmail/v1"
)

// MockEmailRepository is a testify mock of MessageRepository.
type MockEmailRepository struct {
	mock.Mock
}

func (m *MockEmailRepository) GetMessages(ctx context.Context, opts QueryOptions) (*MessagePage, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MessagePage), args.Error(1)
}

func (m *MockEmailRepository) GetMessage(ctx context.Context, id string) (*gmail.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gmail.Message), args.Error(1)
}

func (m *MockEmailRepository) SearchMessages(ctx context.Context, query string, opts QueryOptions) (*MessagePage, error) {
	args := m.Called(ctx, query, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MessagePage), args.Error(1)
}

func (m *MockEmailRepository) UpdateMessage(ctx context.Context, id string, updates MessageUpdates) error {
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}

func (m *MockEmailRepository) GetDrafts(ctx context.Context, maxResults int64) ([]*gmail_v1.Draft, error) {
	args := m.Called(ctx, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*gmail_v1.Draft), args.Error(1)
}

func (m *MockEmailRepository) GetDraft(ctx context.Context, draftID string) (*gmail.Message, error) {
	args := m.Called(ctx, draftID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gmail.Message), args.Error(1)
}

func TestNewEmailService(t *testing.T) {
	repo := &MockEmailRepository{}
	renderer := render.NewEmailRenderer()

	service := NewEmailService(repo, nil, renderer)

	assert.NotNil(t, service)
	assert.Equal(t, repo, service.repo)
	assert.Equal(t, renderer, service.renderer)
	assert.Nil(t, service.cache)
}

func TestEmailServiceImpl_ListInbox(t *testing.T) {
	ctx := context.Background()
	repo := &MockEmailRepository{}
	service := NewEmailService(repo, nil, nil)

	page := &MessagePage{
		Messages:      []*gmail_v1.Message{{Id: "msg1"}, {Id: "msg2"}},
		NextPageToken: "next",
		TotalCount:    2,
	}
	opts := QueryOptions{MaxResults: 25}
	repo.On("GetMessages", ctx, opts).Return(page, nil)

	got, err := service.ListInbox(ctx, opts)

	assert.NoError(t, err)
	assert.Equal(t, page, got)
	repo.AssertExpectations(t)
}

func TestEmailServiceImpl_ListInbox_RepoError(t *testing.T) {
	ctx := context.Background()
	repo := &MockEmailRepository{}
	service := NewEmailService(repo, nil, nil)

	repo.On("GetMessages", ctx, mock.Anything).Return(nil, errors.New("network down"))

	got, err := service.ListInbox(ctx, QueryOptions{})

	assert.Error(t, err)
	assert.Nil(t, got)
	assert.Contains(t, err.Error(), "failed to list inbox")
}

func TestEmailServiceImpl_SearchMessages(t *testing.T) {
	ctx := context.Background()
	repo := &MockEmailRepository{}
	service := NewEmailService(repo, nil, nil)

	t.Run("empty_query", func(t *testing.T) {
		got, err := service.SearchMessages(ctx, "", QueryOptions{})
		assert.Error(t, err)
		assert.Nil(t, got)
		assert.Contains(t, err.Error(), "search query cannot be empty")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("whitespace_query", func(t *testing.T) {
		got, err := service.SearchMessages(ctx, "   ", QueryOptions{})
		assert.Error(t, err)
		assert.Nil(t, got)
		assert.Contains(t, err.Error(), "search query cannot be empty")
	})

	t.Run("success", func(t *testing.T) {
		page := &MessagePage{Messages: []*gmail_v1.Message{{Id: "msg1"}}, TotalCount: 1}
		repo.On("SearchMessages", ctx, "from:alice", QueryOptions{MaxResults: 10}).Return(page, nil)

		got, err := service.SearchMessages(ctx, "from:alice", QueryOptions{MaxResults: 10})

		assert.NoError(t, err)
		assert.Equal(t, page, got)
		repo.AssertExpectations(t)
	})
}

func TestEmailServiceImpl_GetMessageContent(t *testing.T) {
	ctx := context.Background()

	t.Run("empty_message_id", func(t *testing.T) {
		service := NewEmailService(&MockEmailRepository{}, nil, nil)

		got, err := service.GetMessageContent(ctx, "")
		assert.Error(t, err)
		assert.Nil(t, got)
		assert.Contains(t, err.Error(), "message ID cannot be empty")
		assert.ErrorIs(t, err, ErrInvalidMessageID)
	})

	t.Run("no_cache_fetches_from_repo", func(t *testing.T) {
		repo := &MockEmailRepository{}
		service := NewEmailService(repo, nil, nil)

		msg := &gmail.Message{PlainText: "hello", Subject: "Test"}
		repo.On("GetMessage", ctx, "msg123").Return(msg, nil)

		got, err := service.GetMessageContent(ctx, "msg123")

		assert.NoError(t, err)
		assert.Equal(t, msg, got)
		repo.AssertExpectations(t)
	})

	t.Run("repo_error_propagates", func(t *testing.T) {
		repo := &MockEmailRepository{}
		service := NewEmailService(repo, nil, nil)

		repo.On("GetMessage", ctx, "msg123").Return(nil, errors.New("not found"))

		got, err := service.GetMessageContent(ctx, "msg123")

		assert.Error(t, err)
		assert.Nil(t, got)
	})

	// A configured cache with an uninitialized client must fall back to a
	// full fetch instead of failing the read
	t.Run("cache_lookup_failure_falls_back", func(t *testing.T) {
		repo := &MockEmailRepository{}
		service := NewEmailService(repo, gmail.NewClient(nil), nil)
		service.SetCacheStore(&db.CacheStore{})

		msg := &gmail.Message{PlainText: "hello"}
		repo.On("GetMessage", ctx, "msg123").Return(msg, nil)

		got, err := service.GetMessageContent(ctx, "msg123")

		assert.NoError(t, err)
		assert.Equal(t, msg, got)
		repo.AssertExpectations(t)
	})
}

func TestEmailServiceImpl_GetMessageWithHTML(t *testing.T) {
	ctx := context.Background()
	repo := &MockEmailRepository{}
	service := NewEmailService(repo, nil, nil)

	t.Run("empty_message_id", func(t *testing.T) {
		got, err := service.GetMessageWithHTML(ctx, "")
		assert.Error(t, err)
		assert.Nil(t, got)
		assert.Contains(t, err.Error(), "message ID cannot be empty")
	})

	t.Run("always_full_fetch", func(t *testing.T) {
		msg := &gmail.Message{PlainText: "body", HTML: "<p>body</p>"}
		repo.On("GetMessage", ctx, "msg123").Return(msg, nil)

		got, err := service.GetMessageWithHTML(ctx, "msg123")

		assert.NoError(t, err)
		assert.Equal(t, "<p>body</p>", got.HTML)
		repo.AssertExpectations(t)
	})
}

func TestEmailServiceImpl_GetThreadMessages_Validation(t *testing.T) {
	ctx := context.Background()
	service := NewEmailService(&MockEmailRepository{}, nil, nil)

	got, err := service.GetThreadMessages(ctx, "")

	assert.Error(t, err)
	assert.Nil(t, got)
	assert.Contains(t, err.Error(), "thread ID cannot be empty")
}

func TestEmailServiceImpl_MarkAsRead(t *testing.T) {
	ctx := context.Background()

	t.Run("empty_message_id", func(t *testing.T) {
		service := NewEmailService(&MockEmailRepository{}, nil, nil)

		err := service.MarkAsRead(ctx, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "message ID cannot be empty")
	})

	t.Run("sets_read_through_repository", func(t *testing.T) {
		repo := &MockEmailRepository{}
		service := NewEmailService(repo, nil, nil)

		read := true
		repo.On("UpdateMessage", ctx, "msg123", MessageUpdates{MarkAsRead: &read}).Return(nil)

		err := service.MarkAsRead(ctx, "msg123")

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestEmailServiceImpl_MarkAsUnread(t *testing.T) {
	ctx := context.Background()

	t.Run("empty_message_id", func(t *testing.T) {
		service := NewEmailService(&MockEmailRepository{}, nil, nil)

		err := service.MarkAsUnread(ctx, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "message ID cannot be empty")
	})

	t.Run("sets_unread_through_repository", func(t *testing.T) {
		repo := &MockEmailRepository{}
		service := NewEmailService(repo, nil, nil)

		read := false
		repo.On("UpdateMessage", ctx, "msg123", MessageUpdates{MarkAsRead: &read}).Return(nil)

		err := service.MarkAsUnread(ctx, "msg123")

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestEmailServiceImpl_ArchiveMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("empty_message_id", func(t *testing.T) {
		service := NewEmailService(&MockEmailRepository{}, nil, nil)

		err := service.ArchiveMessage(ctx, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "message ID cannot be empty")
	})

	t.Run("goes_through_the_client", func(t *testing.T) {
		service := NewEmailService(&MockEmailRepository{}, gmail.NewClient(nil), nil)

		err := service.ArchiveMessage(ctx, "msg123")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "gmail service not initialized")
	})
}

func TestEmailServiceImpl_TrashMessage_Validation(t *testing.T) {
	ctx := context.Background()
	service := NewEmailService(&MockEmailRepository{}, nil, nil)

	err := service.TrashMessage(ctx, "")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "message ID cannot be empty")
}

func TestEmailServiceImpl_BulkMarkAsRead(t *testing.T) {
	ctx := context.Background()

	t.Run("no_message_ids", func(t *testing.T) {
		service := NewEmailService(&MockEmailRepository{}, nil, nil)

		err := service.BulkMarkAsRead(ctx, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "message ID list is empty")
	})

	t.Run("updates_every_message", func(t *testing.T) {
		repo := &MockEmailRepository{}
		service := NewEmailService(repo, nil, nil)

		read := true
		updates := MessageUpdates{MarkAsRead: &read}
		repo.On("UpdateMessage", ctx, "msg1", updates).Return(nil)
		repo.On("UpdateMessage", ctx, "msg2", updates).Return(nil)

		err := service.BulkMarkAsRead(ctx, []string{"msg1", "msg2"})

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("partial_failure_reports_failed_ids", func(t *testing.T) {
		repo := &MockEmailRepository{}
		service := NewEmailService(repo, nil, nil)

		read := true
		updates := MessageUpdates{MarkAsRead: &read}
		repo.On("UpdateMessage", ctx, "msg1", updates).Return(nil)
		repo.On("UpdateMessage", ctx, "msg2", updates).Return(errors.New("boom"))
		repo.On("UpdateMessage", ctx, "msg3", updates).Return(nil)

		err := service.BulkMarkAsRead(ctx, []string{"msg1", "msg2", "msg3"})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "bulk mark as read failed for 1 of 3 messages")
		assert.Contains(t, err.Error(), "msg2")
		repo.AssertNumberOfCalls(t, "UpdateMessage", 3)
	})
}

func TestEmailServiceImpl_BulkArchive(t *testing.T) {
	ctx := context.Background()

	t.Run("no_message_ids", func(t *testing.T) {
		service := NewEmailService(&MockEmailRepository{}, nil, nil)

		err := service.BulkArchive(ctx, []string{})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "message ID list is empty")
	})

	t.Run("keeps_going_after_failures", func(t *testing.T) {
		service := NewEmailService(&MockEmailRepository{}, gmail.NewClient(nil), nil)

		err := service.BulkArchive(ctx, []string{"msg1", "msg2"})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "bulk archive failed for 2 of 2 messages")
		assert.Contains(t, err.Error(), "msg1")
		assert.Contains(t, err.Error(), "msg2")
	})
}

func TestEmailServiceImpl_BulkTrash_Validation(t *testing.T) {
	ctx := context.Background()
	service := NewEmailService(&MockEmailRepository{}, nil, nil)

	err := service.BulkTrash(ctx, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "message ID list is empty")
}

func TestEmailServiceImpl_SendMessage_Validation(t *testing.T) {
	ctx := context.Background()
	service := NewEmailService(&MockEmailRepository{}, nil, nil)

	tests := []struct {
		name    string
		to      string
		subject string
		body    string
	}{
		{name: "empty_to", to: "", subject: "Hi", body: "Hello"},
		{name: "empty_subject", to: "a@b.com", subject: "", body: "Hello"},
		{name: "empty_body", to: "a@b.com", subject: "Hi", body: ""},
		{name: "all_empty", to: "", subject: "", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.SendMessage(ctx, "me@example.com", tt.to, tt.subject, tt.body, nil)

			assert.Error(t, err)
			assert.Contains(t, err.Error(), "recipient, subject and body cannot be empty")
		})
	}
}

func TestEmailServiceImpl_ReplyToMessage_Validation(t *testing.T) {
	ctx := context.Background()
	service := NewEmailService(&MockEmailRepository{}, nil, nil)

	t.Run("empty_original_id", func(t *testing.T) {
		err := service.ReplyToMessage(ctx, "", "thanks", true, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "original message ID and reply body cannot be empty")
	})

	t.Run("empty_reply_body", func(t *testing.T) {
		err := service.ReplyToMessage(ctx, "msg123", "", false, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "original message ID and reply body cannot be empty")
	})
}

func TestEmailServiceImpl_CreateDraft_Validation(t *testing.T) {
	ctx := context.Background()
	service := NewEmailService(&MockEmailRepository{}, nil, nil)

	draftID, err := service.CreateDraft(ctx, "", "subject", "body", nil)

	assert.Error(t, err)
	assert.Empty(t, draftID)
	assert.Contains(t, err.Error(), "recipient cannot be empty")
}

func TestEmailServiceImpl_SaveMessageToFile(t *testing.T) {
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		service := NewEmailService(&MockEmailRepository{}, nil, nil)

		err := service.SaveMessageToFile(ctx, "", "/tmp/out.txt")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "message ID and file path cannot be empty")

		err = service.SaveMessageToFile(ctx, "msg123", "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "message ID and file path cannot be empty")
	})

	t.Run("writes_header_and_body", func(t *testing.T) {
		repo := &MockEmailRepository{}
		service := NewEmailService(repo, nil, render.NewEmailRenderer())

		msg := &gmail.Message{
			PlainText: "the resolved body",
			Subject:   "Quarterly report",
			From:      "alice@example.com",
			To:        "bob@example.com",
			Date:      time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
			Labels:    []string{"Inbox"},
		}
		repo.On("GetMessage", ctx, "msg123").Return(msg, nil)

		path := filepath.Join(t.TempDir(), "nested", "out.txt")
		err := service.SaveMessageToFile(ctx, "msg123", path)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		content := string(data)
		assert.Contains(t, content, "Subject: Quarterly report")
		assert.Contains(t, content, "From: alice@example.com")
		assert.Contains(t, content, "the resolved body")
	})
}

// Benchmark tests for validation-heavy paths
func BenchmarkEmailService_MarkAsRead_ValidationOnly(b *testing.B) {
	ctx := context.Background()
	service := NewEmailService(&MockEmailRepository{}, nil, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = service.MarkAsRead(ctx, "")
	}
}

func BenchmarkEmailService_SendMessage_ValidationOnly(b *testing.B) {
	ctx := context.Background()
	service := NewEmailService(&MockEmailRepository{}, nil, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = service.SendMessage(ctx, "me@example.com", "", "", "", nil)
	}
}

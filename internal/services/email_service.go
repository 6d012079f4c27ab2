package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shockz09/uni-cli-sub002/internal/db"
	"github.com/shockz09/uni-cli-sub002/internal/gmail"
	"github.com/shockz09/uni-cli-sub002/internal/render"
)

// EmailServiceImpl implements EmailService. Reads and read-state
// updates go through the message repository; archive, trash and
// compose write through the Gmail client directly.
type EmailServiceImpl struct {
	repo     MessageRepository
	client   *gmail.Client
	renderer *render.EmailRenderer
	cache    *db.CacheStore // optional read-through body cache
	logger   *log.Logger    // optional debug logging
}

// NewEmailService builds the service over its three collaborators.
// The cache store and logger are attached separately when configured.
func NewEmailService(repo MessageRepository, client *gmail.Client, renderer *render.EmailRenderer) *EmailServiceImpl {
	return &EmailServiceImpl{repo: repo, client: client, renderer: renderer}
}

// SetCacheStore enables the message body cache. Called after
// initialization so the service also works without a local store.
func (s *EmailServiceImpl) SetCacheStore(cache *db.CacheStore) { s.cache = cache }

// SetLogger enables debug logging for cache activity.
func (s *EmailServiceImpl) SetLogger(logger *log.Logger) { s.logger = logger }

// requireMessageID rejects blank message IDs before any API call
func requireMessageID(messageID string) error {
	if strings.TrimSpace(messageID) == "" {
		return fmt.Errorf("%w: message ID cannot be empty", ErrInvalidMessageID)
	}
	return nil
}

func (s *EmailServiceImpl) ListInbox(ctx context.Context, opts QueryOptions) (*MessagePage, error) {
	page, err := s.repo.GetMessages(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}
	return page, nil
}

func (s *EmailServiceImpl) SearchMessages(ctx context.Context, query string, opts QueryOptions) (*MessagePage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query cannot be empty", ErrInvalidInput)
	}
	return s.repo.SearchMessages(ctx, query, opts)
}

// GetMessageContent returns a message with its body resolved to plain text.
// When a cache store is configured, previously resolved bodies are served from
// it and only the message metadata is fetched from the API.
func (s *EmailServiceImpl) GetMessageContent(ctx context.Context, messageID string) (*gmail.Message, error) {
	if err := requireMessageID(messageID); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if msg, ok := s.cachedMessage(ctx, messageID); ok {
			return msg, nil
		}
	}

	msg, err := s.repo.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && msg.PlainText != "" {
		if account, aerr := s.client.ActiveAccountEmail(ctx); aerr == nil {
			if serr := s.cache.SaveMessageBody(ctx, account, messageID, msg.PlainText, time.Now().Unix()); serr != nil && s.logger != nil {
				s.logger.Printf("failed to cache body for message %s: %v", messageID, serr)
			}
		}
	}

	return msg, nil
}

// cachedMessage assembles a message from cached body plus fresh metadata.
// Any failure along the way falls back to a full fetch.
func (s *EmailServiceImpl) cachedMessage(ctx context.Context, messageID string) (*gmail.Message, bool) {
	account, err := s.client.ActiveAccountEmail(ctx)
	if err != nil {
		return nil, false
	}

	body, found, err := s.cache.LoadMessageBody(ctx, account, messageID)
	if err != nil || !found {
		return nil, false
	}

	msg, err := s.client.GetMessageMetadata(messageID)
	if err != nil {
		return nil, false
	}

	msg.PlainText = body
	if s.logger != nil {
		s.logger.Printf("message %s body served from cache", messageID)
	}
	return msg, true
}

// GetMessageWithHTML always fetches the full message so the raw HTML part is
// available alongside the resolved plain text.
func (s *EmailServiceImpl) GetMessageWithHTML(ctx context.Context, messageID string) (*gmail.Message, error) {
	if err := requireMessageID(messageID); err != nil {
		return nil, err
	}
	return s.repo.GetMessage(ctx, messageID)
}

func (s *EmailServiceImpl) GetThreadMessages(ctx context.Context, threadID string) ([]*gmail.Message, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, fmt.Errorf("%w: thread ID cannot be empty", ErrInvalidInput)
	}

	messages, err := s.client.GetThreadMessages(threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to get thread %s: %w", threadID, err)
	}
	return messages, nil
}

// Read state goes through the repository's update operation; archiving
// and trashing use the dedicated client calls.

func (s *EmailServiceImpl) MarkAsRead(ctx context.Context, messageID string) error {
	return s.setRead(ctx, messageID, true)
}

func (s *EmailServiceImpl) MarkAsUnread(ctx context.Context, messageID string) error {
	return s.setRead(ctx, messageID, false)
}

func (s *EmailServiceImpl) setRead(ctx context.Context, messageID string, read bool) error {
	if err := requireMessageID(messageID); err != nil {
		return err
	}
	return s.repo.UpdateMessage(ctx, messageID, MessageUpdates{MarkAsRead: &read})
}

func (s *EmailServiceImpl) ArchiveMessage(ctx context.Context, messageID string) error {
	if err := requireMessageID(messageID); err != nil {
		return err
	}
	return s.client.ArchiveMessage(messageID)
}

func (s *EmailServiceImpl) TrashMessage(ctx context.Context, messageID string) error {
	if err := requireMessageID(messageID); err != nil {
		return err
	}
	return s.client.TrashMessage(messageID)
}

// BulkMarkAsRead marks every listed message as read.
func (s *EmailServiceImpl) BulkMarkAsRead(ctx context.Context, messageIDs []string) error {
	return s.eachMessage("mark as read", messageIDs, func(id string) error {
		return s.setRead(ctx, id, true)
	})
}

// BulkMarkAsUnread marks every listed message as unread.
func (s *EmailServiceImpl) BulkMarkAsUnread(ctx context.Context, messageIDs []string) error {
	return s.eachMessage("mark as unread", messageIDs, func(id string) error {
		return s.setRead(ctx, id, false)
	})
}

// BulkArchive removes every listed message from the inbox.
func (s *EmailServiceImpl) BulkArchive(ctx context.Context, messageIDs []string) error {
	return s.eachMessage("archive", messageIDs, s.client.ArchiveMessage)
}

// BulkTrash moves every listed message to the trash.
func (s *EmailServiceImpl) BulkTrash(ctx context.Context, messageIDs []string) error {
	return s.eachMessage("trash", messageIDs, s.client.TrashMessage)
}

// eachMessage runs op over every message and collects failures, so
// one bad ID does not abort the rest of the batch.
func (s *EmailServiceImpl) eachMessage(verb string, messageIDs []string, op func(messageID string) error) error {
	if len(messageIDs) == 0 {
		return fmt.Errorf("%w: message ID list is empty", ErrInvalidInput)
	}

	var failures []string
	for _, id := range messageIDs {
		if err := op(id); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", id, err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("bulk %s failed for %d of %d messages: %s",
			verb, len(failures), len(messageIDs), strings.Join(failures, "; "))
	}
	return nil
}

func (s *EmailServiceImpl) SendMessage(ctx context.Context, from, to, subject, body string, cc []string) error {
	if anyBlank(to, subject, body) {
		return fmt.Errorf("%w: recipient, subject and body cannot be empty", ErrInvalidInput)
	}

	_, err := s.client.SendMessage(from, to, subject, body, cc)
	return err
}

func (s *EmailServiceImpl) ReplyToMessage(ctx context.Context, originalID, replyBody string, send bool, cc []string) error {
	if anyBlank(originalID, replyBody) {
		return fmt.Errorf("%w: original message ID and reply body cannot be empty", ErrInvalidInput)
	}

	_, err := s.client.ReplyMessage(originalID, replyBody, send, cc)
	return err
}

func (s *EmailServiceImpl) CreateDraft(ctx context.Context, to, subject, body string, cc []string) (string, error) {
	if strings.TrimSpace(to) == "" {
		return "", fmt.Errorf("%w: recipient cannot be empty", ErrInvalidInput)
	}

	draftID, err := s.client.CreateDraft(to, subject, body, cc)
	if err != nil {
		return "", fmt.Errorf("failed to create draft: %w", err)
	}
	return draftID, nil
}

// SaveMessageToFile writes the rendered header and resolved body to disk.
func (s *EmailServiceImpl) SaveMessageToFile(ctx context.Context, messageID, filePath string) error {
	if anyBlank(messageID, filePath) {
		return fmt.Errorf("%w: message ID and file path cannot be empty", ErrInvalidInput)
	}

	msg, err := s.GetMessageContent(ctx, messageID)
	if err != nil {
		return fmt.Errorf("could not resolve message %s: %w", messageID, err)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("could not create directory: %w", err)
	}

	header := s.renderer.FormatHeaderPlain(msg.Subject, msg.From, msg.To, msg.Cc, msg.Date, msg.Labels)
	content := header + "\n\n" + msg.PlainText
	if err := os.WriteFile(filePath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("could not write %s: %w", filePath, err)
	}
	return nil
}

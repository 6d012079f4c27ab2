package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shockz09/uni-cli-sub002/internal/gmail"
	gmail_v1 "google.golang.org/api/gmail/v1"
)

// MessageRepositoryImpl implements MessageRepository against the Gmail
// client. It adds input validation and error context; business rules
// live in the services above it.
type MessageRepositoryImpl struct {
	client *gmail.Client
}

// NewMessageRepository wraps the Gmail client behind MessageRepository.
func NewMessageRepository(client *gmail.Client) *MessageRepositoryImpl {
	return &MessageRepositoryImpl{client: client}
}

func pageOf(messages []*gmail_v1.Message, nextToken string) *MessagePage {
	return &MessagePage{
		Messages:      messages,
		NextPageToken: nextToken,
		TotalCount:    len(messages),
	}
}

// GetMessages lists inbox messages one page at a time.
func (r *MessageRepositoryImpl) GetMessages(ctx context.Context, opts QueryOptions) (*MessagePage, error) {
	messages, nextToken, err := r.client.ListMessagesPage(opts.MaxResults, opts.PageToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", wrapAPIError(err, ErrNotFound))
	}
	return pageOf(messages, nextToken), nil
}

// GetMessage fetches a message with its full content.
func (r *MessageRepositoryImpl) GetMessage(ctx context.Context, id string) (*gmail.Message, error) {
	if err := requireMessageID(id); err != nil {
		return nil, err
	}

	msg, err := r.client.GetMessageWithContent(id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message %s: %w", id, wrapAPIError(err, ErrMessageNotFound))
	}
	return msg, nil
}

// SearchMessages runs a Gmail query one page at a time.
func (r *MessageRepositoryImpl) SearchMessages(ctx context.Context, query string, opts QueryOptions) (*MessagePage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query cannot be empty", ErrInvalidInput)
	}
	messages, nextToken, err := r.client.SearchMessagesPage(query, opts.MaxResults, opts.PageToken)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", wrapAPIError(err, ErrNotFound))
	}
	return pageOf(messages, nextToken), nil
}

// UpdateMessage applies label and read-state changes in order. The
// first failure aborts the remaining changes.
func (r *MessageRepositoryImpl) UpdateMessage(ctx context.Context, id string, updates MessageUpdates) error {
	if err := requireMessageID(id); err != nil {
		return err
	}

	for _, labelID := range updates.AddLabels {
		if err := r.client.ApplyLabel(id, labelID); err != nil {
			return fmt.Errorf("failed to apply label %s to %s: %w", labelID, id, wrapAPIError(err, ErrMessageNotFound))
		}
	}
	for _, labelID := range updates.RemoveLabels {
		if err := r.client.RemoveLabel(id, labelID); err != nil {
			return fmt.Errorf("failed to remove label %s from %s: %w", labelID, id, wrapAPIError(err, ErrMessageNotFound))
		}
	}

	if updates.MarkAsRead == nil {
		return nil
	}
	if *updates.MarkAsRead {
		if err := r.client.MarkAsRead(id); err != nil {
			return fmt.Errorf("failed to mark message as read: %w", wrapAPIError(err, ErrMessageNotFound))
		}
		return nil
	}
	if err := r.client.MarkAsUnread(id); err != nil {
		return fmt.Errorf("failed to mark message as unread: %w", wrapAPIError(err, ErrMessageNotFound))
	}
	return nil
}

// GetDrafts lists up to maxResults drafts.
func (r *MessageRepositoryImpl) GetDrafts(ctx context.Context, maxResults int64) ([]*gmail_v1.Draft, error) {
	drafts, err := r.client.ListDrafts(maxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", wrapAPIError(err, ErrNotFound))
	}
	return drafts, nil
}

// GetDraft fetches one draft with its message content resolved.
func (r *MessageRepositoryImpl) GetDraft(ctx context.Context, draftID string) (*gmail.Message, error) {
	if strings.TrimSpace(draftID) == "" {
		return nil, fmt.Errorf("%w: draft ID cannot be empty", ErrInvalidMessageID)
	}

	draft, err := r.client.GetDraft(draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch draft %s: %w", draftID, wrapAPIError(err, ErrNotFound))
	}
	return draft, nil
}

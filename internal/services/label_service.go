package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shockz09/uni-cli-sub002/internal/gmail"
	gmail_v1 "google.golang.org/api/gmail/v1"
)

// LabelServiceImpl implements LabelService on the Gmail client.
type LabelServiceImpl struct {
	client *gmail.Client
}

// NewLabelService wraps the Gmail client with label operations.
func NewLabelService(client *gmail.Client) *LabelServiceImpl {
	return &LabelServiceImpl{client: client}
}

// requireLabelID rejects blank label IDs before any API call
func requireLabelID(labelID string) error {
	if strings.TrimSpace(labelID) == "" {
		return fmt.Errorf("%w: label ID cannot be empty", ErrInvalidLabelID)
	}
	return nil
}

// ListLabels returns every label defined on the account.
func (s *LabelServiceImpl) ListLabels(ctx context.Context) ([]*gmail_v1.Label, error) {
	labels, err := s.client.ListLabels()
	if err != nil {
		return nil, fmt.Errorf("could not list labels: %w", err)
	}
	return labels, nil
}

// CreateLabel creates a user label with the given name.
func (s *LabelServiceImpl) CreateLabel(ctx context.Context, name string) (*gmail_v1.Label, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: label name cannot be empty", ErrInvalidInput)
	}

	label, err := s.client.CreateLabel(name)
	if err != nil {
		return nil, fmt.Errorf("could not create label %q: %w", name, err)
	}
	return label, nil
}

// RenameLabel changes the display name of an existing label.
func (s *LabelServiceImpl) RenameLabel(ctx context.Context, labelID, newName string) (*gmail_v1.Label, error) {
	if anyBlank(labelID, newName) {
		return nil, fmt.Errorf("%w: label ID and new name cannot be empty", ErrInvalidInput)
	}

	label, err := s.client.RenameLabel(labelID, newName)
	if err != nil {
		return nil, fmt.Errorf("could not rename label %s: %w", labelID, err)
	}
	return label, nil
}

// DeleteLabel removes a user label. Messages keep their other labels.
func (s *LabelServiceImpl) DeleteLabel(ctx context.Context, labelID string) error {
	if err := requireLabelID(labelID); err != nil {
		return err
	}
	if err := s.client.DeleteLabel(labelID); err != nil {
		return fmt.Errorf("could not delete label %s: %w", labelID, err)
	}
	return nil
}

// ApplyLabel adds a label to one message.
func (s *LabelServiceImpl) ApplyLabel(ctx context.Context, messageID, labelID string) error {
	return s.oneLabelOp(messageID, labelID, "apply", s.client.ApplyLabel)
}

// RemoveLabel removes a label from one message.
func (s *LabelServiceImpl) RemoveLabel(ctx context.Context, messageID, labelID string) error {
	return s.oneLabelOp(messageID, labelID, "remove", s.client.RemoveLabel)
}

// oneLabelOp validates and runs a label change on a single message.
func (s *LabelServiceImpl) oneLabelOp(messageID, labelID, verb string, op func(messageID, labelID string) error) error {
	if anyBlank(messageID, labelID) {
		return fmt.Errorf("%w: message ID and label ID cannot be empty", ErrInvalidInput)
	}
	if err := op(messageID, labelID); err != nil {
		return fmt.Errorf("failed to %s label: %w", verb, err)
	}
	return nil
}

// GetMessageLabels returns the label names attached to a message.
func (s *LabelServiceImpl) GetMessageLabels(ctx context.Context, messageID string) ([]string, error) {
	if err := requireMessageID(messageID); err != nil {
		return nil, err
	}

	msg, err := s.client.GetMessageMetadata(messageID)
	if err != nil {
		return nil, fmt.Errorf("could not load labels for message %s: %w", messageID, err)
	}
	return msg.Labels, nil
}

// BulkApplyLabel adds a label to every listed message.
func (s *LabelServiceImpl) BulkApplyLabel(ctx context.Context, messageIDs []string, labelID string) error {
	return s.bulkLabelOp(messageIDs, labelID, "apply", s.client.ApplyLabel)
}

// BulkRemoveLabel removes a label from every listed message.
func (s *LabelServiceImpl) BulkRemoveLabel(ctx context.Context, messageIDs []string, labelID string) error {
	return s.bulkLabelOp(messageIDs, labelID, "remove", s.client.RemoveLabel)
}

// bulkLabelOp runs op over every message and collects failures, so
// one bad ID does not abort the rest of the batch.
func (s *LabelServiceImpl) bulkLabelOp(messageIDs []string, labelID, verb string, op func(messageID, labelID string) error) error {
	if len(messageIDs) == 0 {
		return fmt.Errorf("%w: message ID list is empty", ErrInvalidInput)
	}
	if err := requireLabelID(labelID); err != nil {
		return err
	}

	var failures []string
	for _, id := range messageIDs {
		if err := op(id, labelID); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", id, err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("bulk %s label failed for %d of %d messages: %s",
			verb, len(failures), len(messageIDs), strings.Join(failures, "; "))
	}
	return nil
}

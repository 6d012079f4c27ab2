package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/gmail/v1"
)

// gmailUser is the special user ID the API accepts for the
// authenticated account.
const gmailUser = "me"

// Worker pool sizing for batch message fetches. Zero or negative picks
// the default; anything above the cap is clamped.
const (
	defaultFetchWorkers = 10
	maxFetchWorkers     = 15
)

// Client wraps the gmail.Service with the operations the mail commands
// need. Construct it once and share it; the only mutable state is the
// cached profile email.
type Client struct {
	Service *gmail.Service

	logger *log.Logger

	mu           sync.Mutex
	profileEmail string
}

// NewClient wraps an authenticated Gmail API service.
func NewClient(service *gmail.Service) *Client {
	return &Client{Service: service}
}

// SetLogger attaches a logger for diagnostic output; nil disables it.
func (c *Client) SetLogger(logger *log.Logger) {
	c.logger = logger
}

func (c *Client) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// Message represents a Gmail message with its content resolved
type Message struct {
	*gmail.Message
	PlainText string
	HTML      string
	Subject   string
	From      string
	To        string
	Cc        string
	Date      time.Time
	Labels    []string
}

// ActiveAccountEmail returns the authenticated account's address, cached
// after the first profile lookup. Callers that key caches by account
// treat an error as "no account-scoped caching".
func (c *Client) ActiveAccountEmail(ctx context.Context) (string, error) {
	if c == nil || c.Service == nil {
		return "", fmt.Errorf("gmail client not initialized")
	}

	c.mu.Lock()
	if c.profileEmail != "" {
		email := c.profileEmail
		c.mu.Unlock()
		return email, nil
	}
	c.mu.Unlock()

	profile, err := c.GetProfile(ctx)
	if err != nil {
		c.logf("failed to load account profile: %v", err)
		return "", err
	}

	c.mu.Lock()
	c.profileEmail = profile.EmailAddress
	c.mu.Unlock()
	return profile.EmailAddress, nil
}

// GetProfile returns the profile of the authenticated account
func (c *Client) GetProfile(ctx context.Context) (*gmail.Profile, error) {
	if c.Service == nil {
		return nil, fmt.Errorf("gmail service not initialized")
	}
	profile, err := c.Service.Users.GetProfile(gmailUser).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// listPage applies the shared paging knobs to a list call and runs it.
func (c *Client) listPage(call *gmail.UsersMessagesListCall, maxResults int64, pageToken, what string) ([]*gmail.Message, string, error) {
	if maxResults > 0 {
		call = call.MaxResults(maxResults)
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	res, err := call.Do()
	if err != nil {
		return nil, "", fmt.Errorf("failed to %s: %w", what, err)
	}
	return res.Messages, res.NextPageToken, nil
}

// ListMessagesPage returns one page of the inbox plus the token that
// continues it.
func (c *Client) ListMessagesPage(maxResults int64, pageToken string) ([]*gmail.Message, string, error) {
	if c.Service == nil {
		return nil, "", fmt.Errorf("gmail service not initialized")
	}
	// Align with the Gmail web inbox: INBOX only, nothing from sent,
	// drafts, chat, spam or trash.
	call := c.Service.Users.Messages.List(gmailUser).
		LabelIds("INBOX").
		Q("-in:sent -in:draft -in:chat -in:spam -in:trash")
	return c.listPage(call, maxResults, pageToken, "list messages")
}

// SearchMessagesPage runs a Gmail query with paging.
func (c *Client) SearchMessagesPage(query string, maxResults int64, pageToken string) ([]*gmail.Message, string, error) {
	if c.Service == nil {
		return nil, "", fmt.Errorf("gmail service not initialized")
	}
	call := c.Service.Users.Messages.List(gmailUser).Q(query)
	return c.listPage(call, maxResults, pageToken, "search messages")
}

// GetMessage fetches a single message in full format.
func (c *Client) GetMessage(id string) (*gmail.Message, error) {
	if c.Service == nil {
		return nil, fmt.Errorf("gmail service not initialized")
	}
	msg, err := c.Service.Users.Messages.Get(gmailUser, id).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

// GetMessageWithContent retrieves a message and resolves its content
func (c *Client) GetMessageWithContent(id string) (*Message, error) {
	msg, err := c.GetMessage(id)
	if err != nil {
		return nil, err
	}

	return c.buildMessage(msg)
}

// buildMessage turns a raw API message into a Message with its body
// resolved and common headers lifted out of the part tree.
func (c *Client) buildMessage(msg *gmail.Message) (*Message, error) {
	body, err := ResolveBody(msg)
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", msg.Id, err)
	}
	html, err := RawHTML(msg)
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", msg.Id, err)
	}

	return &Message{
		Message:   msg,
		PlainText: body,
		HTML:      html,
		Subject:   extractHeader(msg, "Subject"),
		From:      extractHeader(msg, "From"),
		To:        extractHeader(msg, "To"),
		Cc:        extractHeader(msg, "Cc"),
		Date:      extractDate(msg),
		Labels:    c.humanReadableLabels(msg.LabelIds),
	}, nil
}

// GetMessagesParallel fetches a batch of messages concurrently with a
// bounded worker pool, preserving input order in the result. A message
// that fails to load leaves a nil slot instead of failing the whole
// batch; list views render what arrived.
func (c *Client) GetMessagesParallel(messageIDs []string, maxWorkers int) ([]*Message, error) {
	return c.fetchParallel(messageIDs, maxWorkers, c.GetMessageWithContent)
}

// GetMessagesMetadataParallel is the list-view variant: metadata-format
// fetches only (headers, labels, snippet), no body resolution.
func (c *Client) GetMessagesMetadataParallel(messageIDs []string, maxWorkers int) ([]*Message, error) {
	return c.fetchParallel(messageIDs, maxWorkers, c.GetMessageMetadata)
}

func (c *Client) fetchParallel(messageIDs []string, maxWorkers int, fetch func(string) (*Message, error)) ([]*Message, error) {
	if len(messageIDs) == 0 {
		return []*Message{}, nil
	}
	if maxWorkers <= 0 {
		maxWorkers = defaultFetchWorkers
	}
	if maxWorkers > maxFetchWorkers {
		maxWorkers = maxFetchWorkers
	}
	if maxWorkers > len(messageIDs) {
		maxWorkers = len(messageIDs)
	}

	jobs := make(chan int, len(messageIDs))
	for i := range messageIDs {
		jobs <- i
	}
	close(jobs)

	results := make([]*Message, len(messageIDs))
	var wg sync.WaitGroup

	for w := 0; w < maxWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				msg, err := fetch(messageIDs[idx])
				if err != nil {
					c.logf("failed to fetch message %s: %v", messageIDs[idx], err)
					continue
				}
				results[idx] = msg
			}
		}()
	}

	wg.Wait()
	return results, nil
}

// GetMessageMetadata fetches headers, labels and the snippet of a message
// without its body parts.
func (c *Client) GetMessageMetadata(id string) (*Message, error) {
	if c.Service == nil {
		return nil, fmt.Errorf("gmail service not initialized")
	}
	msg, err := c.Service.Users.Messages.Get(gmailUser, id).
		Format("metadata").
		MetadataHeaders("Subject", "From", "To", "Cc", "Date").
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message metadata: %w", err)
	}

	return &Message{
		Message: msg,
		Subject: extractHeader(msg, "Subject"),
		From:    extractHeader(msg, "From"),
		To:      extractHeader(msg, "To"),
		Cc:      extractHeader(msg, "Cc"),
		Date:    extractDate(msg),
		Labels:  c.humanReadableLabels(msg.LabelIds),
	}, nil
}

// GetThreadMessages returns every message of a thread, bodies resolved,
// in the order the API reports them.
func (c *Client) GetThreadMessages(threadID string) ([]*Message, error) {
	if c.Service == nil {
		return nil, fmt.Errorf("gmail service not initialized")
	}
	thread, err := c.Service.Users.Threads.Get(gmailUser, threadID).Format("full").Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}

	messages := make([]*Message, 0, len(thread.Messages))
	for _, msg := range thread.Messages {
		m, err := c.buildMessage(msg)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, nil
}

// humanReadableLabels converts label IDs to names and filters out
// non-actionable system labels
func (c *Client) humanReadableLabels(labelIDs []string) []string {
	if len(labelIDs) == 0 {
		return []string{}
	}

	filtered := filterSystemLabelIDs(labelIDs)
	if len(filtered) == 0 {
		return []string{}
	}

	labels, err := c.ListLabels()
	if err != nil {
		// Without the mapping, raw IDs are still better than nothing.
		return filtered
	}
	names := make(map[string]string, len(labels))
	for _, l := range labels {
		names[l.Id] = l.Name
	}

	out := make([]string, 0, len(filtered))
	for _, id := range filtered {
		name := names[id]
		if name == "" {
			name = id
		}
		out = append(out, name)
	}
	return out
}

// Mailbox pseudo-labels that the labels UI never shows.
var hiddenSystemLabels = map[string]bool{
	"INBOX": true,
	"CHAT":  true,
	"SENT":  true,
	"TRASH": true,
	"SPAM":  true,
}

// filterSystemLabelIDs drops label IDs that the labels UI never shows:
// category tabs, mailbox pseudo-labels and colored star variants.
func filterSystemLabelIDs(labelIDs []string) []string {
	var out []string
	for _, id := range labelIDs {
		if hiddenSystemLabels[id] || strings.HasPrefix(id, "CATEGORY_") {
			continue
		}
		if id != "STARRED" && (strings.HasSuffix(id, "_STAR") || strings.HasSuffix(id, "_STARRED")) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// ListDrafts returns up to maxResults drafts; zero means the API default.
func (c *Client) ListDrafts(maxResults int64) ([]*gmail.Draft, error) {
	if c.Service == nil {
		return nil, fmt.Errorf("gmail service not initialized")
	}
	call := c.Service.Users.Drafts.List(gmailUser)
	if maxResults > 0 {
		call = call.MaxResults(maxResults)
	}

	res, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return res.Drafts, nil
}

// GetDraft retrieves a draft and resolves the content of its message
func (c *Client) GetDraft(draftID string) (*Message, error) {
	if c.Service == nil {
		return nil, fmt.Errorf("gmail service not initialized")
	}
	draft, err := c.Service.Users.Drafts.Get(gmailUser, draftID).Format("full").Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	if draft.Message == nil {
		return nil, fmt.Errorf("draft %s has no message", draftID)
	}

	return c.buildMessage(draft.Message)
}

// CreateDraft stores a new plain-text draft and returns its ID.
func (c *Client) CreateDraft(to, subject, body string, cc []string) (string, error) {
	return c.createDraft(&gmail.Message{Raw: buildRawMessage(gmailUser, to, subject, body, cc)})
}

// SendMessage sends a plain-text message and returns the sent message ID.
func (c *Client) SendMessage(from, to, subject, body string, cc []string) (string, error) {
	return c.send(&gmail.Message{Raw: buildRawMessage(from, to, subject, body, cc)})
}

// ReplyMessage sends (or drafts) a reply to an existing message. The
// reply goes to the original sender with the subject prefixed once,
// In-Reply-To and References built from the original's headers, and the
// thread ID carried over so mail clients keep the conversation together.
func (c *Client) ReplyMessage(originalMsgID, replyBody string, send bool, cc []string) (string, error) {
	original, err := c.GetMessage(originalMsgID)
	if err != nil {
		return "", err
	}

	subject := extractHeader(original, "Subject")
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}
	to := extractHeader(original, "From")
	inReplyTo, references := threadHeaders(original)

	msg := &gmail.Message{
		Raw:      buildRawReply(gmailUser, to, subject, replyBody, cc, inReplyTo, references),
		ThreadId: original.ThreadId,
	}
	if send {
		return c.send(msg)
	}
	return c.createDraft(msg)
}

func (c *Client) send(msg *gmail.Message) (string, error) {
	if c.Service == nil {
		return "", fmt.Errorf("gmail service not initialized")
	}
	sent, err := c.Service.Users.Messages.Send(gmailUser, msg).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	return sent.Id, nil
}

func (c *Client) createDraft(msg *gmail.Message) (string, error) {
	if c.Service == nil {
		return "", fmt.Errorf("gmail service not initialized")
	}
	created, err := c.Service.Users.Drafts.Create(gmailUser, &gmail.Draft{Message: msg}).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create draft: %w", err)
	}
	return created.Id, nil
}

// threadHeaders derives the In-Reply-To and References values a reply
// needs from the message being answered. A reply's References is the
// original's References with its Message-ID appended; without a
// Message-ID there is nothing to thread on and both come back empty.
func threadHeaders(original *gmail.Message) (inReplyTo, references string) {
	msgID := extractHeader(original, "Message-ID")
	if msgID == "" {
		return "", ""
	}
	references = extractHeader(original, "References")
	if references == "" {
		references = msgID
	} else {
		references += " " + msgID
	}
	return msgID, references
}

// buildRawMessage assembles an RFC 2822 plain-text message and encodes it
// the way the API's Raw field expects (base64url, no padding). Header
// order is fixed so the output is deterministic.
func buildRawMessage(from, to, subject, body string, cc []string) string {
	return buildRawReply(from, to, subject, body, cc, "", "")
}

// buildRawReply is buildRawMessage plus the threading headers; empty
// values drop their header line.
func buildRawReply(from, to, subject, body string, cc []string, inReplyTo, references string) string {
	var sb strings.Builder
	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	if len(cc) > 0 {
		sb.WriteString("Cc: " + strings.Join(cc, ", ") + "\r\n")
	}
	sb.WriteString("Subject: " + subject + "\r\n")
	if inReplyTo != "" {
		sb.WriteString("In-Reply-To: " + inReplyTo + "\r\n")
	}
	if references != "" {
		sb.WriteString("References: " + references + "\r\n")
	}
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)

	return base64.RawURLEncoding.EncodeToString([]byte(sb.String()))
}

// modifyMessage adds and removes label IDs on a message in one call.
// action names the operation in the error.
func (c *Client) modifyMessage(messageID, action string, add, remove []string) error {
	if c.Service == nil {
		return fmt.Errorf("gmail service not initialized")
	}
	req := &gmail.ModifyMessageRequest{
		AddLabelIds:    add,
		RemoveLabelIds: remove,
	}
	if _, err := c.Service.Users.Messages.Modify(gmailUser, messageID, req).Do(); err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	return nil
}

// MarkAsRead clears the UNREAD label.
func (c *Client) MarkAsRead(messageID string) error {
	return c.modifyMessage(messageID, "mark as read", nil, []string{"UNREAD"})
}

// MarkAsUnread restores the UNREAD label.
func (c *Client) MarkAsUnread(messageID string) error {
	return c.modifyMessage(messageID, "mark as unread", []string{"UNREAD"}, nil)
}

// TrashMessage moves a message to the trash.
func (c *Client) TrashMessage(messageID string) error {
	if c.Service == nil {
		return fmt.Errorf("gmail service not initialized")
	}
	if _, err := c.Service.Users.Messages.Trash(gmailUser, messageID).Do(); err != nil {
		return fmt.Errorf("failed to move to trash: %w", err)
	}
	return nil
}

// ArchiveMessage takes a message out of the inbox without deleting it.
func (c *Client) ArchiveMessage(messageID string) error {
	return c.modifyMessage(messageID, "archive", nil, []string{"INBOX"})
}

// ListLabels lists every label on the account, system and user alike.
func (c *Client) ListLabels() ([]*gmail.Label, error) {
	if c.Service == nil {
		return nil, fmt.Errorf("gmail service not initialized")
	}
	res, err := c.Service.Users.Labels.List(gmailUser).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return res.Labels, nil
}

// CreateLabel makes a new user label with the given name.
func (c *Client) CreateLabel(name string) (*gmail.Label, error) {
	if c.Service == nil {
		return nil, fmt.Errorf("gmail service not initialized")
	}
	created, err := c.Service.Users.Labels.Create(gmailUser, &gmail.Label{Name: name}).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create label: %w", err)
	}
	return created, nil
}

// RenameLabel changes the display name of an existing label
func (c *Client) RenameLabel(labelID, newName string) (*gmail.Label, error) {
	if c.Service == nil {
		return nil, fmt.Errorf("gmail service not initialized")
	}
	updated, err := c.Service.Users.Labels.Patch(gmailUser, labelID, &gmail.Label{Name: newName}).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to rename label: %w", err)
	}
	return updated, nil
}

// DeleteLabel permanently removes a label
func (c *Client) DeleteLabel(labelID string) error {
	if c.Service == nil {
		return fmt.Errorf("gmail service not initialized")
	}
	if err := c.Service.Users.Labels.Delete(gmailUser, labelID).Do(); err != nil {
		return fmt.Errorf("failed to delete label: %w", err)
	}
	return nil
}

// ApplyLabel adds a label to a message.
func (c *Client) ApplyLabel(messageID, labelID string) error {
	return c.modifyMessage(messageID, "apply label", []string{labelID}, nil)
}

// RemoveLabel takes a label off a message.
func (c *Client) RemoveLabel(messageID, labelID string) error {
	return c.modifyMessage(messageID, "remove label", nil, []string{labelID})
}

// GetAttachment downloads an attachment and reports its filename
func (c *Client) GetAttachment(messageID, attachmentID string) ([]byte, string, error) {
	if c.Service == nil {
		return nil, "", fmt.Errorf("gmail service not initialized")
	}
	att, err := c.Service.Users.Messages.Attachments.Get(gmailUser, messageID, attachmentID).Do()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get attachment: %w", err)
	}

	data, err := decodeBase64URL(att.Data)
	if err != nil {
		return nil, "", fmt.Errorf("attachment %s: %w", attachmentID, err)
	}

	// The filename lives on the part that references the attachment.
	filename := "attachment"
	if msg, err := c.GetMessage(messageID); err == nil && msg.Payload != nil {
		if name := attachmentFilename(msg.Payload, attachmentID); name != "" {
			filename = name
		}
	}

	return data, filename, nil
}

// attachmentFilename walks the part tree for the part referencing the
// attachment and returns its filename, or "" if no part names it.
func attachmentFilename(part *gmail.MessagePart, attachmentID string) string {
	if part == nil {
		return ""
	}
	if part.Body != nil && part.Body.AttachmentId == attachmentID && part.Filename != "" {
		return part.Filename
	}
	for _, sub := range part.Parts {
		if name := attachmentFilename(sub, attachmentID); name != "" {
			return name
		}
	}
	return ""
}

func extractHeader(msg *gmail.Message, name string) string {
	if msg.Payload == nil {
		return ""
	}
	for _, h := range msg.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func extractDate(msg *gmail.Message) time.Time {
	raw := extractHeader(msg, "Date")
	if raw == "" {
		return time.Now()
	}

	if t, err := mail.ParseDate(raw); err == nil {
		return t
	}
	// mail.ParseDate covers RFC 5322; the explicit layouts catch senders
	// that emit bare RFC 1123 dates.
	for _, layout := range []string{time.RFC1123Z, time.RFC1123} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}

	return time.Now()
}

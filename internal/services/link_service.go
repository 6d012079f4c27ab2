package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/shockz09/uni-cli-sub002/internal/gmail"
	"github.com/shockz09/uni-cli-sub002/internal/render"
)

// LinkServiceImpl implements LinkService on top of the render
// package's HTML and plain text link scanners.
type LinkServiceImpl struct {
	client *gmail.Client
}

// NewLinkService wraps the Gmail client with link extraction.
func NewLinkService(client *gmail.Client) *LinkServiceImpl {
	return &LinkServiceImpl{client: client}
}

// GetMessageLinks extracts the links of a message in document order.
func (s *LinkServiceImpl) GetMessageLinks(ctx context.Context, messageID string) ([]LinkInfo, error) {
	if strings.TrimSpace(messageID) == "" {
		return nil, fmt.Errorf("%w: message ID cannot be empty", ErrInvalidMessageID)
	}

	message, err := s.client.GetMessageWithContent(messageID)
	if err != nil {
		return nil, fmt.Errorf("could not load message %s: %w", messageID, err)
	}

	refs := messageLinkRefs(message)
	links := make([]LinkInfo, 0, len(refs))
	for _, ref := range refs {
		links = append(links, LinkInfo{
			Index: ref.Index,
			URL:   ref.URL,
			Text:  ref.Text,
			Type:  linkCategory(ref.URL),
		})
	}
	return links, nil
}

// messageLinkRefs prefers anchors from the HTML part and falls back
// to scanning the plain text for bare URLs.
func messageLinkRefs(message *gmail.Message) []render.LinkRef {
	if strings.TrimSpace(message.HTML) != "" {
		if refs, err := render.ExtractLinks(message.HTML); err == nil && len(refs) > 0 {
			return refs
		}
	}
	if strings.TrimSpace(message.PlainText) != "" {
		return render.DetectPlainTextLinks(message.PlainText)
	}
	return nil
}

// linkCategory buckets a URL by scheme: html for web links, email for
// mailto, file for file and FTP schemes, plain for everything else.
func linkCategory(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "plain"
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return "html"
	case "mailto":
		return "email"
	case "file", "ftp", "ftps":
		return "file"
	default:
		return "plain"
	}
}

package gmail

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
)

func encodeBody(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func textLeaf(mimeType, content string) *gmail.MessagePart {
	return &gmail.MessagePart{
		MimeType: mimeType,
		Body:     &gmail.MessagePartBody{Data: encodeBody(content)},
	}
}

func container(mimeType string, children ...*gmail.MessagePart) *gmail.MessagePart {
	return &gmail.MessagePart{MimeType: mimeType, Parts: children}
}

func TestResolveBodyRootPlainLeaf(t *testing.T) {
	msg := &gmail.Message{Id: "m1", Payload: textLeaf("text/plain", "Hello, World!")}

	body, err := ResolveBody(msg)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", body)
}

func TestResolveBodyRootHTMLLeaf(t *testing.T) {
	msg := &gmail.Message{Id: "m2", Payload: textLeaf("text/html", "<p>Hello, World!</p>")}

	body, err := ResolveBody(msg)
	require.NoError(t, err)
	assert.Contains(t, body, "Hello, World!")
	assert.NotContains(t, body, "<p>")
}

func TestResolveBodyPlainBeatsHTML(t *testing.T) {
	msg := &gmail.Message{
		Id: "m3",
		Payload: container("multipart/alternative",
			textLeaf("text/html", "<p>HTML first</p>"),
			textLeaf("text/plain", "Plain second"),
		),
	}

	body, err := ResolveBody(msg)
	require.NoError(t, err)
	assert.Equal(t, "Plain second", body)
}

func TestResolveBodyDeeplyNestedHTML(t *testing.T) {
	msg := &gmail.Message{
		Id: "m4",
		Payload: container("multipart/mixed",
			container("multipart/alternative",
				textLeaf("text/html", "<p>PNR: BUQ7SV</p><p>Flight booking confirmed</p>"),
			),
		),
	}

	body, err := ResolveBody(msg)
	require.NoError(t, err)
	assert.Contains(t, body, "PNR: BUQ7SV")
	assert.Contains(t, body, "Flight booking confirmed")
	assert.NotContains(t, body, "<")
	assert.NotContains(t, body, ">")
}

func TestResolveBodySnippetFallback(t *testing.T) {
	msg := &gmail.Message{
		Id:      "m5",
		Snippet: "This is the snippet",
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Body:     &gmail.MessagePartBody{},
		},
	}

	body, err := ResolveBody(msg)
	require.NoError(t, err)
	assert.Equal(t, "This is the snippet", body)
}

func TestResolveBodyEmptyMessage(t *testing.T) {
	msg := &gmail.Message{
		Id:      "m6",
		Snippet: "",
		Payload: &gmail.MessagePart{MimeType: "multipart/alternative", Parts: []*gmail.MessagePart{}},
	}

	body, err := ResolveBody(msg)
	require.NoError(t, err)
	assert.Equal(t, "", body)
}

// Plain text wins even when the html leaf is shallower, and even when the
// plain leaf is buried three containers down.
func TestResolveBodyPlainPriorityAnyDepth(t *testing.T) {
	cases := []struct {
		name    string
		payload *gmail.MessagePart
	}{
		{
			name: "plain deep, html shallow",
			payload: container("multipart/mixed",
				textLeaf("text/html", "<p>html body</p>"),
				container("multipart/related",
					container("multipart/alternative",
						textLeaf("text/plain", "plain body"),
					),
				),
			),
		},
		{
			name: "plain shallow, html deep",
			payload: container("multipart/mixed",
				container("multipart/related",
					container("multipart/alternative",
						textLeaf("text/html", "<p>html body</p>"),
					),
				),
				textLeaf("text/plain", "plain body"),
			),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, err := ResolveBody(&gmail.Message{Id: "m", Payload: tc.payload})
			require.NoError(t, err)
			assert.Equal(t, "plain body", body)
		})
	}
}

func TestResolveBodyDepthIndependence(t *testing.T) {
	shallow := &gmail.Message{
		Id:      "s",
		Payload: container("multipart/alternative", textLeaf("text/html", "<p>Same content</p>")),
	}
	deep := &gmail.Message{
		Id: "d",
		Payload: container("multipart/mixed",
			container("multipart/related",
				container("multipart/alternative",
					textLeaf("text/html", "<p>Same content</p>"),
				),
			),
		),
	}

	shallowBody, err := ResolveBody(shallow)
	require.NoError(t, err)
	deepBody, err := ResolveBody(deep)
	require.NoError(t, err)
	assert.Equal(t, shallowBody, deepBody)
	assert.Equal(t, "Same content", deepBody)
}

// An empty root payload result is returned as-is; the snippet is only for
// messages that resolved nothing at all.
func TestResolveBodyEmptyRootResultNotReplacedBySnippet(t *testing.T) {
	msg := &gmail.Message{
		Id:      "m7",
		Snippet: "should not appear",
		Payload: textLeaf("text/html", "<div></div>"),
	}

	body, err := ResolveBody(msg)
	require.NoError(t, err)
	assert.Equal(t, "", body)
}

func TestResolveBodyDecodeErrorPropagates(t *testing.T) {
	root := &gmail.Message{
		Id: "bad1",
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Body:     &gmail.MessagePartBody{Data: "!!not-base64url!!"},
		},
	}
	_, err := ResolveBody(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")

	nested := &gmail.Message{
		Id: "bad2",
		Payload: container("multipart/alternative",
			&gmail.MessagePart{
				MimeType: "text/plain",
				Body:     &gmail.MessagePartBody{Data: "%%%"},
			},
		),
	}
	_, err = ResolveBody(nested)
	require.Error(t, err)
}

// Some relays re-pad the url-safe payload; that still decodes.
func TestResolveBodyPaddedPayload(t *testing.T) {
	padded := base64.URLEncoding.EncodeToString([]byte("Hello"))
	require.True(t, strings.HasSuffix(padded, "="))

	msg := &gmail.Message{
		Id:      "m8",
		Payload: &gmail.MessagePart{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: padded}},
	}
	body, err := ResolveBody(msg)
	require.NoError(t, err)
	assert.Equal(t, "Hello", body)
}

func TestResolveBodyNilInputs(t *testing.T) {
	body, err := ResolveBody(nil)
	require.NoError(t, err)
	assert.Equal(t, "", body)

	body, err = ResolveBody(&gmail.Message{Id: "m9", Snippet: "only snippet"})
	require.NoError(t, err)
	assert.Equal(t, "only snippet", body)
}

func TestResolveBodySkipsForeignContentTypes(t *testing.T) {
	msg := &gmail.Message{
		Id: "m10",
		Payload: container("multipart/mixed",
			textLeaf("text/calendar", "BEGIN:VCALENDAR"),
			&gmail.MessagePart{
				MimeType: "application/octet-stream",
				Filename: "report.pdf",
				Body:     &gmail.MessagePartBody{AttachmentId: "att-1", Size: 2048},
			},
			container("multipart/alternative",
				textLeaf("text/plain", "See attached report"),
			),
		),
	}

	body, err := ResolveBody(msg)
	require.NoError(t, err)
	assert.Equal(t, "See attached report", body)
}

func TestResolveBodyAttachmentOnlyMessage(t *testing.T) {
	msg := &gmail.Message{
		Id:      "m11",
		Snippet: "attachment only",
		Payload: container("multipart/mixed",
			&gmail.MessagePart{
				MimeType: "image/png",
				Filename: "photo.png",
				Body:     &gmail.MessagePartBody{AttachmentId: "att-2", Size: 4096},
			},
		),
	}

	body, err := ResolveBody(msg)
	require.NoError(t, err)
	assert.Equal(t, "attachment only", body)
}

func TestFindPartByMIME(t *testing.T) {
	t.Run("first match wins across sibling subtrees", func(t *testing.T) {
		parts := []*gmail.MessagePart{
			container("multipart/alternative", textLeaf("text/plain", "first")),
			textLeaf("text/plain", "second"),
		}
		found := FindPartByMIME(parts, "text/plain")
		require.NotNil(t, found)
		data, err := decodeBase64URL(found.Body.Data)
		require.NoError(t, err)
		assert.Equal(t, "first", string(data))
	})

	t.Run("matching type without data does not match", func(t *testing.T) {
		parts := []*gmail.MessagePart{
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{AttachmentId: "att"}},
			textLeaf("text/plain", "with data"),
		}
		found := FindPartByMIME(parts, "text/plain")
		require.NotNil(t, found)
		data, err := decodeBase64URL(found.Body.Data)
		require.NoError(t, err)
		assert.Equal(t, "with data", string(data))
	})

	t.Run("nil entries are skipped", func(t *testing.T) {
		parts := []*gmail.MessagePart{nil, textLeaf("text/html", "<b>x</b>")}
		assert.NotNil(t, FindPartByMIME(parts, "text/html"))
	})

	t.Run("absent type reports not found", func(t *testing.T) {
		parts := []*gmail.MessagePart{textLeaf("text/plain", "x")}
		assert.Nil(t, FindPartByMIME(parts, "text/html"))
	})

	t.Run("unbounded depth", func(t *testing.T) {
		leaf := textLeaf("text/html", "<i>deep</i>")
		tree := leaf
		for i := 0; i < 8; i++ {
			tree = container("multipart/mixed", tree)
		}
		assert.Equal(t, leaf, FindPartByMIME([]*gmail.MessagePart{tree}, "text/html"))
	})
}

func TestRawHTML(t *testing.T) {
	msg := &gmail.Message{
		Id: "m12",
		Payload: container("multipart/alternative",
			textLeaf("text/plain", "plain"),
			textLeaf("text/html", "<p>markup stays</p>"),
		),
	}

	html, err := RawHTML(msg)
	require.NoError(t, err)
	assert.Equal(t, "<p>markup stays</p>", html)

	none, err := RawHTML(&gmail.Message{Id: "m13", Payload: textLeaf("text/plain", "x")})
	require.NoError(t, err)
	assert.Equal(t, "", none)
}

func TestRawPlainText(t *testing.T) {
	msg := &gmail.Message{
		Id:      "m14",
		Snippet: "snippet",
		Payload: container("multipart/alternative",
			textLeaf("text/html", "<p>html</p>"),
		),
	}

	// No plain part anywhere: no fallback to html or snippet.
	text, err := RawPlainText(msg)
	require.NoError(t, err)
	assert.Equal(t, "", text)

	msg.Payload.Parts = append(msg.Payload.Parts, textLeaf("text/plain", "the plain one"))
	text, err = RawPlainText(msg)
	require.NoError(t, err)
	assert.Equal(t, "the plain one", text)
}

package render

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	gmailapi "google.golang.org/api/gmail/v1"
)

// LinkRef is one hyperlink found in a message body, numbered in
// document order starting at 1.
type LinkRef struct {
	Index int
	URL   string
	Text  string
}

// AttachmentMeta describes an attachment or inline image found in the
// MIME tree.
type AttachmentMeta struct {
	Filename  string
	MimeType  string
	Size      int64
	Inline    bool
	ContentID string
}

// plainURLRe finds http(s) URLs embedded in plain text.
var plainURLRe = regexp.MustCompile(`(?i)\bhttps?://[\w\-\._~:/%\?#\[\]@!$&'()*+,;=]+`)

// bareURLRe matches a token that is a URL of any scheme, so the
// wrapper knows not to split it.
var bareURLRe = regexp.MustCompile(`(?i)^[a-z][a-z0-9+\-.]*://\S+$`)

// ExtractLinks parses markup and collects anchors in document order.
// Labels come from the anchor text, then aria-label/title/alt, then
// the URL itself.
func ExtractLinks(htmlStr string) ([]LinkRef, error) {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return nil, err
	}
	links := make([]LinkRef, 0, 8)
	collectAnchors(doc, &links)
	return links, nil
}

func collectAnchors(n *html.Node, links *[]LinkRef) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "head", "style", "script":
			return
		case "a":
			if href := anchorHref(n); href != "" {
				*links = append(*links, LinkRef{Index: len(*links) + 1, URL: href, Text: anchorLabel(n, href)})
			}
			return
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectAnchors(child, links)
	}
}

// anchorHref returns the anchor target, or "" for anchors without one
// and for javascript: pseudo links.
func anchorHref(n *html.Node) string {
	href := attrValue(n, "href")
	if strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	return href
}

func anchorLabel(n *html.Node, href string) string {
	var inner strings.Builder
	collectText(&inner, n)
	if label := strings.TrimSpace(inner.String()); label != "" {
		return label
	}
	for _, key := range []string{"aria-label", "title", "alt"} {
		if label := attrValue(n, key); label != "" {
			return label
		}
	}
	return href
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// DetectPlainTextLinks numbers the URLs found in plain text. The text
// itself is left alone, so Text mirrors URL.
func DetectPlainTextLinks(input string) []LinkRef {
	matches := plainURLRe.FindAllString(input, -1)
	if len(matches) == 0 {
		return nil
	}
	links := make([]LinkRef, len(matches))
	for i, m := range matches {
		links[i] = LinkRef{Index: i + 1, URL: m, Text: m}
	}
	return links
}

// CollectAttachments walks the MIME tree and separates regular
// attachments from inline images.
func CollectAttachments(msg *gmailapi.Message) (atts, images []AttachmentMeta) {
	if msg == nil || msg.Payload == nil {
		return nil, nil
	}
	atts = make([]AttachmentMeta, 0, 4)
	images = make([]AttachmentMeta, 0, 2)
	collectParts(msg.Payload, &atts, &images)
	return atts, images
}

func collectParts(p *gmailapi.MessagePart, atts, images *[]AttachmentMeta) {
	if p == nil {
		return
	}
	if meta, inline, ok := partMeta(p); ok {
		if inline {
			*images = append(*images, meta)
		} else {
			*atts = append(*atts, meta)
		}
	}
	for _, c := range p.Parts {
		collectParts(c, atts, images)
	}
}

// partMeta classifies one MIME part. Parts with stored bytes and a
// filename are attachments; image parts and parts carrying a
// Content-Id header count as inline images even without stored bytes.
func partMeta(p *gmailapi.MessagePart) (meta AttachmentMeta, inline, ok bool) {
	isImage := strings.HasPrefix(strings.ToLower(p.MimeType), "image/")
	cid := partContentID(p)

	if p.Body != nil && p.Body.AttachmentId != "" && p.Filename != "" {
		meta = AttachmentMeta{Filename: p.Filename, MimeType: p.MimeType, Size: p.Body.Size}
		if isImage || cid != "" {
			meta.Inline = true
			meta.ContentID = cid
			return meta, true, true
		}
		return meta, false, true
	}
	if isImage || cid != "" {
		return AttachmentMeta{Filename: p.Filename, MimeType: p.MimeType, Inline: true, ContentID: cid}, true, true
	}
	return AttachmentMeta{}, false, false
}

func partContentID(p *gmailapi.MessagePart) string {
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, "Content-Id") {
			return strings.Trim(h.Value, "<>")
		}
	}
	return ""
}

// WrapTextPreserving wraps text to width while leaving quoted lines,
// fenced code, PGP blocks and URLs intact.
func WrapTextPreserving(input string, width int) string {
	if width <= 0 {
		return input
	}

	var out []string
	var inFence, inArmor bool
	for _, line := range strings.Split(NormalizeNewlines(input), "\n") {
		switch {
		case strings.HasPrefix(strings.TrimSpace(line), "```"):
			inFence = !inFence
			out = append(out, line)
			continue
		case strings.HasPrefix(line, "-----BEGIN "):
			inArmor = true
		}
		if inFence || inArmor {
			if strings.HasPrefix(line, "-----END ") {
				inArmor = false
			}
			out = append(out, line)
			continue
		}

		prefix, rest := splitQuotePrefix(line)
		out = append(out, wrapLine(prefix, rest, width)...)
	}
	return strings.Join(out, "\n")
}

// splitQuotePrefix peels leading "> " markers so nested quotes keep
// their depth on every wrapped line.
func splitQuotePrefix(line string) (prefix, rest string) {
	rest = line
	for strings.HasPrefix(rest, "> ") {
		prefix += "> "
		rest = rest[2:]
	}
	return prefix, rest
}

// wrapLine greedily packs words up to width, re-applying prefix on
// every emitted line. URL tokens are kept whole even when they
// overflow; any other word too long for a full line is cut at the
// width.
func wrapLine(prefix, text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{prefix}
	}

	avail := width - runeLen(prefix)
	lines := make([]string, 0, 1)
	cur := prefix
	emit := func() {
		lines = append(lines, strings.TrimRight(cur, " "))
		cur = prefix
	}

	for _, word := range words {
		need := runeLen(word)
		fresh := runeLen(cur) == runeLen(prefix)
		if !fresh {
			need++
		}
		if runeLen(cur)+need <= width {
			if !fresh {
				cur += " "
			}
			cur += word
			continue
		}

		if !fresh {
			emit()
		}
		if bareURLRe.MatchString(word) || runeLen(word) <= avail {
			cur += word
			continue
		}
		pieces := cutRunes(word, avail)
		for _, piece := range pieces[:len(pieces)-1] {
			cur += piece
			emit()
		}
		cur += pieces[len(pieces)-1]
	}
	if runeLen(cur) > runeLen(prefix) {
		emit()
	}
	return lines
}

// cutRunes splits s into chunks of at most n runes. Values of n below
// one are treated as one so a pathological prefix cannot stall the
// wrap.
func cutRunes(s string, n int) []string {
	if n < 1 {
		n = 1
	}
	runes := []rune(s)
	chunks := make([]string, 0, (len(runes)+n-1)/n)
	for len(runes) > n {
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}
	return append(chunks, string(runes))
}

// glyphRepl maps typographic glyphs to ASCII-safe replacements.
var glyphRepl = map[rune]string{
	'–': "-", // en dash
	'—': "-", // em dash
	'‘': "'",
	'’': "'",
	'“': `"`,
	'”': `"`,
	'…': "...",
	'•': "- ", // bullet
	'⁃': "- ", // hyphen bullet
	'▪': "- ",
	'●': "- ",
	'◦': "- ",
}

// isInvisible reports zero-width and joiner characters that occupy no
// terminal cell.
func isInvisible(r rune) bool {
	switch r {
	case '\u00AD', '\u034F', '\u200B', '\u200C', '\u200D', '\u2060', '\uFEFF':
		return true
	}
	return false
}

// SanitizeForTerminal rewrites rich-text glyphs into ASCII-safe
// equivalents and drops characters that render as tofu: exotic spaces
// become plain spaces, zero-width characters, symbols and control
// characters other than newline and tab disappear.
func SanitizeForTerminal(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if repl, ok := glyphRepl[r]; ok {
			b.WriteString(repl)
			continue
		}
		switch {
		case isInvisible(r):
		case unicode.Is(unicode.Zs, r):
			b.WriteByte(' ')
		case unicode.IsControl(r) && r != '\n' && r != '\t':
		case unicode.Is(unicode.So, r):
		default:
			b.WriteRune(r)
		}
	}
	return collapseBlankRuns(b.String())
}

var (
	newlineRepl = strings.NewReplacer("\r\n", "\n", "\r", "\n")
	blankRunRe  = regexp.MustCompile(`\n{3,}`)
)

// NormalizeNewlines converts CRLF and bare CR to LF and trims runs of
// blank lines down to one.
func NormalizeNewlines(s string) string {
	return collapseBlankRuns(newlineRepl.Replace(s))
}

func collapseBlankRuns(s string) string {
	return blankRunRe.ReplaceAllString(s, "\n\n")
}

// collectText flattens the visible text under node, treating <br> as a
// space and skipping style and script subtrees.
func collectText(dst *strings.Builder, node *html.Node) {
	switch node.Type {
	case html.TextNode:
		dst.WriteString(node.Data)
		return
	case html.ElementNode:
		switch strings.ToLower(node.Data) {
		case "br":
			dst.WriteByte(' ')
		case "style", "script":
			return
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(dst, child)
	}
}

func runeLen(s string) int { return len([]rune(s)) }

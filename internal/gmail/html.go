package gmail

import (
	"regexp"
	"strings"
)

// Tag handling for the HTML-to-text pipeline. Order matters: style/script
// blocks go first (their content must never survive), structural tags are
// mapped to whitespace before the generic strip removes everything else.
var (
	styleBlockRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	scriptBlockRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	brTagRe       = regexp.MustCompile(`(?i)<br\s*/?>`)
	pCloseRe      = regexp.MustCompile(`(?i)</p\s*>`)
	blockCloseRe  = regexp.MustCompile(`(?i)</(?:div|tr)\s*>`)
	cellCloseRe   = regexp.MustCompile(`(?i)</t[dh]\s*>`)
	listItemRe    = regexp.MustCompile(`(?i)<li(?:\s[^>]*)?>`)
	listCloseRe   = regexp.MustCompile(`(?i)</li\s*>`)
	anyTagRe      = regexp.MustCompile(`<[^>]*>`)
	numEntityRe   = regexp.MustCompile(`&#(?:[0-9]+|[xX][0-9a-fA-F]+);`)
	spaceRunRe    = regexp.MustCompile(`[ \t]+`)
	newlineRunRe  = regexp.MustCompile(`\n{3,}`)
)

// entityReplacer decodes the named entities that actually show up in mail
// bodies. Single pass, so already-decoded text is never unescaped twice.
var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&rsquo;", "'",
	"&lsquo;", "'",
	"&rdquo;", `"`,
	"&ldquo;", `"`,
	"&hellip;", "...",
)

// HTMLToText converts an HTML fragment to plain text suitable for terminal
// display. It is a pure function: stripping style/script blocks, mapping
// structural tags to line breaks and column separators, removing whatever
// tags remain, decoding common entities and normalizing whitespace.
func HTMLToText(html string) string {
	text := strings.ReplaceAll(html, "\r\n", "\n")

	text = styleBlockRe.ReplaceAllString(text, "")
	text = scriptBlockRe.ReplaceAllString(text, "")

	text = brTagRe.ReplaceAllString(text, "\n")
	text = pCloseRe.ReplaceAllString(text, "\n\n")
	text = blockCloseRe.ReplaceAllString(text, "\n")
	text = cellCloseRe.ReplaceAllString(text, " | ")
	text = listItemRe.ReplaceAllString(text, "- ")
	text = listCloseRe.ReplaceAllString(text, "\n")

	text = anyTagRe.ReplaceAllString(text, "")

	text = entityReplacer.Replace(text)
	// Numeric references left over after the named table ran carry little
	// terminal-displayable value (zero-width spaces, emoji halves); drop
	// them instead of emitting mojibake.
	text = numEntityRe.ReplaceAllString(text, "")

	text = spaceRunRe.ReplaceAllString(text, " ")
	text = newlineRunRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

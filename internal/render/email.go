package render

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/mattn/go-runewidth"
	gmailapi "google.golang.org/api/gmail/v1"
)

// EmailRenderer formats messages for terminal output: fixed-width
// list rows and plain-text headers.
type EmailRenderer struct {
	labelNames       map[string]string
	showSystemLabels bool
}

// NewEmailRenderer returns a renderer with no label names loaded;
// chips fall back to raw IDs until SetLabelMap is called.
func NewEmailRenderer() *EmailRenderer {
	return &EmailRenderer{labelNames: make(map[string]string)}
}

// SetLabelMap provides the label ID to display name mapping used for
// list chips. Passing nil clears the mapping.
func (er *EmailRenderer) SetLabelMap(m map[string]string) {
	er.labelNames = m
	if er.labelNames == nil {
		er.labelNames = make(map[string]string)
	}
}

// SetShowSystemLabelsInList toggles chips for system labels such as
// Inbox or Sent, which are hidden by default.
func (er *EmailRenderer) SetShowSystemLabelsInList(v bool) { er.showSystemLabels = v }

// Column layout for list rows. The subject column absorbs whatever
// width remains after the sender, the date, the separators and the
// chip suffix.
const (
	senderColWidth  = 22
	dateColWidth    = 8
	minListWidth    = 40
	minSubjectWidth = 10
)

// FormatEmailList renders one message as a fixed-width list row:
// sender, subject with label chips and icons, relative date.
func (er *EmailRenderer) FormatEmailList(message *gmailapi.Message, maxWidth int) string {
	if maxWidth < minListWidth {
		maxWidth = minListWidth
	}

	sender := orPlaceholder(extractSenderName(headerValue(message, "From")), "(No sender)")
	subject := orPlaceholder(headerValue(message, "Subject"), "(No subject)")
	date := relativeTime(messageDate(message))

	suffix := er.listSuffix(message)
	// The two " | " separators cost six columns.
	subjectWidth := maxWidth - senderColWidth - dateColWidth - 6 - runewidth.StringWidth(suffix)
	if subjectWidth < minSubjectWidth {
		subjectWidth = minSubjectWidth
	}

	return fmt.Sprintf("%s | %s%s | %s",
		fitWidth(sender, senderColWidth),
		fitWidth(subject, subjectWidth),
		suffix,
		fitWidth(date, dateColWidth))
}

// listSuffix builds the chip and icon tail of a list row, for example
// " [Work] [Receipts] [+2] 📎".
func (er *EmailRenderer) listSuffix(message *gmailapi.Message) string {
	if message == nil || message.Payload == nil {
		return ""
	}
	chips := er.labelChips(message.LabelIds)
	flags := scanParts(message.Payload)

	var b strings.Builder
	const maxChips = 3
	for i, chip := range chips {
		if i == maxChips {
			fmt.Fprintf(&b, " [+%d]", len(chips)-maxChips)
			break
		}
		b.WriteString(" [")
		b.WriteString(chip)
		b.WriteString("]")
	}
	if flags.attachment {
		b.WriteString(" 📎")
	}
	if flags.calendar {
		b.WriteString(" 🗓")
	}
	return b.String()
}

// State labels never become chips; read state and stars show through
// row styling instead.
var stateLabels = map[string]bool{
	"UNREAD":    true,
	"STARRED":   true,
	"IMPORTANT": true,
}

// System mailbox labels become chips only when the caller opts in.
var systemLabels = map[string]bool{
	"INBOX": true,
	"CHAT":  true,
	"SENT":  true,
	"TRASH": true,
	"SPAM":  true,
	"DRAFT": true,
}

func (er *EmailRenderer) labelChips(labelIDs []string) []string {
	chips := make([]string, 0, len(labelIDs))
	for _, id := range labelIDs {
		name := id
		if n, ok := er.labelNames[id]; ok && strings.TrimSpace(n) != "" {
			name = n
		}
		if isStateLabel(id) || isStateLabel(name) {
			continue
		}
		upperID := strings.ToUpper(id)
		if (systemLabels[upperID] || strings.HasPrefix(upperID, "CATEGORY_")) && !er.showSystemLabels {
			continue
		}
		chips = append(chips, displayLabel(name, id))
	}
	return chips
}

func isStateLabel(s string) bool {
	upper := strings.ToUpper(s)
	if stateLabels[upper] {
		return true
	}
	return strings.HasSuffix(upper, "_STAR") || strings.HasSuffix(upper, "_STARRED")
}

type partFlags struct {
	attachment bool
	calendar   bool
}

// scanParts walks the MIME tree for attachment and calendar parts.
// Metadata only, bodies are never inspected.
func scanParts(root *gmailapi.MessagePart) partFlags {
	var flags partFlags
	stack := []*gmailapi.MessagePart{root}
	for len(stack) > 0 {
		part := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if part == nil {
			continue
		}
		if part.Filename != "" || (part.Body != nil && part.Body.AttachmentId != "") {
			flags.attachment = true
		}
		if isCalendarPart(part) {
			flags.calendar = true
		}
		stack = append(stack, part.Parts...)
	}
	return flags
}

// isCalendarPart matches invite parts by MIME type or by an .ics
// attachment name, case-insensitively.
func isCalendarPart(part *gmailapi.MessagePart) bool {
	mimeType := strings.ToLower(part.MimeType)
	for _, marker := range []string{"text/calendar", "application/ics"} {
		if strings.Contains(mimeType, marker) {
			return true
		}
	}
	return strings.HasSuffix(strings.ToLower(part.Filename), ".ics")
}

// displayLabel picks the chip text for a label. Category labels show
// just the category, everything else is title-cased.
func displayLabel(name, id string) string {
	if name == "" {
		name = id
	}
	if rest, ok := cutCategory(id); ok {
		return titleCase(rest)
	}
	if rest, ok := cutCategory(name); ok {
		return titleCase(rest)
	}
	return titleCase(name)
}

func cutCategory(s string) (string, bool) {
	const prefix = "CATEGORY_"
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return "", false
}

// titleCase renders label tokens like "aws-partners" as "Aws Partners".
func titleCase(s string) string {
	separators := func(r rune) rune {
		switch r {
		case '_', '-', '.':
			return ' '
		}
		return r
	}

	var b strings.Builder
	for i, word := range strings.Fields(strings.Map(separators, s)) {
		if i > 0 {
			b.WriteByte(' ')
		}
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}

// FormatHeaderPlain renders message headers without any markup. To
// and Cc lines appear only when present.
func (er *EmailRenderer) FormatHeaderPlain(subject, from, to, cc string, date time.Time, labels []string) string {
	lines := []string{
		"Subject: " + subject,
		"From: " + from,
	}
	if strings.TrimSpace(to) != "" {
		lines = append(lines, "To: "+to)
	}
	if strings.TrimSpace(cc) != "" {
		lines = append(lines, "Cc: "+cc)
	}
	lines = append(lines,
		"Date: "+date.Format("Mon, 02 Jan 2006 15:04:05 -0700"),
		"Labels: "+strings.Join(labels, ", "))
	return strings.Join(lines, "\n")
}

func headerValue(message *gmailapi.Message, name string) string {
	if message == nil || message.Payload == nil {
		return ""
	}
	for _, h := range message.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// messageDate prefers Gmail's internal receive time over the Date
// header, which is sender-controlled and frequently malformed.
func messageDate(message *gmailapi.Message) time.Time {
	if message != nil {
		if ms := message.InternalDate; ms > 0 {
			return time.UnixMilli(ms)
		}
	}
	raw := headerValue(message, "Date")
	for _, layout := range []string{
		time.RFC1123Z,
		time.RFC1123,
		"Mon, 02 Jan 2006 15:04:05 -0700",
	} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed
		}
	}
	// No parseable date; now beats a zero time in the list.
	return time.Now()
}

// extractSenderName pulls the display name out of a From header,
// falling back to the bare address for "<a@b.com>" style values.
func extractSenderName(from string) string {
	name, addr, ok := splitAddress(from)
	if !ok {
		return from
	}
	if name != "" {
		return name
	}
	return addr
}

func splitAddress(from string) (name, addr string, ok bool) {
	before, after, found := strings.Cut(from, "<")
	if !found || !strings.Contains(after, ">") {
		return "", "", false
	}
	name = strings.TrimSpace(before)
	addr = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(after), ">"))
	return name, addr, true
}

// orPlaceholder substitutes placeholder text for empty values.
func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}

// fitWidth truncates with an ellipsis and right-pads so the result
// occupies exactly width display cells.
func fitWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	text = runewidth.Truncate(text, width, "...")
	if pad := width - runewidth.StringWidth(text); pad > 0 {
		return text + strings.Repeat(" ", pad)
	}
	return text
}

// relativeTime compresses an age into the date column: "now", "5m",
// "3h", "2d", then "Jan 2" beyond a week.
func relativeTime(date time.Time) string {
	age := time.Since(date)
	switch {
	case age < time.Minute:
		return "now"
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	case age < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(age.Hours()/24))
	default:
		return date.Format("Jan 2")
	}
}

package gmail

import (
	"strings"
	"testing"
)

func TestHTMLToTextLineBreaks(t *testing.T) {
	got := HTMLToText("Line1<br>Line2<br/>Line3")
	want := "Line1\nLine2\nLine3"
	if got != want {
		t.Errorf("HTMLToText() = %q, want %q", got, want)
	}
}

func TestHTMLToTextBreakVariants(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"spaced self-close", "a<br />b", "a\nb"},
		{"uppercase", "a<BR>b", "a\nb"},
		{"mixed case self-close", "a<Br/>b", "a\nb"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HTMLToText(tc.in); got != tc.want {
				t.Errorf("HTMLToText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestHTMLToTextStripsStyleAndScript(t *testing.T) {
	in := `<style>.foo{color:red;}</style><p>Visible</p><script>alert("x")</script>`
	got := HTMLToText(in)

	if !strings.Contains(got, "Visible") {
		t.Errorf("output %q lost visible content", got)
	}
	for _, forbidden := range []string{"color", "alert", "style", "script"} {
		if strings.Contains(got, forbidden) {
			t.Errorf("output %q leaked %q", got, forbidden)
		}
	}
}

func TestHTMLToTextStripsStyleAndScriptMultiline(t *testing.T) {
	in := "<STYLE type=\"text/css\">\nbody {\n  margin: 0;\n}\n</STYLE>before<Script>\nvar x = 1;\nconsole.log(x);\n</scripT>after"
	got := HTMLToText(in)
	want := "beforeafter"
	if got != want {
		t.Errorf("HTMLToText() = %q, want %q", got, want)
	}
}

func TestHTMLToTextStructuralTags(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"paragraphs", "<p>One</p><p>Two</p>", "One\n\nTwo"},
		{"divs", "<div>One</div><div>Two</div>", "One\nTwo"},
		{"table row", "<table><tr><td>A</td><td>B</td></tr></table>", "A | B |"},
		{"table header", "<tr><th>Name</th><th>Age</th></tr>", "Name | Age |"},
		{"list", "<ul><li>One</li><li>Two</li></ul>", "- One\n- Two"},
		{"list item attrs", `<li class="x">Item</li>`, "- Item"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HTMLToText(tc.in); got != tc.want {
				t.Errorf("HTMLToText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestHTMLToTextStripsAttributedAndSelfClosingTags(t *testing.T) {
	in := `<a href="https://example.com" target="_blank">link text</a> and <img src="x.png"/> image`
	got := HTMLToText(in)
	want := "link text and image"
	if got != want {
		t.Errorf("HTMLToText() = %q, want %q", got, want)
	}
}

func TestHTMLToTextEntities(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"ampersand", "Tom &amp; Jerry", "Tom & Jerry"},
		{"angle brackets", "1 &lt; 2 &gt; 0", "1 < 2 > 0"},
		{"nbsp", "a&nbsp;b", "a b"},
		{"quotes", "&quot;quoted&quot;", `"quoted"`},
		{"apostrophes", "it&#39;s, it&rsquo;s, &lsquo;tis", "it's, it's, 'tis"},
		{"curly quotes", "&ldquo;said&rdquo;", `"said"`},
		{"ellipsis", "wait&hellip;", "wait..."},
		{"decimal entity dropped", "A&#8203;B", "AB"},
		{"hex entity dropped", "A&#x200B;B", "AB"},
		{"unknown named preserved", "stays &bogus; here", "stays &bogus; here"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HTMLToText(tc.in); got != tc.want {
				t.Errorf("HTMLToText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestHTMLToTextWhitespace(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"space runs", "a  \t\t b", "a b"},
		{"newline runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"crlf normalized", "Line1\r\n\r\n\r\nLine2", "Line1\n\nLine2"},
		{"trimmed", "  \n padded \n  ", "padded"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HTMLToText(tc.in); got != tc.want {
				t.Errorf("HTMLToText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

// Converting text that already went through the converter must change
// nothing, otherwise chained render paths would mangle bodies.
func TestHTMLToTextIdempotent(t *testing.T) {
	inputs := []string{
		"<p>Hello, World!</p>",
		"Line1<br>Line2<br/>Line3",
		"<ul><li>One</li><li>Two</li></ul>",
		"<div>nested <span>spans</span> here</div>",
		"<table><tr><td>A</td><td>B</td></tr></table>",
	}
	for _, in := range inputs {
		once := HTMLToText(in)
		twice := HTMLToText(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestHTMLToTextNoMarkupLeakage(t *testing.T) {
	inputs := []string{
		"<p>Hello, World!</p>",
		`<div class="wrapper"><a href="http://x">x</a></div>`,
		"<html><body><h1>Title</h1><p>Body</p></body></html>",
		"<style>p{}</style><p>text</p><script>x()</script>",
		"<img src='a.png' alt='a'/><br/><hr>",
	}
	for _, in := range inputs {
		got := HTMLToText(in)
		if strings.ContainsAny(got, "<>") {
			t.Errorf("markup leaked for %q: %q", in, got)
		}
	}
}

package digest

import (
	"html"
	"strings"
)

// ToHTML converts the report markup to HTML. It handles headings up to
// level 3, flat unordered lists, bold and inline code spans, paragraphs and
// horizontal rules. Nested or malformed input is rendered best-effort.
func ToHTML(text string) string {
	var b strings.Builder
	var para []string
	inList := false

	flushPara := func() {
		if len(para) == 0 {
			return
		}
		b.WriteString("<p>")
		b.WriteString(inline(strings.Join(para, " ")))
		b.WriteString("</p>\n")
		para = para[:0]
	}
	closeList := func() {
		if inList {
			b.WriteString("</ul>\n")
			inList = false
		}
	}

	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			flushPara()
			closeList()
		case line == "---" || line == "***":
			flushPara()
			closeList()
			b.WriteString("<hr>\n")
		case strings.HasPrefix(line, "### "):
			flushPara()
			closeList()
			b.WriteString("<h3>" + inline(line[4:]) + "</h3>\n")
		case strings.HasPrefix(line, "## "):
			flushPara()
			closeList()
			b.WriteString("<h2>" + inline(line[3:]) + "</h2>\n")
		case strings.HasPrefix(line, "# "):
			flushPara()
			closeList()
			b.WriteString("<h1>" + inline(line[2:]) + "</h1>\n")
		case strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* "):
			flushPara()
			if !inList {
				b.WriteString("<ul>\n")
				inList = true
			}
			b.WriteString("<li>" + inline(line[2:]) + "</li>\n")
		default:
			closeList()
			para = append(para, line)
		}
	}
	flushPara()
	closeList()
	return b.String()
}

// inline escapes text and expands **bold**, `code` and _emphasis_ spans.
// Code span contents are literal. Unterminated markers are kept literally.
func inline(s string) string {
	s = html.EscapeString(s)
	var b strings.Builder
	for {
		i := strings.Index(s, "`")
		if i < 0 {
			break
		}
		j := strings.Index(s[i+1:], "`")
		if j < 0 {
			break
		}
		j += i + 1
		if j == i+1 {
			b.WriteString(emphasis(s[:j]))
			s = s[j:]
			continue
		}
		b.WriteString(emphasis(s[:i]))
		b.WriteString("<code>" + s[i+1:j] + "</code>")
		s = s[j+1:]
	}
	b.WriteString(emphasis(s))
	return b.String()
}

func emphasis(s string) string {
	s = wrapSpans(s, "**", "<strong>", "</strong>")
	return wrapSpans(s, "_", "<em>", "</em>")
}

func wrapSpans(s, marker, openTag, closeTag string) string {
	var b strings.Builder
	for {
		i := strings.Index(s, marker)
		if i < 0 {
			break
		}
		j := strings.Index(s[i+len(marker):], marker)
		if j < 0 {
			break
		}
		j += i + len(marker)
		inner := s[i+len(marker) : j]
		if inner == "" || (marker == "_" && !wordBoundary(s, i, j+len(marker))) {
			b.WriteString(s[:j])
			s = s[j:]
			continue
		}
		b.WriteString(s[:i])
		b.WriteString(openTag)
		b.WriteString(inner)
		b.WriteString(closeTag)
		s = s[j+len(marker):]
	}
	b.WriteString(s)
	return b.String()
}

// wordBoundary keeps snake_case identifiers from turning into emphasis.
func wordBoundary(s string, start, end int) bool {
	isWord := func(c byte) bool {
		return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
	}
	if start > 0 && isWord(s[start-1]) {
		return false
	}
	if end < len(s) && isWord(s[end]) {
		return false
	}
	return true
}

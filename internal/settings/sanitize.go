package settings

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	scriptBlock = regexp.MustCompile(`(?is)<script[^>]*?>.*?</script>`)
	styleBlock  = regexp.MustCompile(`(?is)<style[^>]*?>.*?</style>`)
	anyTag      = regexp.MustCompile(`(?s)<[^>]*>`)
	whitespace  = regexp.MustCompile(`[\r\n\t ]+`)
	spaces      = regexp.MustCompile(` +`)
	octet       = regexp.MustCompile(`(?i)%[a-f0-9]{2}`)

	// escHTML encodes the way WordPress esc_html does.
	escHTML = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#039;",
	)
)

// SanitizeTextField reduces s to a single line of plain text, following
// WordPress sanitize_text_field: invalid UTF-8 yields "", tags are stripped,
// stray '<' is encoded, whitespace runs collapse to one space and
// percent-encoded octets are removed.
func SanitizeTextField(s string) string {
	if !utf8.ValidString(s) {
		return ""
	}

	filtered := s
	if strings.Contains(filtered, "<") {
		filtered = encodeStrayLessThan(filtered)
		filtered = stripAllTags(filtered)
		filtered = strings.ReplaceAll(filtered, "<\n", "&lt;\n")
	}
	filtered = whitespace.ReplaceAllString(filtered, " ")
	filtered = strings.TrimSpace(filtered)

	found := false
	for {
		match := octet.FindString(filtered)
		if match == "" {
			break
		}
		filtered = strings.ReplaceAll(filtered, match, "")
		found = true
	}
	if found {
		filtered = strings.TrimSpace(spaces.ReplaceAllString(filtered, " "))
	}
	return filtered
}

// encodeStrayLessThan escapes every '<' fragment that is not closed by '>'
// before the next '<' or the end of input.
func encodeStrayLessThan(s string) string {
	var b strings.Builder
	for {
		i := strings.IndexByte(s, '<')
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		rest := s[i+1:]
		end := strings.IndexAny(rest, "<>")
		switch {
		case end >= 0 && rest[end] == '>':
			b.WriteString(s[i : i+1+end+1])
			s = rest[end+1:]
		case end >= 0:
			b.WriteString(escHTML.Replace(s[i : i+1+end]))
			s = rest[end:]
		default:
			b.WriteString(escHTML.Replace(s[i:]))
			return b.String()
		}
	}
}

func stripAllTags(s string) string {
	s = scriptBlock.ReplaceAllString(s, "")
	s = styleBlock.ReplaceAllString(s, "")
	return anyTag.ReplaceAllString(s, "")
}

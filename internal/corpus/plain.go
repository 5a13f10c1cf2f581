package corpus

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var blankLine = regexp.MustCompile(`\n[ \t]*\n`)

// plainParagraphs splits text on blank lines. Invalid UTF-8 is replaced with U+FFFD.
func plainParagraphs(content []byte) []string {
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\ufffd")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return blankLine.Split(text, -1)
}

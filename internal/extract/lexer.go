package extract

import "strconv"

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokOperator
	tokName
	tokString
	tokDelim
)

type contentToken struct {
	kind tokenKind
	num  float64
	text string
}

// contentLexer tokenizes a decoded content stream just far enough to
// drive the path interpreter: numbers, operators and names come through,
// strings and inline images are skipped as opaque blobs so their bytes
// can never be mistaken for operators.
type contentLexer struct {
	data []byte
	pos  int
}

func newContentLexer(data []byte) *contentLexer {
	return &contentLexer{data: data}
}

func (l *contentLexer) next() (contentToken, bool) {
	l.skipWhitespaceAndComments()
	if l.pos >= len(l.data) {
		return contentToken{}, false
	}

	c := l.data[l.pos]
	switch {
	case c == '(':
		l.skipLiteralString()
		return contentToken{kind: tokString}, true
	case c == '<':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
			l.pos += 2
			return contentToken{kind: tokDelim, text: "<<"}, true
		}
		l.skipHexString()
		return contentToken{kind: tokString}, true
	case c == '>':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '>' {
			l.pos += 2
			return contentToken{kind: tokDelim, text: ">>"}, true
		}
		l.pos++
		return contentToken{kind: tokDelim, text: ">"}, true
	case c == '[' || c == ']' || c == '{' || c == '}':
		l.pos++
		return contentToken{kind: tokDelim, text: string(c)}, true
	case c == '/':
		return contentToken{kind: tokName, text: l.readRegular()}, true
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		word := l.readRegular()
		if f, err := strconv.ParseFloat(word, 64); err == nil {
			return contentToken{kind: tokNumber, num: f}, true
		}
		return contentToken{kind: tokOperator, text: word}, true
	default:
		word := l.readRegular()
		if word == "BI" {
			// Inline image: skip through the EI marker.
			l.skipInlineImage()
			return contentToken{kind: tokString}, true
		}
		return contentToken{kind: tokOperator, text: word}, true
	}
}

func (l *contentLexer) skipWhitespaceAndComments() {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if c == '%' {
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
			continue
		}
		if !isPDFWhitespace(c) {
			return
		}
		l.pos++
	}
}

func (l *contentLexer) readRegular() string {
	start := l.pos
	l.pos++ // consume leading char (may be '/')
	for l.pos < len(l.data) && !isPDFWhitespace(l.data[l.pos]) && !isPDFDelimiter(l.data[l.pos]) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

func (l *contentLexer) skipLiteralString() {
	depth := 0
	for ; l.pos < len(l.data); l.pos++ {
		switch l.data[l.pos] {
		case '\\':
			l.pos++ // escaped char
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				l.pos++
				return
			}
		}
	}
}

func (l *contentLexer) skipHexString() {
	for ; l.pos < len(l.data); l.pos++ {
		if l.data[l.pos] == '>' {
			l.pos++
			return
		}
	}
}

func (l *contentLexer) skipInlineImage() {
	for l.pos+1 < len(l.data) {
		if l.data[l.pos] == 'E' && l.data[l.pos+1] == 'I' &&
			(l.pos == 0 || isPDFWhitespace(l.data[l.pos-1])) {
			l.pos += 2
			return
		}
		l.pos++
	}
	l.pos = len(l.data)
}

func isPDFWhitespace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isPDFDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

package main

// tokenType is the kind of a single command-line literal
type tokenType int

const (
	tokenEOF tokenType = iota
	tokenNumber
	tokenString
	tokenBoolean
	tokenError
	tokenCell
	tokenRange
	tokenIdentifier
	tokenInvalid
	tokenUnterminated
)

const (
	charNull       = 0
	charTab        = '\t'
	charNewline    = '\n'
	charReturn     = '\r'
	charSpace      = ' '
	charQuote      = '"'
	charApostrophe = '\''
	charHash       = '#'
	charDollar     = '$'
	charPlus       = '+'
	charMinus      = '-'
	charPeriod     = '.'
	charColon      = ':'
	charUnderscore = '_'
	charExclaim    = '!'
	charQuestion   = '?'
	charSlash      = '/'
)

// token is one lexed literal. for strings value is unescaped; for
// references it is the reference text as written.
type token struct {
	typ   tokenType
	value string
	pos   int
}

// lexer scans the literal forms accepted on the command line: numbers,
// quoted strings, booleans, error literals and sheet-qualified references.
// there are no operators or function calls.
type lexer struct {
	runes []rune
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{runes: []rune(input)}
}

// classify reads input as exactly one literal. input holding anything past
// the first token, or no literal at all, is reported as an identifier so
// the caller can keep it as text.
func classify(input string) (token, error) {
	l := newLexer(input)
	tok := l.next()
	if tok.typ == tokenUnterminated {
		return tok, errUnterminated
	}
	l.skipWhitespace()
	if tok.typ == tokenEOF || tok.typ == tokenInvalid || l.pos < len(l.runes) {
		return token{typ: tokenIdentifier, value: input}, nil
	}
	return tok, nil
}

// next returns the next token from the input
func (l *lexer) next() token {
	l.skipWhitespace()

	if l.pos >= len(l.runes) {
		return token{typ: tokenEOF, pos: l.pos}
	}

	ch := l.current()
	switch {
	case ch == charQuote:
		return l.scanString()
	case ch == charApostrophe:
		return l.scanWorksheetRef()
	case ch == charHash:
		return l.scanErrorLiteral()
	case l.isDigit(ch) || (ch == charPeriod && l.isDigit(l.peek(1))):
		return l.scanNumber()
	case ch == charPlus || ch == charMinus:
		// a sign only belongs to a number literal
		if l.isDigit(l.peek(1)) || (l.peek(1) == charPeriod && l.isDigit(l.peek(2))) {
			return l.scanNumber()
		}
	case l.isAlpha(ch) || ch == charUnderscore:
		return l.scanIdentifierOrRef()
	}

	start := l.pos
	l.pos++
	return token{typ: tokenInvalid, value: "unexpected character: " + string(ch), pos: start}
}

func (l *lexer) substring(start, end int) string {
	if start < 0 || end > len(l.runes) || start > end {
		return ""
	}
	return string(l.runes[start:end])
}

func (l *lexer) current() rune {
	if l.pos >= len(l.runes) {
		return charNull
	}
	return l.runes[l.pos]
}

func (l *lexer) peek(offset int) rune {
	pos := l.pos + offset
	if pos >= len(l.runes) || pos < 0 {
		return charNull
	}
	return l.runes[pos]
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.runes) {
		switch l.current() {
		case charSpace, charTab, charNewline, charReturn:
			l.pos++
		default:
			return
		}
	}
}

func (l *lexer) isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func (l *lexer) isAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func (l *lexer) isAlphaNumeric(ch rune) bool {
	return l.isAlpha(ch) || l.isDigit(ch)
}

// scanNumber scans an optionally signed number with decimals and an
// exponent
func (l *lexer) scanNumber() token {
	start := l.pos

	if l.current() == charPlus || l.current() == charMinus {
		l.pos++
	}

	for l.isDigit(l.current()) {
		l.pos++
	}

	if l.current() == charPeriod && l.isDigit(l.peek(1)) {
		l.pos++
		for l.isDigit(l.current()) {
			l.pos++
		}
	}

	if l.current() == 'e' || l.current() == 'E' {
		saved := l.pos
		l.pos++
		if l.current() == charPlus || l.current() == charMinus {
			l.pos++
		}
		if !l.isDigit(l.current()) {
			// not an exponent, leave the 'e' for the caller
			l.pos = saved
		} else {
			for l.isDigit(l.current()) {
				l.pos++
			}
		}
	}

	return token{typ: tokenNumber, value: l.substring(start, l.pos), pos: start}
}

// scanString scans a double-quoted string. "" inside is a literal quote.
func (l *lexer) scanString() token {
	start := l.pos
	l.pos++

	var result []rune
	for l.pos < len(l.runes) {
		ch := l.current()
		if ch != charQuote {
			result = append(result, ch)
			l.pos++
			continue
		}
		if l.peek(1) == charQuote {
			result = append(result, charQuote)
			l.pos += 2
			continue
		}
		l.pos++
		return token{typ: tokenString, value: string(result), pos: start}
	}

	return token{typ: tokenUnterminated, value: "unclosed string literal", pos: start}
}

// scanErrorLiteral scans #NAME?, #DIV/0! and the other error codes. the
// code itself is checked by the caller.
func (l *lexer) scanErrorLiteral() token {
	start := l.pos
	l.pos++
	for {
		ch := l.current()
		if !l.isAlphaNumeric(ch) && ch != charSlash && ch != charExclaim && ch != charQuestion && ch != charUnderscore {
			break
		}
		l.pos++
	}
	return token{typ: tokenError, value: l.substring(start, l.pos), pos: start}
}

// scanIdentifierOrRef scans a word. TRUE and FALSE are booleans and a word
// followed by ! is a sheet name. a bare cell like A1 has no sheet to read
// from, so it stays an identifier.
func (l *lexer) scanIdentifierOrRef() token {
	start := l.pos
	for l.isAlphaNumeric(l.current()) || l.current() == charUnderscore || l.current() == charPeriod {
		l.pos++
	}

	value := l.substring(start, l.pos)
	switch upper := toUpper(value); upper {
	case "TRUE", "FALSE":
		return token{typ: tokenBoolean, value: upper, pos: start}
	}

	if l.current() == charExclaim {
		return l.scanCellOrRange(start)
	}
	return token{typ: tokenIdentifier, value: value, pos: start}
}

// scanWorksheetRef scans a reference whose sheet name is in single quotes.
// '' inside the name is a literal apostrophe.
func (l *lexer) scanWorksheetRef() token {
	start := l.pos
	l.pos++

	for {
		if l.pos >= len(l.runes) {
			return token{typ: tokenInvalid, value: "unclosed worksheet name", pos: start}
		}
		if l.current() == charApostrophe {
			if l.peek(1) != charApostrophe {
				break
			}
			l.pos++
		}
		l.pos++
	}
	if l.pos == start+1 {
		return token{typ: tokenInvalid, value: "empty worksheet name", pos: start}
	}
	l.pos++

	if l.current() != charExclaim {
		return token{typ: tokenInvalid, value: "not a worksheet reference", pos: start}
	}
	return l.scanCellOrRange(start)
}

// scanCellOrRange scans the A1 or A1:B2 part after a sheet name. the
// lexer is positioned on the !.
func (l *lexer) scanCellOrRange(start int) token {
	l.pos++

	if !l.scanCell() {
		return token{typ: tokenInvalid, value: "invalid cell reference after worksheet", pos: start}
	}
	if l.current() != charColon {
		return token{typ: tokenCell, value: l.substring(start, l.pos), pos: start}
	}

	l.pos++
	if !l.scanCell() {
		return token{typ: tokenInvalid, value: "invalid range reference", pos: start}
	}
	return token{typ: tokenRange, value: l.substring(start, l.pos), pos: start}
}

// scanCell consumes one cell such as B12 or $B$12
func (l *lexer) scanCell() bool {
	start := l.pos
	for l.isAlphaNumeric(l.current()) || l.current() == charDollar {
		l.pos++
	}
	return isCell(l.substring(start, l.pos))
}

// isCell checks for one to three column letters and a row number, each
// optionally preceded by $
func isCell(s string) bool {
	i := 0
	if i < len(s) && s[i] == charDollar {
		i++
	}
	letters := i
	for i < len(s) && (s[i] >= 'A' && s[i] <= 'Z' || s[i] >= 'a' && s[i] <= 'z') {
		i++
	}
	if i == letters || i-letters > 3 {
		return false
	}
	if i < len(s) && s[i] == charDollar {
		i++
	}
	digits := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i > digits && i == len(s)
}

func toUpper(s string) string {
	result := []rune(s)
	for i, ch := range result {
		if ch >= 'a' && ch <= 'z' {
			result[i] = ch - 32
		}
	}
	return string(result)
}

package cif

// lineTokenizer splits a single mmCIF line into tokens.
type lineTokenizer struct {
	line   []byte
	pos    int
	lineNo int
	tokens []Token
}

// tokenizeLine appends the tokens of line to dst[:0]. A line starting with
// '#' is a comment and yields no tokens; a '#' at the start of a later token
// discards the rest of the line. lineNo is only used for error messages.
func tokenizeLine(dst []Token, line []byte, lineNo int) ([]Token, error) {
	tz := lineTokenizer{line: line, lineNo: lineNo, tokens: dst[:0]}
	if err := tz.run(); err != nil {
		return dst[:0], err
	}
	return tz.tokens, nil
}

func (tz *lineTokenizer) run() error {
	if len(tz.line) > 0 && tz.line[0] == '#' {
		return nil
	}

	for {
		tz.skipBlanks()
		if tz.pos >= len(tz.line) {
			return nil
		}

		switch tz.line[tz.pos] {
		case '#':
			return nil
		case '"', '\'':
			if err := tz.consumeQuoted(); err != nil {
				return err
			}
		default:
			tz.consumeUnquoted()
		}
	}
}

func (tz *lineTokenizer) skipBlanks() {
	for tz.pos < len(tz.line) && isBlank(tz.line[tz.pos]) {
		tz.pos++
	}
}

// consumeQuoted reads a quoted value. The value ends at the next matching
// quote that is followed by a blank or the end of the line, so embedded
// quotes such as 'O5' B' are allowed.
func (tz *lineTokenizer) consumeQuoted() error {
	quote := tz.line[tz.pos]
	start := tz.pos + 1
	for end := start; end < len(tz.line); end++ {
		if tz.line[end] != quote {
			continue
		}
		if end+1 == len(tz.line) || isBlank(tz.line[end+1]) {
			tz.emit(TokenValue, tz.line[start:end])
			tz.pos = end + 1
			return nil
		}
	}

	kind := "Single"
	if quote == '"' {
		kind = "Double"
	}
	return formatErrorf(tz.lineNo, "%s-quoted string not terminated in file, line %d", kind, tz.lineNo)
}

func (tz *lineTokenizer) consumeUnquoted() {
	start := tz.pos
	for tz.pos < len(tz.line) && !isBlank(tz.line[tz.pos]) {
		tz.pos++
	}
	text := tz.line[start:tz.pos]
	tz.emit(classifyUnquoted(text), text)
}

func (tz *lineTokenizer) emit(kind TokenKind, text []byte) {
	tz.tokens = append(tz.tokens, Token{Kind: kind, Text: text})
}

func classifyUnquoted(text []byte) TokenKind {
	switch {
	case string(text) == "loop_":
		return TokenLoop
	case hasPrefix(text, "data_"):
		return TokenData
	case hasPrefix(text, "save_"):
		return TokenSave
	case text[0] == '_':
		return TokenVariable
	case string(text) == ".":
		return TokenOmitted
	case string(text) == "?":
		return TokenUnknown
	default:
		return TokenValue
	}
}

func hasPrefix(text []byte, prefix string) bool {
	return len(text) >= len(prefix) && string(text[:len(prefix)]) == prefix
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

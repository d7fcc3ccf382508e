package cif

// TokenKind classifies an mmCIF token.
type TokenKind uint8

const (
	// TokenValue is a literal value, quoted, unquoted or multiline.
	TokenValue TokenKind = iota + 1

	// TokenOmitted is the bare "." placeholder.
	TokenOmitted

	// TokenUnknown is the bare "?" placeholder.
	TokenUnknown

	// TokenLoop is the "loop_" keyword.
	TokenLoop

	// TokenData is a "data_" block header.
	TokenData

	// TokenSave is a "save_" frame delimiter.
	TokenSave

	// TokenVariable is a "_category.keyword" name.
	TokenVariable
)

var tokenKindNames = [...]string{
	TokenValue:    "Value",
	TokenOmitted:  "Omitted",
	TokenUnknown:  "Unknown",
	TokenLoop:     "Loop",
	TokenData:     "Data",
	TokenSave:     "Save",
	TokenVariable: "Variable",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) && tokenKindNames[k] != "" {
		return tokenKindNames[k]
	}
	return "TokenKind(?)"
}

// Token is one lexical unit of an mmCIF line. Text views the line (or the
// assembled multiline value) it came from and is only valid until the next
// line is read. For quoted values the quotes are not included.
type Token struct {
	Kind TokenKind
	Text []byte
}

// isValue reports whether the token can fill a keyword slot.
func (t Token) isValue() bool {
	return t.Kind == TokenValue || t.Kind == TokenOmitted || t.Kind == TokenUnknown
}

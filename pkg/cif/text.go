package cif

import "bytes"

// readText processes one mmCIF data block. Single values are copied; loop
// rows that fit on the current line are borrowed from it.
func (r *Reader) readText() (bool, error) {
	r.freeze()

	var (
		nData  int
		inSave bool
	)

loop:
	for {
		tok, ok, err := r.nextToken(true)
		if err != nil {
			return false, err
		}
		if !ok {
			break
		}

		switch tok.Kind {
		case TokenVariable:
			err = r.readValue(tok)
		case TokenData:
			nData++
			if nData > 1 {
				r.ungetToken()
				break loop
			}
			r.blockName = string(tok.Text[len("data_"):])
			r.blocks++
			r.logger.Debug("reading data block", "name", r.blockName, "line", r.line)
		case TokenLoop:
			err = r.readLoop()
		case TokenSave:
			inSave = !inSave
			if !inSave {
				if err = r.deliverAll(); err == nil {
					err = r.endFrameAll()
				}
			}
		default:
			// Stray values at the top level are ignored.
		}
		if err != nil {
			return false, err
		}
	}

	if err := r.deliverAll(); err != nil {
		return false, err
	}
	if err := r.finalizeAll(); err != nil {
		return false, err
	}
	return nData > 1, nil
}

// nextToken returns the next token, reading lines as needed. ok is false at
// end of input. With ignoreMultiline set, multiline values are consumed but
// not assembled and the resulting token has no text.
func (r *Reader) nextToken(ignoreMultiline bool) (Token, bool, error) {
	if r.tokenIndex >= len(r.tokens) {
		r.tokens = r.tokens[:0]
		r.tokenIndex = 0
		for {
			r.line++
			line, eof, err := r.src.ReadLine()
			if err != nil {
				return Token{}, false, err
			}

			if len(line) > 0 && line[0] == ';' {
				if err := r.readMultiline(line[1:], ignoreMultiline); err != nil {
					return Token{}, false, err
				}
			} else if r.tokens, err = tokenizeLine(r.tokens, line, r.line); err != nil {
				return Token{}, false, err
			}

			if len(r.tokens) > 0 || eof {
				break
			}
		}
	}

	if r.tokenIndex >= len(r.tokens) {
		return Token{}, false, nil
	}
	tok := r.tokens[r.tokenIndex]
	r.tokenIndex++
	return tok, true, nil
}

// ungetToken pushes back the token most recently returned by nextToken.
func (r *Reader) ungetToken() {
	r.tokenIndex--
}

// remainingLineTokens is the number of tokens left on the current line.
func (r *Reader) remainingLineTokens() int {
	return len(r.tokens) - r.tokenIndex
}

// readMultiline assembles a ';'-delimited value whose first line (without
// the ';') is first. The value becomes the only token of the current line.
func (r *Reader) readMultiline(first []byte, ignore bool) error {
	startLine := r.line
	if !ignore {
		r.multiline.assign(first)
	}

	for {
		r.line++
		line, eof, err := r.src.ReadLine()
		if err != nil {
			return err
		}
		if len(line) > 0 && line[0] == ';' {
			var text []byte
			if !ignore {
				text = r.multiline.bytes()
			}
			r.tokens = append(r.tokens[:0], Token{Kind: TokenValue, Text: text})
			r.tokenIndex = 0
			return nil
		}
		if !ignore {
			r.multiline.appendByte('\n')
			r.multiline.append(line)
		}
		if eof {
			break
		}
	}

	return formatErrorf(startLine,
		"End of file while reading multiline string which started on line %d", startLine)
}

// splitVariable splits "_category.keyword" at its first period.
func (r *Reader) splitVariable(name []byte) (string, string, error) {
	dot := bytes.IndexByte(name, '.')
	if dot < 0 {
		return "", "", formatErrorf(r.line,
			"No period found in mmCIF variable name (%s) at line %d", name, r.line)
	}
	return string(name[:dot]), string(name[dot+1:]), nil
}

// readValue handles a "_category.keyword value" pair outside a loop.
func (r *Reader) readValue(variable Token) error {
	catName, kwName, err := r.splitVariable(variable.Text)
	if err != nil {
		return err
	}

	cat, ok, err := r.lookupCategory(catName)
	if err != nil || !ok {
		return err
	}
	kw, ok, err := r.lookupKeyword(cat, kwName)
	if err != nil || !ok {
		return err
	}

	tok, ok, err := r.nextToken(false)
	if err != nil {
		return err
	}
	if ok {
		switch tok.Kind {
		case TokenValue:
			kw.setOwned(string(tok.Text))
			return nil
		case TokenOmitted:
			kw.setOmitted()
			return nil
		case TokenUnknown:
			kw.setUnknown()
			return nil
		default:
		}
	}
	return formatErrorf(r.line,
		"No valid value found for %s.%s in file, line %d", cat.name, kw.name, r.line)
}

// readLoop handles a "loop_" construct: a header of variables of a single
// category followed by rows of values.
func (r *Reader) readLoop() error {
	cat, keywords, err := r.readLoopHeader()
	if err != nil || cat == nil {
		return err
	}
	return r.readLoopRows(cat, keywords)
}

// readLoopHeader reads the loop's variables. A nil category means the loop
// is not registered; its values are then left for the top level to skip.
// Unregistered keywords get a nil slot so that columns stay aligned.
func (r *Reader) readLoopHeader() (*Category, []*Keyword, error) {
	var (
		cat      *Category
		catName  string
		keywords []*Keyword
	)

	for {
		tok, ok, err := r.nextToken(false)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return cat, keywords, nil
		}

		switch {
		case tok.Kind == TokenVariable:
			name, kwName, err := r.splitVariable(tok.Text)
			if err != nil {
				return nil, nil, err
			}
			if len(keywords) == 0 && catName == "" {
				catName = name
				if cat, _, err = r.lookupCategory(name); err != nil {
					return nil, nil, err
				}
			} else if compareFold(name, catName) != 0 {
				return nil, nil, formatErrorf(r.line,
					"mmCIF files cannot contain multiple categories within a single loop at line %d", r.line)
			}

			var kw *Keyword
			if cat != nil {
				if kw, _, err = r.lookupKeyword(cat, kwName); err != nil {
					return nil, nil, err
				}
			}
			keywords = append(keywords, kw)

		case tok.isValue():
			r.ungetToken()
			return cat, keywords, nil

		default:
			return nil, nil, formatErrorf(r.line,
				"Was expecting a keyword or value for loop at line %d", r.line)
		}
	}
}

// readLoopRows reads complete rows until a non-value token ends the loop,
// delivering each row as it completes.
func (r *Reader) readLoopRows(cat *Category, keywords []*Keyword) error {
	width := len(keywords)
	for {
		oneLine := r.remainingLineTokens() >= width
		for i := range width {
			tok, ok, err := r.nextToken(false)
			if err != nil {
				return err
			}

			if !ok || !tok.isValue() {
				if i == 0 {
					if ok {
						r.ungetToken()
					}
					return nil
				}
				return formatErrorf(r.line,
					"Wrong number of data values in loop (should be an exact multiple of the number of keys) at line %d",
					r.line)
			}

			kw := keywords[i]
			if kw == nil {
				continue
			}
			switch tok.Kind {
			case TokenOmitted:
				kw.setOmitted()
			case TokenUnknown:
				kw.setUnknown()
			default:
				if oneLine {
					kw.setBorrowed(tok.Text)
				} else {
					kw.setOwned(string(tok.Text))
				}
			}
		}

		if err := r.deliver(cat, true); err != nil {
			return err
		}
	}
}

package frontend

// Lex tokenizes src (from the named file, used only for diagnostics) into a
// complete token slice. The scanner itself runs concurrently on its own
// goroutine, in the vslc idiom, but callers here want the whole stream at
// once: the Pratt parser needs arbitrary lookahead over the token slice
// rather than a single-token channel pull. newLexer NFC-normalizes src
// before scanning begins.
func Lex(file, src string) ([]Token, error) {
	l := newLexer(file, src)
	go l.run()

	var toks []Token
	for t := range l.items {
		toks = append(toks, t)
		if t.Kind == KindEnd || t.Kind == KindError {
			break
		}
	}
	select {
	case err := <-l.err:
		if err != nil {
			return toks, err
		}
	default:
	}
	return toks, nil
}

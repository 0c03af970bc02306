package frontend

// keywords is the fixed reserved-word set from spec.md §4.1. Indexed the
// way vslc/src/frontend/lang.go indexes its reserved words — by length
// first — since a length check rejects most non-keyword identifiers before
// a single string comparison is needed.
var keywordsByLen = map[int][]string{
	2: {"as", "in", "is", "if", "or"},
	3: {"and", "def", "for", "not", "try"},
	4: {"else", "elif", "from", "pass"},
	5: {"break", "class", "raise", "trait", "while", "yield"},
	6: {"except", "import", "return"},
	8: {"continue"},
}

func isKeyword(s string) bool {
	for _, w := range keywordsByLen[len(s)] {
		if w == s {
			return true
		}
	}
	return false
}

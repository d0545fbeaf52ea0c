package service

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/jask/bitacora/internal/bitacora"
)

// FilterMovements keeps rows where any query token matches: a case-insensitive
// substring of a field, or a word within typo distance (1 for tokens of 4-7
// runes, 2 for 8+). Tokens holding digits (cheque numbers, times) must match
// exactly. Order is preserved. An empty query returns rows as is.
func FilterMovements(rows []bitacora.MovementRecord, query string) []bitacora.MovementRecord {
	tokens := words(query)
	if len(tokens) == 0 {
		return rows
	}
	out := make([]bitacora.MovementRecord, 0, len(rows))
	for _, r := range rows {
		if rowMatches(r, tokens) {
			out = append(out, r)
		}
	}
	return out
}

func rowMatches(r bitacora.MovementRecord, tokens []string) bool {
	fields := r.Cells()
	lowered := make([]string, len(fields))
	for i, f := range fields {
		lowered[i] = strings.ToLower(f)
	}
	for _, tok := range tokens {
		for _, f := range lowered {
			if strings.Contains(f, tok) {
				return true
			}
		}
		maxDist := typoBudget(tok)
		if maxDist == 0 {
			continue
		}
		for _, f := range lowered {
			for _, w := range words(f) {
				if levenshtein.ComputeDistance(tok, w) <= maxDist {
					return true
				}
			}
		}
	}
	return false
}

func typoBudget(tok string) int {
	if strings.IndexFunc(tok, unicode.IsDigit) >= 0 {
		return 0
	}
	switch n := utf8.RuneCountInString(tok); {
	case n >= 8:
		return 2
	case n >= 4:
		return 1
	default:
		return 0
	}
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ':' && r != '-'
	})
}

// Package query turns filtered OCR spans into a marketplace search phrase.
//
// A card's name is printed at the top of the card, so the query is made of the
// first few confident words in reading order.
package query

import (
	"strings"

	"github.com/ironsheep/card-scanner/internal/ocr"
)

// MaxTerms is the number of spans used to build a query.
const MaxTerms = 3

// Build joins the trimmed text of the first MaxTerms non-empty spans with a
// single space. It returns "" when no span has text.
//
// Blank spans do not count toward MaxTerms: spans "", "Mewtwo", "GX", "Promo"
// build "Mewtwo GX Promo". Callers pass confidence-filtered spans, so Name
// likewise reports the first confident word rather than the first raw one.
func Build(spans []ocr.TextSpan) string {
	return BuildN(spans, MaxTerms)
}

// BuildN is Build with an explicit term limit. A limit below 1 yields "".
func BuildN(spans []ocr.TextSpan, limit int) string {
	if limit < 1 {
		return ""
	}

	terms := make([]string, 0, limit)
	for _, s := range spans {
		text := strings.Join(strings.Fields(s.Text), " ")
		if text == "" {
			continue
		}
		terms = append(terms, text)
		if len(terms) == limit {
			break
		}
	}
	return strings.Join(terms, " ")
}

// Name returns the card name: the text of the first span that is not blank.
func Name(spans []ocr.TextSpan) (string, bool) {
	for _, s := range spans {
		if text := strings.TrimSpace(s.Text); text != "" {
			return text, true
		}
	}
	return "", false
}

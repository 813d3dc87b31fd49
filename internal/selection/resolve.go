package selection

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Reasons an answer is not accepted. None of them are failures; they all
// mean "no selection made".
var (
	ErrNoReference        = errors.New("answer contains no URL")
	ErrMultipleReferences = errors.New("answer contains more than one URL")
	ErrUnknownReference   = errors.New("answer URL is not among the candidates")
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

const trailingPunctuation = ".,;:)]>\"'"

// Candidate is one summarized item offered for selection.
type Candidate struct {
	ItemID  int64
	Title   string
	URL     string
	Summary string
}

// References returns every URL in text, in order, exactly as written.
// Repeated URLs are kept. Trailing punctuation is left on; Resolve decides
// whether it belongs to the URL.
func References(text string) []string {
	return urlPattern.FindAllString(text, -1)
}

// Resolve maps an answer to a candidate. The answer must contain exactly one
// URL and that URL must equal exactly one candidate's URL. The URL is first
// compared as written, so candidates ending in ")" or "." still match. While
// that finds nothing, one trailing punctuation character at a time is
// dropped and the comparison repeated.
func Resolve(answer string, candidates []Candidate) (Candidate, error) {
	refs := References(answer)
	switch {
	case len(refs) == 0:
		return Candidate{}, ErrNoReference
	case len(refs) > 1:
		return Candidate{}, fmt.Errorf("%w: found %d", ErrMultipleReferences, len(refs))
	}
	raw := refs[0]
	ref := raw
	found, matched := matchCandidate(ref, candidates)
	for matched == 0 && ref != "" && strings.ContainsRune(trailingPunctuation, rune(ref[len(ref)-1])) {
		ref = ref[:len(ref)-1]
		found, matched = matchCandidate(ref, candidates)
	}
	if matched != 1 {
		return Candidate{}, fmt.Errorf("%w: %s", ErrUnknownReference, raw)
	}
	return found, nil
}

func matchCandidate(ref string, candidates []Candidate) (Candidate, int) {
	var (
		found   Candidate
		matched int
	)
	for _, c := range candidates {
		if strings.TrimSpace(c.URL) == ref {
			found = c
			matched++
		}
	}
	return found, matched
}

// SummariesBlock renders candidates for the {summaries_block} placeholder.
func SummariesBlock(candidates []Candidate) string {
	var b strings.Builder
	for i, c := range candidates {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Candidate %d:\nTitle: %s\nURL: %s\nSummary: %s\n---", i+1, c.Title, c.URL, c.Summary)
	}
	return b.String()
}

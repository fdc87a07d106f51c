// Package tokenize splits French sentences into lower-cased word tokens.
//
// The rules are tuned to French orthography: accented letters are word
// characters, hyphenated forms ("a-t-il", "peut-être") stay whole and an
// elided article or pronoun is split from its host word ("l'arbre" gives
// "l" and "arbre").
package tokenize

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrEmptyInput is returned for empty or whitespace-only input.
	ErrEmptyInput = errors.New("tokenize: empty input")
	// ErrInvalidText is returned when the input is not valid UTF-8 text.
	ErrInvalidText = errors.New("tokenize: input is not valid text")
)

// reRun matches a run of word characters, apostrophes and hyphens.
var reRun = regexp.MustCompile(`[\p{L}\p{M}\p{N}_'’-]+`)

// apostrophes maps the typographic apostrophe onto the ASCII one.
var apostrophes = strings.NewReplacer("’", "'", "ʼ", "'")

// Tokenize lower-cases text and returns its word tokens in order. A token
// holds at least one letter, digit or underscore, so dashes used as
// punctuation are dropped.
//
// The result may be empty when the input holds only punctuation; callers
// that need at least one token check the length themselves.
func Tokenize(text string) ([]string, error) {
	if !utf8.ValidString(text) {
		return nil, ErrInvalidText
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	text = Normalize(text)

	var tokens []string
	for _, run := range reRun.FindAllString(text, -1) {
		for piece := range strings.SplitSeq(run, "'") {
			piece = strip(piece)
			if strings.IndexFunc(piece, isWordRune) >= 0 {
				tokens = append(tokens, piece)
			}
		}
	}
	return tokens, nil
}

// Normalize returns the canonical form used for matching: NFC composed,
// lower-cased, with typographic apostrophes folded to ASCII.
func Normalize(text string) string {
	text = norm.NFC.String(text)
	text = strings.ToLower(text)
	return apostrophes.Replace(text)
}

// strip removes every character that is not a word character, an
// apostrophe or a hyphen.
func strip(s string) string {
	return strings.Map(func(r rune) rune {
		if isWordRune(r) || r == '\'' || r == '-' {
			return r
		}
		return -1
	}, s)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

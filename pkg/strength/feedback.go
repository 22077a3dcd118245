// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package strength

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nbutton23/zxcvbn-go/match"
)

// The zxcvbn port in use does not produce feedback, so it's rebuilt here from the match
// sequence using the same rules as the reference zxcvbn implementation.

const extraWord = "Add another word or two. Uncommon words are better."

type feedback struct {
	warning     string
	suggestions []string
}

func defaultSuggestions() []string {
	return []string{
		"Use a few words, avoid common phrases",
		"No need for symbols, digits, or uppercase letters",
	}
}

// feedbackFor builds the feedback of a score. password is the assessed credential, which the
// match positions index into by rune.
func feedbackFor(score int, password string, sequence []match.Match) feedback {
	if len(sequence) == 0 {
		return feedback{suggestions: defaultSuggestions()}
	}

	if score >= MinAcceptableScore {
		return feedback{suggestions: []string{}}
	}

	// The longest match is the one that matters most.
	longest := sequence[0]
	for _, m := range sequence[1:] {
		if utf8.RuneCountInString(m.Token) > utf8.RuneCountInString(longest.Token) {
			longest = m
		}
	}

	fb := matchFeedback(longest, sourceToken([]rune(password), longest), len(sequence) == 1)
	fb.suggestions = append([]string{extraWord}, fb.suggestions...)
	return fb
}

// sourceToken returns the part of the password a match covers. Dictionary matches found through
// l33t substitutions carry the substituted word as their token, e.g. "password" for "p@ssw0rd".
// Substitutions replace one character with another, so positions line up with the password.
func sourceToken(password []rune, m match.Match) string {
	if m.I < 0 || m.J < m.I || m.J >= len(password) || m.J-m.I+1 != utf8.RuneCountInString(m.Token) {
		return m.Token
	}
	return string(password[m.I : m.J+1])
}

func matchFeedback(m match.Match, source string, sole bool) feedback {
	pattern := strings.ToLower(m.Pattern)
	switch {
	case strings.Contains(pattern, "dictionary"):
		return dictionaryFeedback(m, source, sole)
	case strings.Contains(pattern, "spatial"):
		return feedback{
			warning:     "Short keyboard patterns are easy to guess",
			suggestions: []string{"Use a longer keyboard pattern with more turns"},
		}
	case strings.Contains(pattern, "repeat"):
		warning := `Repeats like "abcabcabc" are only slightly harder to guess than "abc"`
		if isSingleCharRepeat(m.Token) {
			warning = `Repeats like "aaa" are easy to guess`
		}
		return feedback{
			warning:     warning,
			suggestions: []string{"Avoid repeated words and characters"},
		}
	case strings.Contains(pattern, "seq"):
		return feedback{
			warning:     "Sequences like abc or 6543 are easy to guess",
			suggestions: []string{"Avoid sequences"},
		}
	case strings.Contains(pattern, "date"):
		return feedback{
			warning:     "Dates are often easy to guess",
			suggestions: []string{"Avoid dates and years that are associated with you"},
		}
	}

	return feedback{}
}

func dictionaryFeedback(m match.Match, source string, sole bool) feedback {
	dict := strings.ToLower(m.DictionaryName)
	l33t := source != m.Token

	var fb feedback
	switch {
	case strings.Contains(dict, "password"):
		if sole && !l33t {
			fb.warning = "This is a very common password"
		} else {
			fb.warning = "This is similar to a commonly used password"
		}
	case strings.Contains(dict, "english"):
		if sole {
			fb.warning = "A word by itself is easy to guess"
		}
	case strings.Contains(dict, "name"):
		if sole {
			fb.warning = "Names and surnames by themselves are easy to guess"
		} else {
			fb.warning = "Common names and surnames are easy to guess"
		}
	}

	token := source
	first, _ := utf8.DecodeRuneInString(token)
	switch {
	case strings.ToUpper(token) == token && strings.ToLower(token) != token:
		fb.suggestions = append(fb.suggestions, "All-uppercase is almost as easy to guess as all-lowercase")
	case unicode.IsUpper(first):
		fb.suggestions = append(fb.suggestions, "Capitalization doesn't help very much")
	}

	if l33t {
		fb.suggestions = append(fb.suggestions, "Predictable substitutions like '@' instead of 'a' don't help very much")
	}

	return fb
}

func isSingleCharRepeat(token string) bool {
	first, _ := utf8.DecodeRuneInString(token)
	for _, r := range token {
		if r != first {
			return false
		}
	}
	return true
}

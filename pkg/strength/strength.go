// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

// Package strength scores how hard a credential is to guess, independently of any breach
// lookup. Guess estimation is done by zxcvbn, this package maps its output to a label, a crack
// time and human readable feedback.
package strength

import (
	"github.com/nbutton23/zxcvbn-go"

	"github.com/alvinbaena/pwdguard/pkg/secret"
)

// MinAcceptableScore is the lowest score that does not need replacing.
const MinAcceptableScore = 3

var labels = [...]string{"Very Weak", "Weak", "Medium", "Strong", "Very Strong"}

// Assessment of a single credential.
type Assessment struct {
	Score       int      `json:"score"`
	Label       string   `json:"label"`
	CrackTime   string   `json:"crack_time"`
	Warning     string   `json:"warning,omitempty"`
	Suggestions []string `json:"suggestions"`
}

// Weak reports whether the credential should be replaced.
func (a Assessment) Weak() bool {
	return a.Score < MinAcceptableScore
}

// Label returns the name of a 0-4 score. Out of range scores are clamped.
func Label(score int) string {
	return labels[clamp(score)]
}

// Estimator is stateless apart from the user inputs, which are penalised when they show up in
// a credential (e.g. the email address the alert would be sent to).
type Estimator struct {
	userInputs []string
}

func New(userInputs ...string) *Estimator {
	return &Estimator{userInputs: userInputs}
}

// Assess scores the credential as is. Whitespace is part of the credential and is not trimmed.
// The crack time assumes an offline attack against a slow hash, 10k guesses per second.
func (e *Estimator) Assess(credential secret.Credential) Assessment {
	if len(credential) == 0 {
		return Assessment{
			Score:       0,
			Label:       labels[0],
			CrackTime:   "instant",
			Suggestions: defaultSuggestions(),
		}
	}

	password := string(credential)
	result := zxcvbn.PasswordStrength(password, e.userInputs)
	score := clamp(result.Score)
	fb := feedbackFor(score, password, result.MatchSequence)

	return Assessment{
		Score:       score,
		Label:       labels[score],
		CrackTime:   result.CrackTimeDisplay,
		Warning:     fb.warning,
		Suggestions: fb.suggestions,
	}
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score >= len(labels) {
		return len(labels) - 1
	}
	return score
}

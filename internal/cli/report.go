// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/alvinbaena/pwdguard/pkg/generator"
	"github.com/alvinbaena/pwdguard/pkg/hibp"
	"github.com/alvinbaena/pwdguard/pkg/strength"
)

var (
	danger  = color.New(color.FgRed, color.Bold)
	caution = color.New(color.FgYellow)
	success = color.New(color.FgGreen)
	heading = color.New(color.Bold)

	printer = message.NewPrinter(language.English)
)

func scoreColor(score int) *color.Color {
	switch {
	case score < 2:
		return danger
	case score < strength.MinAcceptableScore:
		return caution
	default:
		return success
	}
}

func printAssessment(w io.Writer, a strength.Assessment) {
	_, _ = heading.Fprint(w, "Strength: ")
	_, _ = scoreColor(a.Score).Fprintf(w, "%s (%d/4)\n", a.Label, a.Score)
	_, _ = fmt.Fprintf(w, "Estimated time to crack: %s\n", a.CrackTime)

	if a.Warning != "" {
		_, _ = caution.Fprintf(w, "Warning: %s\n", a.Warning)
	}
	if len(a.Suggestions) > 0 {
		_, _ = fmt.Fprintln(w, "Suggestions:")
		for _, s := range a.Suggestions {
			_, _ = fmt.Fprintf(w, "  - %s\n", s)
		}
	}
}

func printResult(w io.Writer, r hibp.Result) {
	switch r.Status {
	case hibp.Exposed:
		_, _ = danger.Fprintln(w, printer.Sprintf("WARNING: This password has been found in %d data breaches!", r.Count))
		_, _ = fmt.Fprintln(w, "It should not be used on any account.")
	case hibp.Clean:
		_, _ = success.Fprintln(w, "Good news: This password was not found in any known data breaches.")
	default:
		_, _ = caution.Fprintf(w, "Could not check breach status: %s.\n", r.Reason())
		_, _ = fmt.Fprintln(w, "This does not mean the password is safe, try again later.")
	}
}

func printCandidates(w io.Writer, candidates []generator.Candidate) {
	_, _ = heading.Fprintln(w, "Suggested replacement passwords:")
	for i, c := range candidates {
		_, _ = fmt.Fprintf(w, "  %d. %-24s %s\n", i+1, c.Password, c.Description)
	}
}

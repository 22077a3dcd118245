// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"fmt"
	"io"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/alvinbaena/pwdguard/internal/util"
	"github.com/alvinbaena/pwdguard/pkg/generator"
)

var (
	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate strong replacement password candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			util.ApplyCliSettings(verbose, profile, pprofPort)
			return generateCommand(cmd.OutOrStdout(), generator.New(), copyIndex)
		},
	}

	// Replaced in tests, there is no clipboard on CI machines.
	writeClipboard = clipboard.WriteAll
)

func init() {
	generateCmd.Flags().IntVar(&copyIndex, "copy", 0, "Copy the candidate with this number (1-5) to the clipboard")

	rootCmd.AddCommand(generateCmd)
}

func generateCommand(out io.Writer, gen *generator.Generator, copyN int) error {
	candidates, err := gen.Suggestions()
	if err != nil {
		return err
	}

	if copyN < 0 || copyN > len(candidates) {
		return fmt.Errorf("--copy must be between 1 and %d", len(candidates))
	}

	printCandidates(out, candidates)

	if copyN > 0 {
		if err = writeClipboard(candidates[copyN-1].Password); err != nil {
			log.Error().Err(err).Msg("could not copy the password to the clipboard")
			return nil
		}
		_, _ = success.Fprintf(out, "Candidate %d copied to the clipboard\n", copyN)
	}

	return nil
}

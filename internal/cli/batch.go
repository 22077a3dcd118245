// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/alvinbaena/pwdguard/internal/util"
	"github.com/alvinbaena/pwdguard/pkg/hibp"
)

// Range responses kept in memory during a batch run.
const batchCacheSize = 64 * 1024 * 1024

var (
	batchCmd = &cobra.Command{
		Use:   "batch",
		Short: "Check a file of passwords, one per line, against known data breaches",
		Long: "Check a file of passwords, one per line, against known data breaches. Results only identify " +
			"passwords by line number. Passwords sharing a hash prefix are looked up once.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return batchCommand(cmd)
		},
	}
)

//goland:noinspection GoUnhandledErrorResult
func init() {
	batchCmd.Flags().StringVarP(&inputFile, "in-file", "i", "", "File with one password per line, - for stdin (required)")
	batchCmd.MarkFlagRequired("in-file")
	batchCmd.Flags().StringVarP(&outFile, "out-file", "o", "", "Output file path. Can be absolute or relative. Defaults to stdout")
	batchCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite any existing files while writing the results.")
	batchCmd.Flags().BoolVarP(&hashed, "hashed", "s", false, "If the file contains Hexadecimal SHA1 hashes instead of plain text passwords.")
	batchCmd.Flags().IntVarP(&threads, "threads", "t", 0, "Number of concurrent lookups. If omitted defaults to twice the number of logical processors of the machine.")
	batchCmd.Flags().DurationVar(&timeout, "timeout", 0, "Timeout of each breach lookup request. Defaults to the configured lookup timeout")

	rootCmd.AddCommand(batchCmd)
}

func batchCommand(cmd *cobra.Command) error {
	util.ApplyCliSettings(verbose, profile, pprofPort)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	in, err := openInput(inputFile)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := openOutput(outFile, overwrite, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func(out io.WriteCloser) {
		if err = out.Close(); err != nil {
			log.Error().Err(err).Msg("error closing output file")
		}
	}(out)

	cache, err := hibp.NewRangeCache(newClient(cfg.Lookup), batchCacheSize)
	if err != nil {
		return err
	}
	defer cache.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := hibp.NewBatch(hibp.NewEngine(cache), out, threads).Process(ctx, in, hashed)
	if err != nil {
		return err
	}

	if summary.Unknown > 0 {
		log.Warn().Msgf("%d passwords could not be checked, run the batch again later for those lines", summary.Unknown)
	}
	return nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func openOutput(path string, overwrite bool, stdout io.Writer) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{stdout}, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("could not get absolute path of file: %w", err)
	}

	if !overwrite {
		if _, err = os.Stat(abs); err == nil {
			return nil, fmt.Errorf("file %s exists and overwrite flag is not set", abs)
		}
	}

	return os.Create(abs)
}

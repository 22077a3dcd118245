// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alvinbaena/pwdguard/internal/notify"
	"github.com/alvinbaena/pwdguard/internal/util"
	"github.com/alvinbaena/pwdguard/pkg/generator"
	"github.com/alvinbaena/pwdguard/pkg/hibp"
	"github.com/alvinbaena/pwdguard/pkg/secret"
	"github.com/alvinbaena/pwdguard/pkg/strength"
)

var (
	checkCmd = &cobra.Command{
		Use:   "check [password]",
		Short: "Check a password against known data breaches and estimate its strength",
		Long: "Check a password against known data breaches and estimate its strength. Without arguments the " +
			"password is read from a hidden prompt, or from the first line of stdin when it is not a terminal. " +
			"Passing the password as an argument leaves it in the shell history.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkCommand(cmd, args)
		},
	}
)

func init() {
	checkCmd.Flags().BoolVarP(&interactive, "interactive", "n", false, "Interactive mode. Keeps asking for passwords until ^C")
	checkCmd.Flags().BoolVarP(&hashed, "hashed", "s", false, "If the supplied password will be a Hexadecimal SHA1 hash or a plain text string.")
	checkCmd.Flags().DurationVar(&timeout, "timeout", 0, "Timeout of the breach lookup request. Defaults to the configured lookup timeout")

	rootCmd.AddCommand(checkCmd)
}

// checker runs a full check of one input and prints the report to out.
type checker struct {
	engine    *hibp.Engine
	estimator *strength.Estimator
	generator *generator.Generator
	// nil when email alerts are not configured
	notifier notify.Notifier
	out      io.Writer
	hashed   bool
	// askRecipient returns the address the alert goes to, false if the user declines. nil
	// when nobody can answer, e.g. when reading from a pipe.
	askRecipient func() (string, bool)
}

func checkCommand(cmd *cobra.Command, args []string) error {
	util.ApplyCliSettings(verbose, profile, pprofPort)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &checker{
		engine:    hibp.NewEngine(newClient(cfg.Lookup)),
		estimator: strength.New(),
		generator: generator.New(),
		notifier:  newNotifier(cfg.SMTP),
		out:       cmd.OutOrStdout(),
		hashed:    hashed,
	}

	tty := term.IsTerminal(int(os.Stdin.Fd()))
	if tty {
		c.askRecipient = promptRecipient
	}

	switch {
	case interactive:
		if !tty {
			return errors.New("interactive mode requires a terminal")
		}
		log.Info().Msgf("Running interactive session. ^C to exit")
		if err = c.runInteractiveSession(ctx, inputPrompt()); err != nil {
			if err.Error() == "^C" || err.Error() == "^D" {
				log.Info().Msgf("Goodbye")
			} else {
				log.Error().Err(err).Msgf("Error during interactive session")
			}
		}
		// No return to avoid the default cobra error message
		return nil
	case len(args) == 1:
		if !hashed {
			log.Warn().Msg("password passed as an argument, it may be kept in your shell history")
		}
		return c.check(ctx, []byte(args[0]))
	case !tty:
		input, err := readFirstLine(os.Stdin)
		if err != nil {
			return err
		}
		return c.check(ctx, input)
	default:
		prompt := inputPrompt()
		input, err := prompt.Run()
		if err != nil {
			return err
		}
		return c.check(ctx, []byte(input))
	}
}

func inputPrompt() promptui.Prompt {
	var label string
	if hashed {
		label = "SHA1 Hex hash"
	} else {
		label = "Password"
	}

	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if len(input) == 0 {
				return errors.New("please enter a valid password")
			}

			if hashed {
				if _, err := hibp.ParseDigest(input); err != nil {
					return errors.New("input is not a valid SHA1 Hexadecimal hash")
				}
			}
			return nil
		},
	}

	if !hashed {
		prompt.Mask = '*'
	} else {
		log.Info().Msgf("Flag 'hashed' is set. Please use SHA1 Hashed passwords.")
	}

	return prompt
}

func (c *checker) runInteractiveSession(ctx context.Context, prompt promptui.Prompt) error {
	for {
		input, err := prompt.Run()
		if err != nil {
			return err
		}

		if err = c.check(ctx, []byte(input)); err != nil {
			log.Error().Err(err).Msg("Error processing input")
		}
		_, _ = fmt.Fprintln(c.out)
	}
}

// readFirstLine reads the credential from a pipe. Only the line ending is removed, any other
// whitespace is part of the credential.
func readFirstLine(r io.Reader) ([]byte, error) {
	line, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	line = []byte(strings.TrimRight(string(line), "\r\n"))
	if len(line) == 0 {
		return nil, errors.New("no password received on stdin")
	}
	return line, nil
}

func (c *checker) check(ctx context.Context, input []byte) error {
	if c.hashed {
		digest, err := hibp.ParseDigest(strings.TrimSpace(string(input)))
		if err != nil {
			return err
		}

		result := c.engine.CheckDigest(ctx, digest)
		printResult(c.out, result)
		if result.Status == hibp.Exposed {
			c.suggest()
			c.offerAlert(ctx, result.Count)
		}
		return nil
	}

	credential := secret.FromBytes(input)
	defer credential.Zero()

	assessment := c.estimator.Assess(credential)
	result := c.engine.Check(ctx, credential)

	printAssessment(c.out, assessment)
	_, _ = fmt.Fprintln(c.out)
	printResult(c.out, result)

	if result.Status == hibp.Exposed || assessment.Weak() {
		c.suggest()
	}
	if result.Status == hibp.Exposed {
		c.offerAlert(ctx, result.Count)
	}

	return nil
}

func (c *checker) suggest() {
	candidates, err := c.generator.Suggestions()
	if err != nil {
		log.Error().Err(err).Msg("error generating password candidates")
		return
	}

	_, _ = fmt.Fprintln(c.out)
	printCandidates(c.out, candidates)
}

func (c *checker) offerAlert(ctx context.Context, count int64) {
	if c.askRecipient == nil {
		return
	}

	if c.notifier == nil {
		_, _ = caution.Fprintln(c.out, "Email alert: notification unavailable, run setup-email to enable it.")
		return
	}

	recipient, ok := c.askRecipient()
	if !ok {
		return
	}

	if err := c.notifier.Notify(ctx, recipient, count); err != nil {
		log.Error().Err(err).Msg("error sending security alert")
		return
	}
	_, _ = success.Fprintf(c.out, "Security alert sent to %s\n", recipient)
}

func promptRecipient() (string, bool) {
	confirm := promptui.Prompt{
		Label:     "Send a security alert email",
		IsConfirm: true,
	}
	if _, err := confirm.Run(); err != nil {
		// promptui.ErrAbort when answered no
		return "", false
	}

	prompt := promptui.Prompt{
		Label:    "Recipient email",
		Validate: notify.ValidateAddress,
	}
	recipient, err := prompt.Run()
	if err != nil {
		return "", false
	}
	return recipient, true
}

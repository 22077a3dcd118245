// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"errors"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/alvinbaena/pwdguard/internal/config"
	"github.com/alvinbaena/pwdguard/internal/notify"
	"github.com/alvinbaena/pwdguard/internal/util"
)

var (
	setupEmailCmd = &cobra.Command{
		Use:   "setup-email",
		Short: "Configure the SMTP account used to send security alerts",
		Long: "Configure the SMTP account used to send security alerts. The settings are stored in the config " +
			"file, readable only by the current user. Use an app password instead of the account password when " +
			"the provider supports it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return setupEmailCommand()
		},
	}
)

func init() {
	rootCmd.AddCommand(setupEmailCmd)
}

func setupEmailCommand() error {
	util.ApplyCliSettings(verbose, profile, pprofPort)

	smtp, err := promptSMTP()
	if err != nil {
		if err.Error() == "^C" || err.Error() == "^D" {
			log.Info().Msgf("Email setup cancelled")
			return nil
		}
		return err
	}

	path, err := saveSMTP(configFile, smtp)
	if err != nil {
		return err
	}

	log.Info().Msgf("Email configuration saved to %s", path)
	return nil
}

// saveSMTP validates and writes the settings to path, or to the default config file when path
// is empty. It returns the file written.
func saveSMTP(path string, smtp config.SMTPConfig) (string, error) {
	if err := smtp.Validate(); err != nil {
		return "", err
	}

	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return "", err
		}
	}

	return path, config.WriteSMTP(path, smtp)
}

func promptSMTP() (smtp config.SMTPConfig, err error) {
	server := promptui.Prompt{
		Label:   "SMTP server",
		Default: "smtp.gmail.com",
		Validate: func(input string) error {
			if input == "" {
				return errors.New("please enter the SMTP server host")
			}
			return nil
		},
	}
	if smtp.Server, err = server.Run(); err != nil {
		return
	}

	port := promptui.Prompt{
		Label:   "SMTP port",
		Default: "465",
		Validate: func(input string) error {
			if p, err := strconv.Atoi(input); err != nil || p < 1 || p > 65535 {
				return errors.New("please enter a valid port")
			}
			return nil
		},
	}
	portStr, err := port.Run()
	if err != nil {
		return
	}
	smtp.Port, _ = strconv.Atoi(portStr)

	starttls := promptui.Prompt{
		Label:     "Use STARTTLS instead of implicit TLS (usually port 587)",
		IsConfirm: true,
	}
	if _, err = starttls.Run(); err == nil {
		smtp.StartTLS = true
	} else if !errors.Is(err, promptui.ErrAbort) {
		return
	}

	sender := promptui.Prompt{
		Label:    "Sender email",
		Validate: notify.ValidateAddress,
	}
	if smtp.SenderEmail, err = sender.Run(); err != nil {
		return
	}

	password := promptui.Prompt{
		Label: "Sender password",
		Mask:  '*',
		Validate: func(input string) error {
			if input == "" {
				return errors.New("please enter the sender password")
			}
			return nil
		},
	}
	smtp.SenderPassword, err = password.Run()
	return
}

// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/alvinbaena/pwdguard/internal/config"
	"github.com/alvinbaena/pwdguard/internal/notify"
	"github.com/alvinbaena/pwdguard/pkg/hibp"
)

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg("error reading .env file, ignoring it")
	}
	return config.Load(cmd, configFile)
}

func newClient(cfg config.LookupConfig) *hibp.Client {
	return hibp.NewClient(
		hibp.WithBaseURL(cfg.URL),
		hibp.WithTimeout(cfg.Timeout),
		hibp.WithUserAgent(cfg.UserAgent),
		hibp.WithPadding(cfg.Padding),
	)
}

// newNotifier returns nil when email alerts are not configured.
func newNotifier(cfg config.SMTPConfig) notify.Notifier {
	n, err := notify.New(cfg)
	if err != nil {
		log.Debug().Err(err).Msg("email alerts disabled")
		return nil
	}
	return n
}

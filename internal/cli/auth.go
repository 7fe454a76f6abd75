package cli

import (
	"github.com/davefmurray/gmail-slack-bot/internal/config"
	"github.com/davefmurray/gmail-slack-bot/internal/mailbox"
	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize Gmail access and store a token",
		Long: "Runs the interactive OAuth flow against Google and saves the resulting " +
			"token next to the config. Run this once before `mailbot run`.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			credentials := cfg.Gmail.CredentialsPath
			if credentials == "" {
				credentials = paths.Credentials
			}
			token := cfg.Gmail.TokenPath
			if token == "" {
				token = paths.Token
			}

			if err := paths.EnsureDirs(); err != nil {
				return err
			}
			return mailbox.RunAuthFlow(cmd.Context(), credentials, token)
		},
	}

	return cmd
}

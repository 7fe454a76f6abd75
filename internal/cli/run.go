package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/davefmurray/gmail-slack-bot/internal/agent"
	"github.com/davefmurray/gmail-slack-bot/internal/bot"
	"github.com/davefmurray/gmail-slack-bot/internal/config"
	"github.com/davefmurray/gmail-slack-bot/internal/domain"
	"github.com/davefmurray/gmail-slack-bot/internal/llm"
	"github.com/davefmurray/gmail-slack-bot/internal/logging"
	"github.com/davefmurray/gmail-slack-bot/internal/mailbox"
	"github.com/davefmurray/gmail-slack-bot/internal/memory"
	"github.com/davefmurray/gmail-slack-bot/internal/session"
	"github.com/davefmurray/gmail-slack-bot/internal/slack"
	"github.com/davefmurray/gmail-slack-bot/internal/store"
	"github.com/davefmurray/gmail-slack-bot/internal/tools"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			log = logging.New(nil, cfg.Logging.Level)

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating data directories: %w", err)
			}

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			credentials := cfg.Gmail.CredentialsPath
			if credentials == "" {
				credentials = paths.Credentials
			}
			token := cfg.Gmail.TokenPath
			if token == "" {
				token = paths.Token
			}
			mail, err := mailbox.NewGmailService(ctx, credentials, token, log)
			if err != nil {
				return fmt.Errorf("connecting to gmail: %w", err)
			}

			var transcripts bot.Transcripts
			if cfg.Store.Enabled {
				dbPath := cfg.Store.Path
				if dbPath == "" {
					dbPath = paths.Database
				}
				db, err := store.Open(dbPath, log)
				if err != nil {
					return fmt.Errorf("opening database: %w", err)
				}
				defer db.Close()
				transcripts = store.NewTranscriptStore(db)
			}

			mem := memory.NewConversationStore(
				cfg.Memory.MaxHistory,
				time.Duration(cfg.Memory.IdleMinutes)*time.Minute,
				log,
			)
			sessions := session.NewRegistry(
				mem,
				time.Duration(cfg.Session.IdleMinutes)*time.Minute,
				log,
			)

			model := llm.NewAnthropicClient(cfg.Model.APIKey, cfg.Model.Model)
			ag := agent.New(
				agent.Config{
					BotName:       cfg.Slack.BotName,
					MaxTokens:     cfg.Model.MaxTokens,
					Temperature:   cfg.Model.Temperature,
					MaxToolRounds: cfg.Agent.MaxToolRounds,
					ExtraPrompt:   cfg.Agent.ExtraPrompt,
				},
				model,
				mem,
				tools.NewDispatcher(mail, log),
				log,
			)

			platform := slack.NewClient(cfg.Slack.BotToken, log)
			handler := bot.NewHandler(platform, ag, mem, sessions, transcripts, log)

			socket := slack.NewSocketMode(cfg.Slack.AppToken, slack.Handlers{
				OnMessage: func(msg domain.InboundMessage) {
					go handler.HandleMessage(ctx, msg)
				},
				OnCommand: func(msg domain.InboundMessage) {
					go handler.HandleCommand(ctx, msg)
				},
			}, log)

			log.Info().
				Str("model", cfg.Model.Model).
				Str("bot", cfg.Slack.BotName).
				Msg("mailbot starting")

			if err := socket.Run(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("socket mode: %w", err)
			}

			log.Info().Msg("shutting down")
			return nil
		},
	}

	return cmd
}

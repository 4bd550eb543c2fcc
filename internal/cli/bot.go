package cli

import (
	"context"
	"errors"
	"log"

	"github.com/spf13/cobra"

	"task-planner/internal/api"
	"task-planner/internal/bot"
	"task-planner/internal/config"
	"task-planner/internal/service"
)

func newBotCmd() *cobra.Command {
	var withoutAPI bool
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot, its schedules and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.RequireTelegram(); err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			telegramBot, err := bot.New(cfg.TelegramToken, bot.Services{
				Users:     a.users,
				Tasks:     a.tasks,
				Lists:     a.lists,
				Labels:    a.labels,
				Search:    a.search,
				Reminders: a.reminders,
			}, &cfg)
			if err != nil {
				return err
			}

			scheduler := service.NewSchedulerService(cfg.Location())
			if err := telegramBot.Schedule(scheduler); err != nil {
				return err
			}
			scheduler.Start()
			defer scheduler.Stop()

			ctx := cmd.Context()
			if !withoutAPI && cfg.APIAddr != "" {
				server := api.NewServer(a.users, a.tasks, a.search)
				go func() {
							if err := server.Run(ctx, cfg.APIAddr); err != nil && !errors.Is(err, context.Canceled) {
						log.Printf("[error] api: %v", err)
					}
				}()
			}

			log.Println("[info] task planner bot started")
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Println("[info] shutdown complete")
			return nil
		},
	}
	cmd.Flags().BoolVar(&withoutAPI, "no-api", false, "Do not start the HTTP API")
	return cmd
}

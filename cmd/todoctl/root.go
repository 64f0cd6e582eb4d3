package main

import (
	"context"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/voicetodo/internal/config"
	"github.com/Vovarama1992/voicetodo/internal/domain"
	"github.com/Vovarama1992/voicetodo/internal/infra"
	"github.com/Vovarama1992/voicetodo/internal/ports"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app is what every subcommand works against, built once per invocation.
type app struct {
	cfg   *config.Client
	log   *logger.ZapLogger
	tasks *domain.TaskService
	now   func() time.Time

	closers []func() error
}

func (a *app) init(ctx context.Context, storePath string) error {
	config.LoadDotEnv(".env")
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if storePath != "" {
		cfg.StorePath = storePath
	}
	a.cfg = cfg

	zcore, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	a.log = logger.NewZapLogger(zcore.Sugar())

	var store ports.TaskStore
	if cfg.RedisAddr != "" {
		rs, err := infra.NewRedisTaskStore(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, rs.Close)
		store = rs
	} else {
		store = infra.NewFileTaskStore(cfg.StorePath)
	}

	a.tasks = domain.NewTaskService(store, a.now)
	return a.tasks.Load(ctx)
}

func (a *app) close() {
	for _, c := range a.closers {
		_ = c()
	}
}

func (a *app) today() string {
	return a.now().Format(domain.DateLayout)
}

func newRootCommand() *cobra.Command {
	a := &app{now: time.Now}
	var storePath string

	cmd := &cobra.Command{
		Use:   "todoctl",
		Short: "todoctl - to-do list with voice input",
		Long: `todoctl keeps a dated to-do list and can fill new tasks by voice:
record from the microphone, send the clip to the transcription server, and
add the transcript as a task.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Context(), storePath)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	cmd.PersistentFlags().StringVar(&storePath, "store", "", "task file (default $TODO_STORE_PATH or ~/.todoctl/tasks.json)")

	cmd.AddCommand(newAddCommand(a))
	cmd.AddCommand(newListCommand(a))
	cmd.AddCommand(newCalendarCommand(a))
	cmd.AddCommand(newEditCommand(a))
	cmd.AddCommand(newToggleCommand(a))
	cmd.AddCommand(newDeleteCommand(a))
	cmd.AddCommand(newTranscribeCommand(a))
	cmd.AddCommand(newRecordCommand(a))

	return cmd
}

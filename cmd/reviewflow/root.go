package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacesedan/reviewflow/config"
	"github.com/spacesedan/reviewflow/internal/logging"
	"github.com/spf13/cobra"
)

type options struct {
	env    string
	out    string
	topics bool
}

var opts options

var rootCmd = &cobra.Command{
	Use:   "reviewflow",
	Short: "Collect customer reviews and classify their sentiment",
	Long: `reviewflow collects reviews from Reclame Aqui or Mercado Livre, or reads them
from an uploaded spreadsheet, classifies each one as positive, neutral or
negative, extracts topics and writes a report plus a flat CSV file.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		env := opts.env
		if env == "" {
			env = os.Getenv("APP_ENV")
		}
		if env == "" {
			env = "dev"
		}
		config.LoadEnv(env)
		logging.InitLogger(config.Load().LogLevel)
	},
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&opts.env, "env", "", "environment whose config/envs/.env.<env> file is loaded (default $APP_ENV or dev)")
	rootCmd.PersistentFlags().StringVarP(&opts.out, "out", "o", "reviews_analisados.csv", "path of the CSV file with the analyzed reviews, empty to skip")
	rootCmd.PersistentFlags().BoolVar(&opts.topics, "topics", true, "extract topics from positive and negative reviews")

	rootCmd.AddCommand(newURLCommand())
	rootCmd.AddCommand(newFileCommand())
}

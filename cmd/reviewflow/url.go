package main

import (
	"os"

	"github.com/spacesedan/reviewflow/config"
	"github.com/spacesedan/reviewflow/internal/processing"
	"github.com/spf13/cobra"
)

func newURLCommand() *cobra.Command {
	var token string
	var pages int

	cmd := &cobra.Command{
		Use:   "url <URL>",
		Short: "Analyze reviews collected from a Reclame Aqui or Mercado Livre URL",
		Example: `  reviewflow url https://www.reclameaqui.com.br/empresa/acme/ --pages 3
  reviewflow url https://produto.mercadolivre.com.br/MLB-123456-fone --token $ML_ACCESS_TOKEN`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if token == "" {
				token = os.Getenv("ML_ACCESS_TOKEN")
			}

			a, err := newApp(cmd.Context(), cfg, opts.topics)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.pipeline.AnalyzeURL(cmd.Context(), processing.URLRequest{
				URL:         args[0],
				AccessToken: token,
				MaxPages:    pages,
			})
			if err != nil {
				return err
			}
			return present(cmd.OutOrStdout(), res, opts.out)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Mercado Livre access token (default $ML_ACCESS_TOKEN)")
	cmd.Flags().IntVar(&pages, "pages", 0, "Reclame Aqui listing pages to collect (default $RA_MAX_PAGES)")
	return cmd
}

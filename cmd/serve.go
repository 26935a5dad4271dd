package cmd

import (
	"fmt"

	figure "github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	"github.com/abhisek/studyloop/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the study API over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()
		ctx := cmd.Context()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			e.cfg.Server.Addr = addr
		}

		o, err := e.orchestrator(ctx, true)
		if err != nil {
			return err
		}
		in, err := e.ingester(ctx)
		if err != nil {
			return err
		}

		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			figure.NewFigure("studyloop", "", true).Print()
			fmt.Fprintf(cmd.OutOrStdout(), "\nversion %s, listening on http://%s\n\n", version, e.cfg.Server.Addr)
		}

		srv := server.New(e.cfg.Server, server.Deps{
			Orchestrator: o,
			Store:        e.store,
			Ingester:     in,
			Logger:       e.logger,
		})
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides config)")
	serveCmd.Flags().Bool("quiet", false, "Skip the startup banner")
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/carepoint/scheduling-api/internal/server"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the scheduling API server",
	Long: `Starts the HTTP API together with the notification dispatcher and the
reminder sweeper. Usage:

	scheduling-api server
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap(cmd)
		if err != nil {
			return err
		}

		srv, err := server.New(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		return srv.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

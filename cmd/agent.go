package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voicemedia/go-voicemedia/internal/log"
	"github.com/voicemedia/go-voicemedia/internal/server"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run the dev agent backend",
	Long: `Serves the agent HTTP surface the assistant talks to — voice search,
server address discovery, the uploader page — plus the websocket push
channel broadcasting media list updates to every connected viewer.`,
	RunE: runAgent,
}

func init() {
	rootCmd.AddCommand(agentCmd)
}

func runAgent(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var catalog *server.Catalog
	if cfg.Server.Catalog != "" {
		catalog, err = server.LoadCatalog(cfg.Server.Catalog)
		if err != nil {
			return err
		}
		log.Info("loaded catalog", "path", cfg.Server.Catalog, "entries", len(catalog.Entries))
	}

	srv := server.NewServer(cfg.Server.Port, catalog)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		return srv.Shutdown()
	case err := <-errCh:
		return err
	}
}

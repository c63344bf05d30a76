package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seven0070/yumiai/agentsim"
	"github.com/seven0070/yumiai/config"
)

func newSimCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Run a local agent simulator",
		Long: `Serves the duplex channel (/ws), the fallback endpoint (/chat) and
/health with canned replies, so the avatar can run without a real
agent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.ListenAddr = listen
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				<-sigCh
				cancel()
			}()

			return agentsim.New(cfg.AllowedOrigins).Run(ctx, cfg.ListenAddr)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from AVATAR_LISTEN or :5000)")

	return cmd
}

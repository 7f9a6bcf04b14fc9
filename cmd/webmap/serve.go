package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/paulmach/webmap/dataset"
	"github.com/paulmach/webmap/internal/log"
	"github.com/paulmach/webmap/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		cfg := server.Config{
			Addr:   viper.GetString("serve.addr"),
			Logger: log.WithComponent("server"),
		}

		if path := viper.GetString("db"); path != "" {
			store, err := dataset.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			cfg.Store = store
		}

		return server.New(cfg).ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
}

package main

import (
	"os"

	"github.com/javajack/xlparse"
	"github.com/javajack/xlparse/server"
	"github.com/spf13/cobra"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the parser over HTTP",
	Long: `Serve POST /parse (multipart "file" and optional "config") and GET /healthz.
The configuration given with --config is used when a request carries none.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		var cfg *xlparse.Config
		if configPath != "" || os.Getenv("XLPARSE_CONFIG") != "" {
			if cfg, err = loadConfig(); err != nil {
				return err
			}
		}
		opts, err := parserOptions(log)
		if err != nil {
			return err
		}
		return server.New(cfg, log, opts...).Start(listenAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8080", "Listen address")
	rootCmd.AddCommand(serveCmd)
}

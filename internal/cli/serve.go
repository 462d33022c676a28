package cli

import (
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	kbhttp "kbqa/internal/http"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the knowledge base Q&A HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "port to listen on (overrides API_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	port := cfg.APIPort
	if servePort != "" {
		port = servePort
	}

	store, err := buildStore()
	if err != nil {
		return err
	}

	router := kbhttp.NewRouter(&kbhttp.Deps{
		Engine:     buildEngine(store),
		Store:      store,
		Collection: cfg.Collection,
	})

	addr := ":" + port
	slog.Info("starting API server", "addr", addr)
	return http.ListenAndServe(addr, router)
}

package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/tonybenoy/anuvad/internal/config"
	"github.com/tonybenoy/anuvad/internal/logger"
	"github.com/tonybenoy/anuvad/pkg/bridge"
)

var serveOpen bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host a local websocket dev bridge a wasm build can connect to",
	Long: `serve listens for a single websocket client speaking the same tagged
bridge.Message protocol the in-browser Worker boundary uses, logging every
frame of a recognized message type (frames of unknown type are skipped). It's meant for developing the wasm bundle against a bridge
endpoint without a browser extension's Worker wiring in the loop.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "open the dev page in a browser after the server starts")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/bridge", handleBridgeConn)

	addr := config.Current.BridgeAddr
	logger.Info(logger.CategoryBridge, "dev bridge listening on ws://%s/bridge", addr)

	if serveOpen {
		if err := browser.OpenURL("http://" + addr); err != nil {
			logger.Warning(logger.CategoryBridge, "could not open browser: %v", err)
		}
	}

	fmt.Printf("dev bridge listening on ws://%s/bridge (ctrl-c to stop)\n", addr)
	return http.ListenAndServe(addr, mux)
}

func handleBridgeConn(w http.ResponseWriter, r *http.Request) {
	conn, err := bridge.Upgrade(w, r)
	if err != nil {
		logger.Error(logger.CategoryBridge, "upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	logger.Info(logger.CategoryBridge, "client connected from %s", r.RemoteAddr)
	err = conn.Loop(context.Background(), func(msg bridge.Message) {
		logger.Info(logger.CategoryBridge, "received %s (id=%s)", msg.Type, msg.ID)
	})
	if err != nil {
		logger.Warning(logger.CategoryBridge, "bridge loop ended: %v", err)
	}
	logger.Info(logger.CategoryBridge, "client disconnected")
}

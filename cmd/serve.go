/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valpere/tidycsv/internal/server"
)

var serveNoHistory bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the cleaner over HTTP",
	Long: `Start an HTTP server exposing the cleaning pipeline.

Endpoints:
  POST /api/clean    {"csv": "...", "delimiter": ",", "hasHeader": true}
  POST /api/analyze  same request; returns the advisor's advice only
  GET  /healthz

Example:
  tidycsv serve --addr :8080 --max-concurrent 8`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		adv, err := newAdvisor(ctx)
		if err != nil {
			return err
		}

		var recorder server.Recorder
		if !serveNoHistory {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()
			recorder = db
		}

		srv := server.New(newOrchestrator(adv), adv.Name(), recorder, server.Config{
			Addr:          appCfg.Server.Addr,
			MaxConcurrent: appCfg.Server.MaxConcurrent,
			MaxBodyBytes:  appCfg.Server.MaxBodyBytes,
		}, logger)

		logger.Info("starting server",
			zap.String("advisor", adv.Name()),
			zap.Int("max_concurrent", appCfg.Server.MaxConcurrent))
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default :8080)")
	serveCmd.Flags().Int("max-concurrent", 0, "Maximum cleaning requests processed at once (default 4)")
	serveCmd.Flags().Int64("max-body-bytes", 0, "Maximum request body size in bytes (default 10 MiB)")
	serveCmd.Flags().BoolVar(&serveNoHistory, "no-history", false, "Do not record runs in the history database")

	bindFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	bindFlag("server.max_concurrent", serveCmd.Flags().Lookup("max-concurrent"))
	bindFlag("server.max_body_bytes", serveCmd.Flags().Lookup("max-body-bytes"))
}

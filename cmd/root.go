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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/valpere/tidycsv/internal/config"
	"github.com/valpere/tidycsv/internal/logging"
)

var version = "0.1.0"

var (
	cfgFile string

	v      = viper.New()
	appCfg *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "tidycsv",
	Short: "LLM-assisted CSV cleaner",
	Long: `A CLI application that cleans messy CSV files.

Every file first goes through a fixed pre-clean (strip wrapping quotes, trim
whitespace, remove empty rows, pad ragged rows). A language model then looks at
a sample and proposes further fixes from a small, closed set of actions, which
are validated and applied locally. The model never rewrites data itself.

Supported advisors: Ollama (default), OpenRouter, Gemini

Use "tidycsv clean --help" for cleaning options.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		appCfg = cfg

		l, err := logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: ./tidycsv.yaml or ~/.config/tidycsv/tidycsv.yaml)")
	pf.String("provider", "", "Advisor provider: ollama, openrouter or gemini")
	pf.String("model", "", "Advisor model name")
	pf.String("base-url", "", "Advisor API base URL")
	pf.String("api-key", "", "Advisor API key (or TIDYCSV_ADVISOR_API_KEY, OPENROUTER_API_KEY, GEMINI_API_KEY)")
	pf.Duration("timeout", 0, "Advisor request timeout (default 60s)")
	pf.Int("sample-lines", 0, "Number of lines sent to the advisor (default 50)")
	pf.String("db", "", "Run history database path (default ./data/tidycsv.db)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: console or json")

	bindFlag("advisor.provider", pf.Lookup("provider"))
	bindFlag("advisor.model", pf.Lookup("model"))
	bindFlag("advisor.base_url", pf.Lookup("base-url"))
	bindFlag("advisor.api_key", pf.Lookup("api-key"))
	bindFlag("advisor.timeout", pf.Lookup("timeout"))
	bindFlag("sample.max_lines", pf.Lookup("sample-lines"))
	bindFlag("db.path", pf.Lookup("db"))
	bindFlag("log.level", pf.Lookup("log-level"))
	bindFlag("log.format", pf.Lookup("log-format"))
}

// Command amasctl is the thin operator-facing CLI driver for the AMAS
// core (spec.md §1 "thin cmd/ driver"). It exposes the decision
// pipeline, the delayed reward queue's background tick, the Parameter
// Store, the weekly LLM Advisor Loop, and the forgetting-risk alert
// scanner as subcommands, grounded on
// the NikeGunn-tutu / o9nn-echo.go pack repos' cobra.Command-per-verb
// layout (RunE handlers, flags bound to package-level variables via
// StringVar/IntVar/BoolVar, subcommands grouped under a parent via
// AddCommand).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vocab-amas/internal/config"
	"vocab-amas/internal/obslog"
)

var cfgPath string

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "amasctl",
		Short: "Operate the Adaptive Multi-Algorithm Scheduling core",
		Long: `amasctl drives the AMAS decision pipeline, delayed reward
delivery, parameter store, weekly advisor loop, and forgetting-risk
alert scanner from the command line, for operators and for scripting
outside the host application's own request path.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a TOML config file (env vars still take precedence)")

	root.AddCommand(
		newDecideCmd(),
		newRewardCmd(),
		newParamsCmd(),
		newAdviseCmd(),
		newForgettingCmd(),
	)
	return root
}

// loadAndBuild resolves config then wires every component an
// invocation might need, closing over the same path every subcommand
// uses so there is exactly one place that decides precedence and
// wiring order.
func loadAndBuild() (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	obslog.SetLevel(cfg.Logging.Level)
	return buildApp(cfg)
}

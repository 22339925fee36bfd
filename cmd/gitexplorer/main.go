// Command gitexplorer browses GitHub repositories from the terminal and
// keeps bookmarks and notes in a document store.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abelbrown/gitexplorer/internal/bootstrap"
	"github.com/abelbrown/gitexplorer/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	root := &cobra.Command{
		Use:           "gitexplorer",
		Short:         "Search GitHub repositories, bookmark them and keep notes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := bootstrap.New(ctx, bootstrap.Options{ConfigPath: configPath, Debug: debug})
			if err != nil {
				return err
			}
			return app.Run()
		},
	}
	root.Flags().StringVar(&configPath, "config", "", fmt.Sprintf("config file (default %s)", config.DefaultPath()))
	root.Flags().BoolVar(&debug, "debug", false, "log at debug level")
	return root
}

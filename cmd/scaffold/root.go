package main

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conn-castle/scaffold/internal/config"
	"github.com/conn-castle/scaffold/internal/messages"
)

// envDebug enables debug logging like --debug.
const envDebug = "SCAFFOLD_DEBUG"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		Long:          messages.RootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", messages.RootFlagConfig)
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, messages.RootFlagDebug)
	cmd.Flags().Bool("version", false, messages.RootVersionFlag)

	cmd.AddCommand(newInitCmd(opts), newTemplatesCmd(opts))
	return cmd
}

// loadConfig resolves and loads the config file for this invocation.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	path, source, err := config.ResolvePath(o.configPath, config.OSPathEnv())
	if err != nil {
		return nil, err
	}
	return config.Load(path, source)
}

// logger returns a debug text logger on w when debugging is enabled, and a
// discarding logger otherwise.
func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	if !o.debug && !debugFromEnv() {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func debugFromEnv() bool {
	value := strings.TrimSpace(os.Getenv(envDebug))
	if value == "" {
		return false
	}
	enabled, err := strconv.ParseBool(value)
	return err == nil && enabled
}

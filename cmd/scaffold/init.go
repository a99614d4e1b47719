package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conn-castle/scaffold/internal/catalog"
	"github.com/conn-castle/scaffold/internal/config"
	"github.com/conn-castle/scaffold/internal/fetch"
	"github.com/conn-castle/scaffold/internal/fsutil"
	"github.com/conn-castle/scaffold/internal/guard"
	"github.com/conn-castle/scaffold/internal/merge"
	"github.com/conn-castle/scaffold/internal/messages"
	"github.com/conn-castle/scaffold/internal/release"
	"github.com/conn-castle/scaffold/internal/scaffold"
	"github.com/conn-castle/scaffold/internal/stage"
	"github.com/conn-castle/scaffold/internal/terminal"
)

// exitInterrupted is the conventional exit code after SIGINT.
const exitInterrupted = 130

var newFetcher = func(opts fetch.Options) stage.Fetcher { return fetch.New(opts) }
var newFormPrompter = func() guard.Prompter { return guard.NewFormPrompter() }
var isTerminal = terminal.IsInteractive
var getwd = os.Getwd
var userCacheDir = os.UserCacheDir

func newInitCmd(root *rootOptions) *cobra.Command {
	var templateSpec string
	var assumeYes bool

	cmd := &cobra.Command{
		Use:     messages.InitUse,
		Short:   messages.InitShort,
		Long:    messages.InitLong,
		Example: messages.InitExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			tmpl, err := resolveTemplate(cmd.Context(), cfg, templateSpec)
			if err != nil {
				return err
			}
			location := "."
			if len(args) == 1 {
				location = args[0]
			}
			dest, err := resolveDestination(location)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			logger := root.logger(cmd.ErrOrStderr())
			printBanner(out)

			progress := &progressPrinter{out: out, owner: cfg.Source.Owner, repo: tmpl.Repo}
			orchestrator := scaffold.New(
				guard.New(selectPrompter(cmd, cfg), guard.Options{
					System:    cliGuardSystem{},
					AssumeYes: assumeYes,
					Logger:    logger,
				}),
				stage.New(newFetcher(fetchOptions(cfg, logger)), stage.Options{Logger: logger}),
				merge.New(merge.Options{Logger: logger}),
				scaffold.Options{Logger: logger, OnTransition: progress.transition},
			)

			outcome, err := orchestrator.Run(cmd.Context(), scaffold.Request{Destination: dest, Template: tmpl})
			if err != nil {
				if errors.Is(err, context.Canceled) && cmd.Context().Err() != nil {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString(messages.InitInterrupted))
					return &SilentExitError{Code: exitInterrupted}
				}
				return err
			}
			if outcome.Declined {
				_, _ = fmt.Fprintln(out, messages.InitDeclined)
				return nil
			}
			renderResults(out, outcome.Results)
			_, _ = fmt.Fprintln(out, messages.ProgressCopyingApp+color.GreenString(messages.ProgressDoneSuffix))
			_, _ = fmt.Fprintf(out, messages.InitFinishedFmt, outcome.Copied, outcome.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&templateSpec, "template", "t", "", messages.InitFlagTemplate)
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, messages.InitFlagYes)
	_ = cmd.RegisterFlagCompletionFunc("template", func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return completeTemplates(root, toComplete), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// resolveTemplate resolves the --template value, looking up "name@latest"
// against the releases API first.
func resolveTemplate(ctx context.Context, cfg *config.Config, spec string) (catalog.Template, error) {
	cat := cfg.Catalog()
	name, latest := catalog.SplitLatest(spec)
	if !latest {
		return cat.Resolve(spec)
	}
	if !cat.Has(name) {
		return cat.Resolve(name)
	}
	client := release.New(release.Options{APIURL: cfg.Source.APIURL})
	version, err := client.Latest(ctx, cfg.Source.Owner, cfg.Source.RepoPrefix+name)
	if err != nil {
		return catalog.Template{}, fmt.Errorf(messages.InitLatestFmt, name, err)
	}
	return cat.Resolve(name + "@" + version)
}

// resolveDestination makes location absolute against the working directory.
func resolveDestination(location string) (string, error) {
	if filepath.IsAbs(location) {
		return filepath.Clean(location), nil
	}
	cwd, err := getwd()
	if err != nil {
		return "", fmt.Errorf(messages.GuardResolveWorkingDirFmt, err)
	}
	return filepath.Join(cwd, location), nil
}

// cliGuardSystem routes the guard through the getwd seam.
type cliGuardSystem struct{}

func (cliGuardSystem) Getwd() (string, error) {
	return getwd()
}

func (cliGuardSystem) IsEmptyDir(path string) (bool, error) {
	return fsutil.IsEmptyDir(path)
}

// selectPrompter uses the huh form only when configured and attached to a terminal.
func selectPrompter(cmd *cobra.Command, cfg *config.Config) guard.Prompter {
	if cfg.Prompt == config.PromptForm && isTerminal() {
		return newFormPrompter()
	}
	return guard.LinePrompter{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
}

func fetchOptions(cfg *config.Config, logger *slog.Logger) fetch.Options {
	opts := fetch.Options{
		Timeout:  cfg.FetchTimeout(),
		MaxBytes: cfg.Fetch.MaxBytes,
		Retries:  cfg.Fetch.Retries,
		Logger:   logger,
	}
	if cfg.Fetch.Cache {
		dir, err := userCacheDir()
		if err != nil {
			logger.Debug("archive cache disabled", "error", err)
			return opts
		}
		opts.CacheDir = filepath.Join(dir, "scaffold", "archives")
	}
	return opts
}

func completeTemplates(root *rootOptions, prefix string) []string {
	cfg, err := root.loadConfig()
	if err != nil {
		return nil
	}
	var names []string
	for _, name := range cfg.Catalog().Names() {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names
}

func printBanner(out io.Writer) {
	_, _ = fmt.Fprintln(out, messages.InitWelcome)
	_, _ = fmt.Fprintln(out, color.CyanString("%s", messages.InitArt))
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, messages.InitLetsGo)
}

// progressPrinter renders state transitions as the download line and the
// copy failure line. The successful copy line follows the per-file results.
type progressPrinter struct {
	out   io.Writer
	owner string
	repo  string
}

func (p *progressPrinter) transition(from scaffold.State, to scaffold.State) {
	switch {
	case to == scaffold.Confirmed:
		_, _ = fmt.Fprintf(p.out, messages.ProgressDownloadFmt, p.owner, p.repo)
	case to == scaffold.Staged:
		_, _ = fmt.Fprintln(p.out, color.GreenString(messages.ProgressDoneSuffix))
	case to == scaffold.Aborted && from == scaffold.Confirmed:
		_, _ = fmt.Fprintln(p.out, color.RedString(messages.ProgressFailedSuffix))
	case to == scaffold.Aborted && from == scaffold.Staged:
		_, _ = fmt.Fprintln(p.out, messages.ProgressCopyingApp+color.RedString(messages.ProgressFailedSuffix))
	}
}

// renderResults prints one line per template file.
func renderResults(out io.Writer, results []merge.Result) {
	for _, r := range results {
		switch r.Kind {
		case merge.Copied:
			_, _ = fmt.Fprintln(out, fmt.Sprintf(messages.ProgressCopyFmt, r.Path)+color.GreenString(messages.ProgressDoneSuffix))
		case merge.Skipped:
			_, _ = fmt.Fprintln(out, color.YellowString("%s", skippedLine(r)+messages.ProgressSkippedSuffix))
		case merge.Failed:
			_, _ = fmt.Fprintln(out, color.RedString("%s", fmt.Sprintf(messages.ProgressSkippedReasonFmt, r.Path, r.Reason)+messages.ProgressFailedSuffix))
		}
	}
}

func skippedLine(r merge.Result) string {
	switch r.Reason {
	case messages.MergeAlreadyExists:
		return fmt.Sprintf(messages.ProgressExistsFmt, r.Path)
	case messages.MergeNotRegular:
		return fmt.Sprintf(messages.ProgressUnsupportedFmt, r.Path)
	default:
		return fmt.Sprintf(messages.ProgressSkippedReasonFmt, r.Path, r.Reason)
	}
}

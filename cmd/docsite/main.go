package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-docsite"
	staticcmd "github.com/goliatone/go-docsite/internal/commands/static"
	"github.com/goliatone/go-docsite/internal/generator"
	"github.com/goliatone/go-docsite/internal/linkcheck"
)

type moduleOptions struct {
	configPath string
	envFile    string
	overrides  map[string]any
}

type handlerSet struct {
	build      command.Commander[staticcmd.BuildSiteCommand]
	checkLinks command.Commander[staticcmd.CheckLinksCommand]
	clean      command.Commander[staticcmd.CleanSiteCommand]
}

type moduleResources struct {
	handlers handlerSet
	serve    func(ctx context.Context, port int) error
	close    func() error
}

var moduleBuilder = buildModule

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "docsite:", err)
		os.Exit(1)
	}
}

func buildModule(opts moduleOptions) (*moduleResources, error) {
	cfg, err := docsite.LoadConfig(docsite.LoadOptions{
		Path:      opts.configPath,
		EnvFile:   opts.envFile,
		Overrides: opts.overrides,
	})
	if err != nil {
		return nil, err
	}
	module, err := docsite.New(cfg)
	if err != nil {
		return nil, err
	}
	container := module.Container()
	return &moduleResources{
		handlers: handlerSet{
			build:      container.BuildHandler(),
			checkLinks: container.CheckLinksHandler(),
			clean:      container.CleanHandler(),
		},
		serve: module.Serve,
		close: module.Close,
	}, nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	root := newRootCommand(out)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	return root.ExecuteContext(ctx)
}

func newRootCommand(out io.Writer) *cobra.Command {
	opts := &moduleOptions{}
	var (
		outputDir string
		logLevel  string
	)

	root := &cobra.Command{
		Use:           "docsite",
		Short:         "Build the Weaviate documentation site",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			opts.overrides = map[string]any{}
			if cmd.Flags().Changed("output") {
				opts.overrides["build.output_dir"] = outputDir
			}
			if cmd.Flags().Changed("log-level") {
				opts.overrides["logging.level"] = logLevel
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is ./docsite.yaml or ./site/docsite.yaml)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment")
	root.PersistentFlags().StringVar(&outputDir, "output", "", "override build.output_dir")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newBuildCommand(opts, out),
		newCheckLinksCommand(opts, out),
		newCleanCommand(opts, out),
		newServeCommand(opts),
	)
	return root
}

func newBuildCommand(opts *moduleOptions, out io.Writer) *cobra.Command {
	var (
		dryRun  bool
		force   bool
		locales []string
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render every page and write the site to the output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withModule(*opts, func(res *moduleResources) error {
				msg := staticcmd.BuildSiteCommand{
					Locales: locales,
					Force:   force,
					DryRun:  dryRun,
					ResultCallback: func(env staticcmd.ResultEnvelope) {
						printBuildSummary(out, env)
					},
				}
				return dispatch(cmd.Context(), res.handlers.build, msg)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render without writing files")
	cmd.Flags().BoolVar(&force, "force", false, "rebuild pages the manifest marks unchanged")
	cmd.Flags().StringSliceVar(&locales, "locale", nil, "restrict the build to these locales")
	return cmd
}

func newCheckLinksCommand(opts *moduleOptions, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "check-links",
		Short: "Report internal links that do not resolve to a generated page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withModule(*opts, func(res *moduleResources) error {
				msg := staticcmd.CheckLinksCommand{
					ReportCallback: func(report linkcheck.Report) {
						printLinkReport(out, report)
					},
				}
				return dispatch(cmd.Context(), res.handlers.checkLinks, msg)
			})
		},
	}
}

func newCleanCommand(opts *moduleOptions, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove generated output and reset the build manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withModule(*opts, func(res *moduleResources) error {
				if err := dispatch(cmd.Context(), res.handlers.clean, staticcmd.CleanSiteCommand{}); err != nil {
					return err
				}
				fmt.Fprintln(out, "operation=clean status=ok")
				return nil
			})
		},
	}
}

func newServeCommand(opts *moduleOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build, serve the output directory and rebuild on changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withModule(*opts, func(res *moduleResources) error {
				if res.serve == nil {
					return errors.New("serve not configured")
				}
				return res.serve(cmd.Context(), port)
			})
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default server.port)")
	return cmd
}

func withModule(opts moduleOptions, fn func(*moduleResources) error) error {
	res, err := moduleBuilder(opts)
	if err != nil {
		return err
	}
	if res.close != nil {
		defer res.close()
	}
	return fn(res)
}

// dispatch routes msg through the go-command dispatcher to handler for the
// duration of one call.
func dispatch[T command.Message](ctx context.Context, handler command.Commander[T], msg T) error {
	if handler == nil {
		return fmt.Errorf("%s handler not configured", msg.Type())
	}
	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(0))
	defer sub.Unsubscribe()
	return dispatcher.Dispatch(ctx, msg)
}

func printBuildSummary(out io.Writer, env staticcmd.ResultEnvelope) {
	operation, _ := env.Metadata["operation"].(string)
	result := env.Result
	if result == nil {
		fmt.Fprintf(out, "operation=%s status=no_result\n", operation)
		return
	}
	fmt.Fprintf(out,
		"operation=%s summary pages_built=%d pages_skipped=%d assets_built=%d assets_skipped=%d feeds=%d removed=%d duration=%s\n",
		operation,
		result.PagesBuilt,
		result.PagesSkipped,
		result.AssetsBuilt,
		result.AssetsSkipped,
		result.FeedsBuilt,
		result.Removed,
		result.Duration,
	)
	printErrors(out, result)
	if len(result.Links.Broken) > 0 {
		printLinkReport(out, result.Links)
	}
}

func printErrors(out io.Writer, result *generator.BuildResult) {
	for _, err := range result.Errors {
		fmt.Fprintf(out, "  error: %v\n", err)
	}
}

func printLinkReport(out io.Writer, report linkcheck.Report) {
	fmt.Fprintf(out, "operation=check_links pages=%d links=%d broken=%d\n", report.Pages, report.Links, len(report.Broken))
	for _, link := range report.Broken {
		fmt.Fprintf(out, "  %s -> %s\n", link.Page, link.Href)
	}
}

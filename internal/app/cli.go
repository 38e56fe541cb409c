// Package app wires the explab command line: flag parsing, config
// precedence, logger lifecycle, and signal handling around the launcher.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"explab/internal/catalog"
	"explab/internal/config"
	"explab/internal/launcher"
	ilogger "explab/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const version = "0.3.0"

var exitFn = os.Exit

type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit %d", e.code)
}

type cliOptions struct {
	ExpRoot      string
	NJobs        int
	ExpConfig    string
	Benchmark    string
	AgentConfig  string
	RelaunchMode string
	ShuffleJobs  bool
	AutoAccept   bool

	Cleanup    bool
	Version    bool
	ConfigFile string
}

// Run is the program entrypoint for cmd/explab/main.go.
func Run() {
	exitFn(run())
}

func run() int {
	cmd := newRootCommand()
	cmd.SetArgs(os.Args[1:])
	if err := cmd.Execute(); err != nil {
		var ee exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:           fmt.Sprintf("%s [flags]", ilogger.ToolName),
		Short:         "Batch launcher for agent benchmark experiments",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		// Operators frequently pass through flags meant for the worker;
		// they are ignored rather than rejected.
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Version {
				fmt.Printf("%s version %s\n", ilogger.ToolName, version)
				return nil
			}
			if opts.Cleanup {
				removed := ilogger.CleanupStaleLogs()
				fmt.Printf("Removed %d stale log files\n", removed)
				return nil
			}

			exitCode := runWithLoggerAndCleanup(func() int {
				v, err := config.NewViper(opts.ConfigFile)
				if err != nil {
					logError(err.Error())
					return 1
				}

				launchOpts, err := buildLaunchOptions(cmd, opts, v)
				if err != nil {
					logError(err.Error())
					fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
					return 1
				}

				return runLaunch(launchOpts)
			})

			if exitCode == 0 {
				return nil
			}
			return exitError{code: exitCode}
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	addRootFlags(cmd.Flags(), opts)
	cmd.AddCommand(newVersionCommand(), newCleanupCommand())

	return cmd
}

func addRootFlags(fs *pflag.FlagSet, opts *cliOptions) {
	fs.StringVar(&opts.ConfigFile, "config", "", "Config file path (default: $HOME/.explab/config.*)")
	fs.BoolVarP(&opts.Version, "version", "v", false, "Print version and exit")
	fs.BoolVar(&opts.Cleanup, "cleanup", false, "Clean up stale logs and exit")

	fs.StringVar(&opts.ExpRoot, "exp_root", "", "Folder where experiments will be saved")
	fs.IntVar(&opts.NJobs, "n_jobs", 1, "Number of parallel jobs")
	fs.StringVar(&opts.ExpConfig, "exp_config", config.DefaultExpGroup,
		fmt.Sprintf("Experiment group to launch (%s), or an existing group name when relaunching",
			strings.Join(catalog.KnownGroups(), ", ")))
	fs.StringVar(&opts.Benchmark, "benchmark",
		"", fmt.Sprintf("Benchmark to launch (%s)", strings.Join(config.Benchmarks, ", ")))
	fs.StringVar(&opts.AgentConfig, "agent_config", "", "Agent configuration to launch")
	fs.StringVar(&opts.RelaunchMode, "relaunch_mode", "",
		"Relaunch prior units: incomplete_only, all_errors or server_errors")
	fs.BoolVar(&opts.ShuffleJobs, "shuffle_jobs", false, "Randomly permute the unit list before launching")
	fs.BoolVar(&opts.AutoAccept, "auto_accept", false, "Skip the confirmation prompt")
}

// buildLaunchOptions applies the flag > env/config-file > default
// precedence and validates the enumerated values.
func buildLaunchOptions(cmd *cobra.Command, opts *cliOptions, v *viper.Viper) (launcher.Options, error) {
	expRoot := strings.TrimSpace(opts.ExpRoot)
	if !cmd.Flags().Changed("exp_root") {
		if val := strings.TrimSpace(v.GetString("exp_root")); val != "" {
			expRoot = val
		}
	}
	if expRoot == "" {
		expRoot = config.DefaultExpRoot()
	}

	nJobs := opts.NJobs
	if !cmd.Flags().Changed("n_jobs") && v.IsSet("n_jobs") {
		nJobs = v.GetInt("n_jobs")
	}

	benchmark := strings.TrimSpace(opts.Benchmark)
	if !cmd.Flags().Changed("benchmark") {
		if val := strings.TrimSpace(v.GetString("benchmark")); val != "" {
			benchmark = val
		}
	}
	if !config.IsKnownBenchmark(benchmark) {
		return launcher.Options{}, fmt.Errorf(
			"unknown benchmark %q (expected one of: %s)", benchmark, strings.Join(config.Benchmarks, ", "))
	}

	agentConfig := strings.TrimSpace(opts.AgentConfig)
	if !cmd.Flags().Changed("agent_config") {
		if val := strings.TrimSpace(v.GetString("agent_config")); val != "" {
			agentConfig = val
		}
	}

	relaunch, err := launcher.ParseRelaunchMode(strings.TrimSpace(opts.RelaunchMode))
	if err != nil {
		return launcher.Options{}, err
	}

	autoAccept := opts.AutoAccept
	if !cmd.Flags().Changed("auto_accept") && v.IsSet("auto_accept") {
		autoAccept = v.GetBool("auto_accept")
	}

	return launcher.Options{
		ExpRoot:     expRoot,
		ExpConfig:   strings.TrimSpace(opts.ExpConfig),
		AgentConfig: agentConfig,
		Benchmark:   benchmark,
		NJobs:       config.ClampJobs(nJobs),
		Relaunch:    relaunch,
		AutoAccept:  autoAccept,
		ShuffleJobs: opts.ShuffleJobs,
	}, nil
}

func runLaunch(opts launcher.Options) int {
	logInfo("Launcher started")

	// An interrupt cancels the run phase; teardown still executes inside
	// Launch before the error surfaces here.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := launcher.Launch(ctx, opts); err != nil {
		if errors.Is(err, context.Canceled) {
			logError("Launch interrupted")
			fmt.Fprintln(os.Stderr, "Interrupted.")
			return 130
		}
		logError(err.Error())
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}
	return 0
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print version and exit",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("%s version %s\n", ilogger.ToolName, version)
			return nil
		},
	}
}

func newCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "cleanup",
		Short:         "Clean up stale logs and exit",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			removed := ilogger.CleanupStaleLogs()
			fmt.Printf("Removed %d stale log files\n", removed)
			return nil
		},
	}
}

func runWithLoggerAndCleanup(fn func() int) (exitCode int) {
	logger, err := NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to initialize logger: %v\n", err)
		return 1
	}
	setLogger(logger)

	defer func() {
		logger := activeLogger()
		if logger != nil {
			logger.Flush()
		}
		if err := closeLogger(); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: failed to close logger: %v\n", err)
		}
		if logger == nil {
			return
		}

		if exitCode != 0 {
			if entries := logger.ExtractRecentErrors(10); len(entries) > 0 {
				fmt.Fprintln(os.Stderr, "\n=== Recent Errors ===")
				for _, entry := range entries {
					fmt.Fprintln(os.Stderr, entry)
				}
				fmt.Fprintf(os.Stderr, "Log file: %s\n", logger.Path())
			}
			return
		}
		// Clean exits drop the log unless the operator asked to keep it.
		if config.EnvFlagEnabled("EXPLAB_KEEP_LOGS") {
			return
		}
		_ = logger.RemoveLogFile()
	}()

	// Clean up stale logs from previous runs.
	ilogger.CleanupStaleLogs()

	return fn()
}

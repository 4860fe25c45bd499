// Command fluid is an interactive console for constructing Go values and
// calling their methods by name.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fluid/internal/adapt"
	"fluid/internal/config"
	"fluid/internal/console"
	"fluid/internal/logging"
	"fluid/internal/outcome"
)

var (
	// Global flags
	configPath string
	verbose    bool
	prefixes   []string
	noColor    bool

	// Adapt flags
	approveAll bool
	refuseAll  bool

	// Run flags
	autoApprove bool

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "fluid",
	Short: "fluid - reflective console for Go types",
	Long: `fluid resolves Go types by name, constructs them, calls their methods
and converts text into values by discovering constructors and parse functions.

Run without arguments to start the interactive console.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.DebugMode = true
			cfg.Logging.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		return logging.Initialize(cfg.Logging)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runConsole(ctx, cmd, console.WithInput(cmd.InOrStdin()), console.WithColor(!noColor))
	},
}

// runCmd feeds a script of console commands
var runCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "Execute a file of console commands",
	Long: `Reads console commands from a file, one per line. Lines starting with #
are skipped. Adaptation approvals are read from standard input unless --yes
is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		return runConsole(cmd.Context(), cmd,
			console.WithInput(f),
			console.WithApprovals(cmd.InOrStdin()),
			console.WithAutoApprove(autoApprove),
			console.WithPrompt("> "),
		)
	},
}

// adaptCmd converts one string without the console
var adaptCmd = &cobra.Command{
	Use:   "adapt <type> <raw>",
	Short: "Convert a string into an instance of a type",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdapt,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "fluid.yaml", "Config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringArrayVarP(&prefixes, "prefix", "p", nil, "Additional namespace prefix (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable styled output")

	adaptCmd.Flags().BoolVarP(&approveAll, "yes", "y", true, "Approve every candidate")
	adaptCmd.Flags().BoolVarP(&refuseAll, "no", "n", false, "Refuse every candidate")
	runCmd.Flags().BoolVarP(&autoApprove, "yes", "y", false, "Approve every candidate without asking")

	rootCmd.AddCommand(runCmd, adaptCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runConsole(ctx context.Context, cmd *cobra.Command, opts ...console.Option) error {
	a, err := newApp(cfg, prefixes)
	if err != nil {
		return err
	}
	defer a.Close()

	base := []console.Option{
		console.WithOutput(cmd.OutOrStdout()),
		console.WithPrompt(cfg.Console.Prompt),
	}
	if a.compiler != nil {
		base = append(base, console.WithCompiler(a.compiler))
	}
	if a.history != nil {
		base = append(base, console.WithHistory(a.history))
	}
	c := console.New(a.engine, append(base, opts...)...)
	return c.Run(ctx)
}

func runAdapt(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, prefixes)
	if err != nil {
		return err
	}
	defer a.Close()

	approve := adapt.Approver(adapt.Always)
	if refuseAll || !approveAll {
		approve = adapt.Never
	}

	v, err := adapt.New(a.engine).AdaptName(args[1], args[0], approve)
	if err != nil {
		for i, line := range outcome.Chain(err) {
			if i == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "error: "+line)
				continue
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "  caused by: "+line)
		}
		return fmt.Errorf("adapt %q to %s failed: %w", args[1], args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%v\n", v)
	return nil
}

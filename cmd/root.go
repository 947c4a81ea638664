package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/procsim/procsim/sim"
	"github.com/procsim/procsim/sim/process"
	"github.com/procsim/procsim/sim/trace"
	"github.com/procsim/procsim/store"
)

var (
	processPath  string  // Process definition file
	configPath   string  // Optional run config file
	timeLimit    float64 // Simulated time limit
	maxGenerated int     // Stop after this many generated elements
	maxOutput    int     // Stop after this many delivered elements
	seed         int64   // Seed for every random stream of the run
	logLevel     string  // Log verbosity level
	outputPath   string  // Result JSON destination
	dbPath       string  // SQLite database for stored runs
	processID    string  // Process id recorded with a stored run
	metricsFile  string  // Prometheus textfile destination
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "procsim",
	Short: "Discrete-event simulator for process networks",
}

// runOptions is the fully resolved configuration of one run, after merging
// the config file with command-line flags.
type runOptions struct {
	ProcessPath string
	Seed        int64
	LogLevel    string
	Termination sim.Termination
	Store       store.Config
	ProcessID   string
	Output      string
	MetricsFile string
}

// runOutcome is what executeRun hands back to the command.
type runOutcome struct {
	Result   *sim.Result
	StoredID string
}

// runCmd executes one simulation
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a process simulation",
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := resolveRunOptions(cmd.Flags())
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		level, err := logrus.ParseLevel(opts.LogLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", opts.LogLevel)
		}
		logrus.SetLevel(level)

		outcome, err := executeRun(cmd.Context(), opts, cmd.OutOrStdout())
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		if outcome.StoredID != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "stored simulation %s\n", outcome.StoredID)
		}
	},
}

// resolveRunOptions merges the optional config file with the flags in fs.
// Flags the user set explicitly win over the file.
func resolveRunOptions(fs *pflag.FlagSet) (runOptions, error) {
	var cfg RunConfig
	if configPath != "" {
		var err error
		if cfg, err = loadRunConfig(configPath); err != nil {
			return runOptions{}, err
		}
	}

	opts := runOptions{
		ProcessPath: processPath,
		Seed:        seed,
		LogLevel:    logLevel,
		Termination: cfg.Termination,
		Store:       cfg.Store,
		ProcessID:   cfg.ProcessID,
		Output:      cfg.Output,
		MetricsFile: cfg.MetricsFile,
	}
	if cfg.Seed != nil && !fs.Changed("seed") {
		opts.Seed = *cfg.Seed
	}
	if cfg.LogLevel != "" && !fs.Changed("log") {
		opts.LogLevel = cfg.LogLevel
	}
	if fs.Changed("time") {
		opts.Termination.Type = sim.TerminationTime
		opts.Termination.Value = timeLimit
	}
	if fs.Changed("max-generated") {
		opts.Termination.MaxGenerated = maxGenerated
	}
	if fs.Changed("max-output") {
		opts.Termination.MaxOutput = maxOutput
	}
	if fs.Changed("db") {
		opts.Store.Path = dbPath
	}
	if fs.Changed("process-id") {
		opts.ProcessID = processID
	}
	if fs.Changed("out") {
		opts.Output = outputPath
	}
	if fs.Changed("metrics-file") {
		opts.MetricsFile = metricsFile
	}

	if opts.ProcessPath == "" {
		return runOptions{}, fmt.Errorf("--process is required")
	}
	if err := opts.Termination.Validate(); err != nil {
		return runOptions{}, err
	}
	return opts, nil
}

// executeRun loads the process, runs it to termination and hands the result
// to the configured sinks. Output "-" writes the result JSON to stdout and an
// empty Output prints the run stats only.
func executeRun(ctx context.Context, opts runOptions, stdout io.Writer) (*runOutcome, error) {
	def, err := process.Load(opts.ProcessPath)
	if err != nil {
		return nil, err
	}

	var metrics *sim.RunMetrics
	if opts.MetricsFile != "" {
		metrics = sim.NewRunMetrics()
	}
	simulator, err := sim.NewSimulator(sim.Config{
		Definition:  def,
		Termination: opts.Termination,
		Seed:        opts.Seed,
		Metrics:     metrics,
	})
	if err != nil {
		return nil, err
	}
	res, err := simulator.Run()
	if err != nil {
		return nil, err
	}

	summary := trace.Summarize(res.Record)
	logrus.Infof("run finished at t=%.3f: %d elements, %d trace lines", res.Clock, summary.TotalElements, summary.TotalSteps)
	for key, n := range summary.VisitsByNode {
		logrus.Debugf("  %s: %d elements", key, n)
	}

	if err := writeResult(res, opts.Output, stdout); err != nil {
		return nil, err
	}
	if metrics != nil {
		if err := metrics.WriteTextfile(opts.MetricsFile); err != nil {
			return nil, fmt.Errorf("writing metrics: %w", err)
		}
	}

	outcome := &runOutcome{Result: res}
	if opts.Store.Path != "" {
		if outcome.StoredID, err = storeRun(ctx, opts, def, res); err != nil {
			return nil, err
		}
	}
	return outcome, nil
}

func writeResult(res *sim.Result, dest string, stdout io.Writer) error {
	if dest == "" {
		s := res.Stats
		_, err := fmt.Fprintf(stdout, "clock=%.3f nodes=%d edges=%d elements=%d generated=%d delivered=%d events=%d pending=%d\n",
			s.Clock, s.NodesCount, s.EdgesCount, s.TotalElements, s.Generated, s.Delivered, s.EventsExecuted, s.PendingEvents)
		return err
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if dest == "-" {
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	logrus.Infof("result written to %s", dest)
	return nil
}

func storeRun(ctx context.Context, opts runOptions, def *process.Definition, res *sim.Result) (string, error) {
	st, err := store.Open(ctx, opts.Store)
	if err != nil {
		return "", err
	}
	defer st.Close()

	rec, err := store.NewSimulation(opts.ProcessID, def, res)
	if err != nil {
		return "", err
	}
	if err := st.Save(ctx, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerRunFlags binds the run flags to fs, resetting them to defaults.
func registerRunFlags(fs *pflag.FlagSet) {
	fs.StringVar(&processPath, "process", "", "Process definition file (YAML or JSON)")
	fs.StringVar(&configPath, "config", "", "Run config YAML; explicit flags override its values")
	fs.Float64Var(&timeLimit, "time", 0, "Simulated time limit")
	fs.IntVar(&maxGenerated, "max-generated", 0, "Stop after this many generated elements (0 = no limit)")
	fs.IntVar(&maxOutput, "max-output", 0, "Stop after this many delivered elements (0 = no limit)")
	fs.Int64Var(&seed, "seed", 42, "Seed for every random stream of the run")
	fs.StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	fs.StringVar(&outputPath, "out", "", "Write the result JSON to this file (- for stdout)")
	fs.StringVar(&dbPath, "db", "", "Store the run in this SQLite database")
	fs.StringVar(&processID, "process-id", "", "Process id recorded with the stored run")
	fs.StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics in textfile format to this path")
}

// init sets up CLI flags and subcommands
func init() {
	registerRunFlags(runCmd.Flags())

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(simulationsCmd)
}

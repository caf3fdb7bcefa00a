package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/episim/internal/automation"
	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/epidemic"
	"github.com/san-kum/episim/internal/metrics"
	"github.com/san-kum/episim/internal/render"
	"github.com/san-kum/episim/internal/storage"
	"github.com/san-kum/episim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string

	size              int
	steps             int
	seed              uint64
	workers           int
	beta              float64
	resistantInfect   float64
	recovery          float64
	minInfected       int
	initialInfected   int
	resistantFraction float64

	noVideo    bool
	noCurves   bool
	chartStrip bool
	fps        int
	scale      int

	numRuns   int
	seedStart uint64
	interval  time.Duration

	plotOut string

	sweepFile   string
	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepPoints int
)

// main registers the commands and exits with status 1 when one fails.
func main() {
	rootCmd := &cobra.Command{
		Use:          "episim",
		Short:        "stochastic SIR cellular automaton with partial resistance",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and record counts, video and curves",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addModelFlags(runCmd)
	runCmd.Flags().BoolVar(&noVideo, "no-video", false, "skip the MJPEG video")
	runCmd.Flags().BoolVar(&noCurves, "no-curves", false, "skip the curves PNG")
	runCmd.Flags().BoolVar(&chartStrip, "chart-strip", false, "draw running counts under every video frame")
	runCmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "video frame rate")
	runCmd.Flags().IntVar(&scale, "scale", config.DefaultScale, "pixels per cell")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch a simulation in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addModelFlags(liveCmd)
	liveCmd.Flags().DurationVar(&interval, "interval", 100*time.Millisecond, "time between steps")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the counts of a run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotOut, "out", "", "also save the curves to a file (.png, .svg or .pdf)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run counts to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and counts to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, p := range config.ListPresets() {
				fmt.Fprintf(w, "%s\t%s\n", p, config.Descriptions[p])
			}
			return w.Flush()
		},
	}

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run one configuration under many seeds",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addModelFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 10, "number of runs")
	ensembleCmd.Flags().Uint64Var(&seedStart, "seed-start", 1, "seed of the first run")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run an ensemble across a range of one parameter",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addModelFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepFile, "file", "", "sweep definition (yaml)")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "beta", "parameter to vary")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.05, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0.3, "last value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 6, "number of values")
	sweepCmd.Flags().IntVar(&numRuns, "runs", 10, "runs per value")
	sweepCmd.Flags().Uint64Var(&seedStart, "seed-start", 1, "seed of the first run at every value")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the transition engine",
		Args:  cobra.NoArgs,
		RunE:  benchEngine,
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, presetsCmd, ensembleCmd, sweepCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addModelFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.IntVar(&size, "size", config.DefaultSize, "grid side")
	f.IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	f.Uint64Var(&seed, "seed", 0, "random seed (0 in config picks one from the clock)")
	f.IntVar(&workers, "workers", 0, "engine goroutines (0 = all CPUs)")
	f.Float64Var(&beta, "beta", config.DefaultBeta, "infection probability per infected neighbor")
	f.Float64Var(&resistantInfect, "resistant-infection", config.DefaultResistantInfect, "infection probability for resistant cells")
	f.Float64Var(&recovery, "recovery", config.DefaultDailyRecovery, "daily recovery probability")
	f.IntVar(&minInfected, "min-infected", config.DefaultMinInfectedSteps, "minimum infected steps before recovery")
	f.IntVar(&initialInfected, "infected", config.DefaultInitialInfected, "initially infected cells")
	f.Float64Var(&resistantFraction, "resistant-fraction", config.DefaultResistantFraction, "fraction of partially resistant cells")
}

// resolveConfig layers preset, config file and explicitly set flags, in that
// order, and validates the result.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		if err := cfg.Merge(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("size") {
		cfg.Grid.Size = size
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("beta") {
		cfg.Rules.Beta = beta
	}
	if flags.Changed("resistant-infection") {
		cfg.Rules.ResistantInfection = resistantInfect
	}
	if flags.Changed("recovery") {
		cfg.Rules.DailyRecovery = recovery
	}
	if flags.Changed("min-infected") {
		cfg.Rules.MinInfectedSteps = minInfected
	}
	if flags.Changed("infected") {
		cfg.Grid.InitialInfected = initialInfected
	}
	if flags.Changed("resistant-fraction") {
		cfg.Grid.ResistantFraction = resistantFraction
	}
	if flags.Changed("no-video") {
		cfg.Output.Video = !noVideo
	}
	if flags.Changed("no-curves") {
		cfg.Output.Curves = !noCurves
	}
	if flags.Changed("chart-strip") {
		cfg.Output.ChartStrip = chartStrip
	}
	if flags.Changed("fps") {
		cfg.Output.FPS = fps
	}
	if flags.Changed("scale") {
		cfg.Output.Scale = scale
	}
	if flags.Changed("data") || cfg.Output.Dir == "" {
		cfg.Output.Dir = dataDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if flags.Changed("seed") {
		cfg.Seed = seed
	} else if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) (*log.Logger, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "episim",
	})
	if level == "" {
		return logger, nil
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}

func runSimulation(cmd *cobra.Command, args []string) (err error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	st := storage.New(cfg.Output.Dir)
	if err := st.Init(); err != nil {
		return err
	}

	runCfg := cfg.RunConfig()
	sim, err := epidemic.NewRun(runCfg, logger)
	if err != nil {
		return err
	}
	for _, m := range metrics.Defaults() {
		sim.AddMetric(m)
	}

	meta := storage.NewMetadata(runCfg)
	meta.Preset = preset
	run, err := st.Create(meta)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, run.Close()) }()
	sim.AddObserver(run)

	frameOpts := render.FrameOptions{Scale: cfg.Output.Scale, Legend: cfg.Output.Legend}
	if cfg.Output.Video {
		video, verr := render.NewVideo(run.Path("video.avi"), cfg.Grid.Size, render.VideoOptions{
			Frame:      frameOpts,
			FPS:        cfg.Output.FPS,
			ChartStrip: cfg.Output.ChartStrip,
			Steps:      cfg.Steps,
		})
		if verr != nil {
			return fmt.Errorf("video: %w", verr)
		}
		defer func() { err = errors.Join(err, video.Close()) }()
		sim.AddObserver(video)
		run.AddArtifact("video.avi")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("running", "id", run.ID(), "size", cfg.Grid.Size, "steps", cfg.Steps, "seed", cfg.Seed)
	start := time.Now()

	result, err := sim.Run(ctx, cfg.Steps)
	if err != nil {
		var sinkErr *epidemic.SinkError
		if errors.As(err, &sinkErr) {
			logger.Error("output failed, run aborted", "sink", sinkErr.Sink, "step", sinkErr.Step, "err", sinkErr.Wrapped)
		}
		return fmt.Errorf("run %s: %w", run.ID(), err)
	}
	elapsed := time.Since(start)

	title := fmt.Sprintf("%s (seed %d)", run.ID(), cfg.Seed)
	if cfg.Output.Curves && len(result.Counts) > 0 {
		if err := render.SaveCurves(run.Path("curves.png"), result.Counts, title); err != nil {
			return fmt.Errorf("curves: %w", err)
		}
		run.AddArtifact("curves.png")
	}
	frameOpts.Title = fmt.Sprintf("t=%d", result.Final.Generation())
	if err := render.SavePNG(run.Path("final.png"), result.Final, frameOpts); err != nil {
		return fmt.Errorf("final frame: %w", err)
	}
	run.AddArtifact("final.png")

	if err := run.Finish(result); err != nil {
		return err
	}

	final := result.Final.Counts()
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", run.ID())
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("final: S=%d I=%d R=%d Res=%d\n", final.Susceptible, final.Infected, final.Recovered, final.Resistant)
	fmt.Println("\nmetrics:")
	for _, m := range metrics.Defaults() {
		fmt.Printf("  %s: %.4f\n", m.Name(), result.Metrics[m.Name()])
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	opts := viz.Options{Interval: interval, Frame: render.FrameOptions{Scale: config.DefaultScale}}

	if preset == "" && configFile == "" {
		app := viz.NewApp(config.ListPresets(), config.Descriptions, func(name string) (viz.Factory, viz.Options, error) {
			preset = name
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return nil, viz.Options{}, err
			}
			o := opts
			o.Steps = cfg.Steps
			return liveFactory(cfg), o, nil
		})
		_, err := tea.NewProgram(app, tea.WithAltScreen()).Run()
		return err
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	opts.Name = preset
	opts.Steps = cfg.Steps
	m, err := viz.NewModel(liveFactory(cfg), opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// liveFactory starts from cfg's seed and moves to the next seed on every reset.
func liveFactory(cfg *config.Config) viz.Factory {
	runCfg := cfg.RunConfig()
	next := runCfg.Seed
	return func() (*epidemic.Simulator, error) {
		c := runCfg
		c.Seed = next
		next++
		return epidemic.NewRun(c, nil)
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tSIZE\tSTEPS\tBETA\tPEAK\tATTACK")

	for _, run := range runs {
		p := run.Preset
		if p == "" {
			p = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.3f\t%.0f\t%.3f\n",
			run.ID,
			p,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Size,
			run.StepsTaken,
			run.Beta,
			run.Metrics["peak_infected"],
			run.Metrics["attack_rate"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	counts, err := st.LoadCounts(runID)
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("grid: %dx%d, seed %d\n", meta.Size, meta.Size, meta.Seed)
	fmt.Printf("steps: %d\n\n", len(counts))

	series := make([][]float64, epidemic.NumStates)
	for s := range series {
		series[s] = make([]float64, len(counts))
		for i, c := range counts {
			series[s][i] = float64(c.Of(epidemic.State(s)))
		}
	}

	graph := asciigraph.PlotMany(series,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red, asciigraph.Blue, asciigraph.Yellow),
		asciigraph.SeriesLegends("susceptible", "infected", "recovered", "resistant"),
		asciigraph.Caption("population by state"),
	)
	fmt.Println(graph)

	if plotOut != "" {
		if err := render.SaveCurves(plotOut, counts, meta.ID); err != nil {
			return err
		}
		fmt.Printf("\ncurves saved to %s\n", plotOut)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	counts, err := st.LoadCounts(args[0])
	if err != nil {
		return err
	}
	return storage.ExportCSV(os.Stdout, counts)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	counts, err := st.LoadCounts(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, counts)
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	if numRuns < 1 {
		return fmt.Errorf("runs must be positive, got %d", numRuns)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("ensemble", "runs", numRuns, "seed_start", seedStart, "size", cfg.Grid.Size, "steps", cfg.Steps)
	start := time.Now()

	results, err := epidemic.NewEnsemble(cfg.RunConfig(), numRuns, seedStart, metrics.Defaults).Run(ctx)
	if err != nil {
		return err
	}

	names := make([]string, 0)
	for _, m := range metrics.Defaults() {
		names = append(names, m.Name())
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\t"+strings.ToUpper(strings.Join(names, "\t")))
	sums := make([]float64, len(names))
	for i, res := range results {
		row := []string{fmt.Sprintf("%d", seedStart+uint64(i))}
		for j, name := range names {
			v := res.Metrics[name]
			sums[j] += v
			row = append(row, fmt.Sprintf("%.4g", v))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	row := []string{"MEAN"}
	for _, s := range sums {
		row = append(row, fmt.Sprintf("%.4g", s/float64(len(results))))
	}
	fmt.Fprintln(w, strings.Join(row, "\t"))
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d runs in %v\n", len(results), time.Since(start))
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	sw := &automation.Sweep{Param: sweepParam, Min: sweepMin, Max: sweepMax, Points: sweepPoints, Runs: numRuns, SeedStart: seedStart}
	if sweepFile != "" {
		if sw, err = automation.LoadSweep(sweepFile); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunSweep(ctx, cfg.RunConfig(), sw, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tPEAK\tPEAK STEP\tATTACK RATE\tEXTINCT AT\n", strings.ToUpper(sw.Param))
	peaks := make([]float64, len(results))
	for i, r := range results {
		peaks[i] = r.Mean["peak_infected"]
		fmt.Fprintf(w, "%.4g\t%.1f ± %.1f\t%.1f\t%.3f ± %.3f\t%.1f\n",
			r.Value,
			r.Mean["peak_infected"], r.StdDev["peak_infected"],
			r.Mean["peak_step"],
			r.Mean["attack_rate"], r.StdDev["attack_rate"],
			r.Mean["extinction_step"],
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(peaks) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(peaks,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption(fmt.Sprintf("mean peak infected vs %s", sw.Param)),
		))
	}
	return nil
}

func benchEngine(cmd *cobra.Command, args []string) error {
	sizes := []int{50, 100, 200, 400}
	workerCounts := []int{1, runtime.NumCPU()}
	const benchSteps = 50

	fmt.Printf("benchmarking transition engine, %d steps per case\n\n", benchSteps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIZE\tWORKERS\tSTEPS\tTIME\tCELLS/SEC")

	for _, n := range sizes {
		for _, wk := range workerCounts {
			cfg := epidemic.RunConfig{
				Init:    epidemic.InitConfig{Size: n, ResistantFraction: config.DefaultResistantFraction, InitialInfected: n},
				Rules:   epidemic.DefaultRules(),
				Seed:    42,
				Workers: wk,
			}
			sim, err := epidemic.NewRun(cfg, nil)
			if err != nil {
				return err
			}

			start := time.Now()
			if _, err := sim.Run(context.Background(), benchSteps); err != nil {
				return err
			}
			elapsed := time.Since(start)

			cellsPerSec := float64(n*n*benchSteps) / elapsed.Seconds()
			fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.0f\n", n, wk, benchSteps, elapsed, cellsPerSec)
		}
	}

	return w.Flush()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/san-kum/dronectl/internal/config"
	"github.com/san-kum/dronectl/internal/dynamo"
	"github.com/san-kum/dronectl/internal/experiment"
	"github.com/san-kum/dronectl/internal/optim"
	"github.com/san-kum/dronectl/internal/server"
	"github.com/san-kum/dronectl/internal/storage"
	"github.com/san-kum/dronectl/internal/telemetry"
	"github.com/san-kum/dronectl/internal/viz"
)

var (
	dataDir string
	verbose bool

	configFile string
	dt         float64
	duration   float64
	seed       int64
	integrator string
	kp         float64
	ki         float64
	kd         float64
	alpha      float64
	target     float64
	antiWindup string

	outPath     string
	metricsAddr string
	listenAddr  string

	numSeeds  int
	seedStart int64
	workers   int

	kpRange string
	kiRange string
	kdRange string
	metric  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dronectl",
		Short:         "attitude control bench: PID + complementary filter on a simulated gimbal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				slog.Warn("reading .env", "err", err)
			}
			if dir := os.Getenv("DRONECTL_DATA"); dir != "" && !cmd.Flags().Changed("data") {
				dataDir = dir
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dronectl", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "fly a scenario and store the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot attitude, command and PID terms of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "output", "o", "", "write to file instead of stdout")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "output", "o", "", "write to file instead of stdout")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render attitude, setpoint and estimate of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outPath, "output", "o", "", "write to file instead of stdout")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "step response and oscillation analysis of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scenarios",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "fly a scenario across many sensor seeds",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&numSeeds, "seeds", 16, "number of seeds")
	sweepCmd.Flags().Int64Var(&seedStart, "seed-start", 1, "first seed")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (0 = GOMAXPROCS)")

	tuneCmd := &cobra.Command{
		Use:   "tune [preset]",
		Short: "grid search PID gains",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTune,
	}
	addScenarioFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&kpRange, "kp-range", "1:8:1", "kp values, list a,b,c or range start:stop:step")
	tuneCmd.Flags().StringVar(&kiRange, "ki-range", "0,0.5,1", "ki values")
	tuneCmd.Flags().StringVar(&kdRange, "kd-range", "0.5:2:0.5", "kd values")
	tuneCmd.Flags().StringVar(&metric, "metric", "tracking_rms", "metric to minimize")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "fly a scenario interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9100")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "browse stored runs over HTTP",
		Args:  cobra.NoArgs,
		RunE:  serveRuns,
	}
	serveCmd.Flags().StringVar(&listenAddr, "addr", "localhost:8080", "listen address")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, sweepCmd, tuneCmd, liveCmd, serveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.Float64Var(&dt, "dt", config.DefaultDt, "tick length, seconds")
	f.Float64Var(&duration, "time", config.DefaultDuration, "duration, seconds")
	f.Int64Var(&seed, "seed", 0, "sensor noise seed")
	f.StringVar(&integrator, "integrator", "rk4", "integrator: euler, rk4, verlet")
	f.Float64Var(&kp, "kp", config.DefaultKp, "pid kp")
	f.Float64Var(&ki, "ki", config.DefaultKi, "pid ki")
	f.Float64Var(&kd, "kd", config.DefaultKd, "pid kd")
	f.Float64Var(&alpha, "alpha", config.DefaultAlpha, "complementary filter gyro weight")
	f.Float64Var(&target, "target", 0, "constant setpoint, degrees (replaces the schedule)")
	f.StringVar(&antiWindup, "anti-windup", "term", "anti-windup mode: term, accumulator")
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("flying %s...\n", name)
	start := time.Now()

	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	for _, e := range result.Errors {
		slog.Warn("run stopped early", "err", e)
	}

	runID, err := st.Save(metadataFor(name, cfg), result)
	if err != nil {
		return err
	}
	slog.Debug("run stored", "id", runID, "dir", dataDir)

	fmt.Printf("completed in %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %s\n", humanize.Comma(int64(result.StepsTaken)))
	fmt.Println("\nmetrics:")
	printMetrics(os.Stdout, result.Metrics)
	return nil
}

func metadataFor(name string, cfg *config.Config) storage.RunMetadata {
	mode := cfg.PID.AntiWindup
	if mode == "" {
		mode = "term"
	}
	return storage.RunMetadata{
		Preset:     name,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
		Gains: storage.Gains{
			Kp:         cfg.PID.Kp,
			Ki:         cfg.PID.Ki,
			Kd:         cfg.PID.Kd,
			MinOutput:  cfg.PID.MinOutput,
			MaxOutput:  cfg.PID.MaxOutput,
			AntiWindup: mode,
		},
		Alpha: cfg.Filter.Alpha,
	}
}

func printMetrics(w io.Writer, metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-15s %.6f\n", name, metrics[name])
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

	now := time.Now()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tWHEN\tDURATION\tDT\tINTEG\tKP/KI/KD\tALPHA\tRMS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%g/%g/%g\t%.3f\t%.3f\n",
			run.ID,
			run.Preset,
			humanize.RelTime(run.Timestamp, now, "ago", "from now"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Gains.Kp, run.Gains.Ki, run.Gains.Kd,
			run.Alpha,
			run.Metrics["tracking_rms"],
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
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series["theta"]) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("samples: %s\n\n", humanize.Comma(int64(len(series["theta"]))))

	plots := []struct {
		caption string
		columns []string
		colors  []asciigraph.AnsiColor
	}{
		{"attitude (cyan) / setpoint (yellow) / estimate (green), deg", []string{"theta", "setpoint", "estimate"}, []asciigraph.AnsiColor{asciigraph.Cyan, asciigraph.Yellow, asciigraph.Green}},
		{"rate, deg/s", []string{"omega"}, []asciigraph.AnsiColor{asciigraph.Default}},
		{"command", []string{"u0"}, []asciigraph.AnsiColor{asciigraph.Default}},
		{"p (red) / i (blue) / d (magenta)", []string{"p", "i", "d"}, []asciigraph.AnsiColor{asciigraph.Red, asciigraph.Blue, asciigraph.Magenta}},
	}

	for _, p := range plots {
		var data [][]float64
		var colors []asciigraph.AnsiColor
		for i, col := range p.columns {
			if s, ok := series[col]; ok && len(s) > 0 {
				data = append(data, s)
				colors = append(colors, p.colors[i])
			}
		}
		if len(data) == 0 {
			continue
		}
		graph := asciigraph.PlotMany(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.SeriesColors(colors...),
			asciigraph.Caption(p.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func openOutput() (io.WriteCloser, error) {
	if outPath == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(outPath)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	src, err := st.OpenStates(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := openOutput()
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	dst, err := openOutput()
	if err != nil {
		return err
	}
	if err := st.ExportJSON(dst, args[0]); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tDURATION\tSETPOINTS\tNOISE\tIMBALANCE")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		steps := make([]string, 0, len(cfg.Setpoints))
		for _, s := range cfg.Setpoints {
			steps = append(steps, fmt.Sprintf("%g°@%gs", s.Angle, s.At))
		}
		if len(steps) == 0 {
			steps = append(steps, "level")
		}
		fmt.Fprintf(w, "%s\t%.0fs\t%s\t%g\t%g\n",
			name, cfg.Duration, strings.Join(steps, " "), cfg.IMU.AccelNoise, cfg.Gimbal.Imbalance)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if numSeeds <= 0 {
		return fmt.Errorf("--seeds must be positive")
	}

	seeds := make([]int64, numSeeds)
	for i := range seeds {
		seeds[i] = seedStart + int64(i)
	}

	slog.Info("sweep started", "preset", name, "seeds", numSeeds, "workers", workers)
	start := time.Now()

	res, err := experiment.Sweep(cmd.Context(), cfg, seeds, workers)
	if err != nil {
		return err
	}
	slog.Debug("sweep finished", "elapsed", time.Since(start))

	names := make([]string, 0, len(res.Mean))
	for n := range res.Mean {
		names = append(names, n)
	}
	sort.Strings(names)

	fmt.Printf("%s over %d seeds (%d..%d)\n\n", name, numSeeds, seeds[0], seeds[len(seeds)-1])
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tMAX")
	for _, n := range names {
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\n", n, res.Mean[n], res.Max[n])
	}
	return w.Flush()
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	var ranges [][]float64
	for _, spec := range []string{kpRange, kiRange, kdRange} {
		r, err := parseRange(spec)
		if err != nil {
			return err
		}
		ranges = append(ranges, r)
	}

	grid, err := optim.NewGridSearch([]string{"kp", "ki", "kd"}, ranges)
	if err != nil {
		return err
	}
	slog.Info("tuning", "preset", name, "metric", metric, "points", grid.Size())

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		c := cfg.Clone()
		c.PID.Kp, c.PID.Ki, c.PID.Kd = params["kp"], params["ki"], params["kd"]
		return experiment.New(c)
	}

	done := 0
	best, score, err := grid.Search(cmd.Context(), build, metric, func(c optim.Candidate) {
		done++
		if c.Err != nil {
			slog.Debug("candidate failed", "params", c.Params, "err", c.Err)
			return
		}
		slog.Debug("candidate", "n", done, "kp", c.Params["kp"], "ki", c.Params["ki"], "kd", c.Params["kd"], metric, c.Score)
	})
	if err != nil {
		return err
	}

	fmt.Printf("best %s for %s: %.6f\n", metric, name, score)
	fmt.Printf("  kp=%g ki=%g kd=%g\n", best["kp"], best["ki"], best["kd"])
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	var observers []dynamo.Observer
	if metricsAddr != "" {
		obs := telemetry.New(exp.Loop())
		observers = append(observers, obs)

		mux := http.NewServeMux()
		mux.Handle("/metrics", obs.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server", "err", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		slog.Info("serving metrics", "addr", metricsAddr, "path", "/metrics")
	}

	m := viz.NewModel(exp, name, observers...)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func serveRuns(cmd *cobra.Command, args []string) error {
	srv := &http.Server{
		Addr:    listenAddr,
		Handler: server.New(storage.New(dataDir), nil),
	}

	go func() {
		<-cmd.Context().Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	slog.Info("serving runs", "addr", listenAddr, "data", dataDir)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

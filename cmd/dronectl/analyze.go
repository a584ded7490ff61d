package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/dronectl/internal/analysis"
	"github.com/san-kum/dronectl/internal/export"
	"github.com/san-kum/dronectl/internal/storage"
)

// minStep is the smallest setpoint change, in degrees, worth measuring.
const minStep = 0.5

func analyzeRun(cmd *cobra.Command, args []string) error {
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

	times, theta, setpoints := series["time"], series["theta"], series["setpoint"]
	if len(theta) < 2 || len(setpoints) != len(theta) {
		return fmt.Errorf("run %s has no attitude/setpoint data", runID)
	}

	fmt.Printf("step response: %s\n", meta.ID)
	fmt.Printf("preset: %s  kp=%g ki=%g kd=%g alpha=%g\n\n", meta.Preset, meta.Gains.Kp, meta.Gains.Ki, meta.Gains.Kd, meta.Alpha)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AT\tFROM\tTO\tRISE\tOVERSHOOT\tSETTLE\tFINAL ERR")
	measured := 0
	for _, seg := range analysis.Segments(setpoints) {
		t, v := times[seg.Start:seg.End], theta[seg.Start:seg.End]
		if len(v) < 2 || math.Abs(seg.To-v[0]) < minStep {
			continue
		}
		stats, err := analysis.StepResponse(t, v, seg.To)
		if err != nil {
			continue
		}
		measured++
		fmt.Fprintf(w, "%.2fs\t%+.2f°\t%+.2f°\t%s\t%.1f%%\t%s\t%+.3f°\n",
			t[0], stats.From, stats.To,
			seconds(stats.RiseTime), stats.Overshoot, seconds(stats.SettlingTime), stats.FinalError)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if measured == 0 {
		fmt.Println("(no setpoint steps)")
	}

	// oscillation in the tracking error over the second half of the run
	half := len(theta) / 2
	errs := make([]float64, len(theta)-half)
	for i := range errs {
		errs[i] = setpoints[half+i] - theta[half+i]
	}
	if freq, err := analysis.DominantFrequency(errs, meta.Dt); err == nil && freq > 0 {
		fmt.Printf("\ndominant error frequency: %.3f hz (period %.3f s)\n", freq, 1/freq)
	}
	return nil
}

func seconds(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.3fs", v)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	series, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}

	var lines []export.Line
	for _, name := range []string{"theta", "setpoint", "estimate"} {
		if v, ok := series[name]; ok {
			lines = append(lines, export.Line{Name: name, Values: v})
		}
	}

	dst, err := openOutput()
	if err != nil {
		return err
	}
	if err := export.SeriesSVG(dst, series["time"], lines, 960, 400); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

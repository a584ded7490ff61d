package storage

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dronectl/internal/dynamo"
)

func testResult() *dynamo.Result {
	return &dynamo.Result{
		States: []dynamo.State{
			{0.0, 0.0},
			{0.2, 20.0},
			{0.6, 40.0},
		},
		Controls: []dynamo.Control{
			{40.0},
			{35.5},
		},
		Times:   []float64{0.0, 0.01, 0.02},
		Metrics: map[string]float64{"tracking_rms": 1.5},
		Series: map[string][]float64{
			"setpoint": {10, 10},
			"estimate": {0, 0.004},
		},
		StepsTaken: 2,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runID, err := st.Save(RunMetadata{
		Preset:     "step",
		Seed:       42,
		Dt:         0.01,
		Duration:   0.02,
		Integrator: "rk4",
		Gains:      Gains{Kp: 4, Ki: 0.5, Kd: 1, MinOutput: -50, MaxOutput: 50, AntiWindup: "term"},
		Alpha:      0.98,
	}, testResult())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(runID, "step-"), runID)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, runID, meta.ID)
	assert.Equal(t, "step", meta.Preset)
	assert.Equal(t, int64(42), meta.Seed)
	assert.Equal(t, 2, meta.Steps)
	assert.Equal(t, 4.0, meta.Gains.Kp)
	assert.Equal(t, 0.98, meta.Alpha)
	assert.Equal(t, 1.5, meta.Metrics["tracking_rms"])
	assert.False(t, meta.Timestamp.IsZero())
}

func TestLoadSeries(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runID, err := st.Save(RunMetadata{Preset: "step"}, testResult())
	require.NoError(t, err)

	series, err := st.LoadSeries(runID)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0.01, 0.02}, series["time"])
	assert.Equal(t, []float64{0, 0.2, 0.6}, series["theta"])
	assert.Equal(t, []float64{0, 20, 40}, series["omega"])
	// the last row holds the previous command
	assert.Equal(t, []float64{40, 35.5, 35.5}, series["u0"])
	assert.Equal(t, []float64{10, 10, 10}, series["setpoint"])
	assert.Equal(t, []float64{0, 0.004, 0.004}, series["estimate"])
	assert.NotContains(t, series, "gyro")
}

func TestCSVHeaderOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testResult()))

	first, _, _ := strings.Cut(buf.String(), "\n")
	assert.Equal(t, "time,theta,omega,u0,setpoint,estimate", first)

	_, columns, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "theta", "omega", "u0", "setpoint", "estimate"}, columns)
}

func TestReadCSVCorrupt(t *testing.T) {
	_, _, err := ReadCSV(strings.NewReader("time,theta\n0.0,abc\n"))
	assert.ErrorIs(t, err, ErrCorrupt)

	series, _, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	require.NoError(t, st.Init())
	first, err := st.Save(RunMetadata{Preset: "step"}, testResult())
	require.NoError(t, err)
	second, err := st.Save(RunMetadata{}, testResult())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(second, "custom-"), second)

	// stray directories are skipped
	require.NoError(t, os.Mkdir(filepath.Join(dir, "junk"), 0755))

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)

	ids := []string{runs[0].ID, runs[1].ID}
	assert.ElementsMatch(t, []string{first, second}, ids)
	assert.False(t, runs[0].Timestamp.Before(runs[1].Timestamp))
}

func TestLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	for _, id := range []string{"nope", "", "../etc", "a/b", ".."} {
		_, err := st.Load(id)
		assert.ErrorIs(t, err, ErrRunNotFound, id)
	}

	_, err := st.LoadSeries("nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestOpenStates(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())
	runID, err := st.Save(RunMetadata{Preset: "hover"}, testResult())
	require.NoError(t, err)

	rc, err := st.OpenStates(runID)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(data), "\n"))
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())
	runID, err := st.Save(RunMetadata{Preset: "step", Alpha: 0.9}, testResult())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, st.ExportJSON(&buf, runID))

	var got ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, runID, got.ID)
	assert.Equal(t, 0.9, got.Alpha)
	assert.Equal(t, "time", got.Columns[0])
	assert.Equal(t, []float64{0, 0.2, 0.6}, got.Series["theta"])
}

package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/dronectl/internal/dynamo"
	"github.com/san-kum/dronectl/internal/flight"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// WriteCSV writes one row per stored state: time, theta, omega, the
// command and any loop series present in result.Series. The final state has
// no command of its own, so its command and series cells repeat the
// previous tick.
func WriteCSV(w io.Writer, result *dynamo.Result) error {
	cw := csv.NewWriter(w)

	header := []string{"time", "theta", "omega"}

	numControls := 0
	if len(result.Controls) > 0 {
		numControls = len(result.Controls[0])
	}
	for i := 0; i < numControls; i++ {
		header = append(header, fmt.Sprintf("u%d", i))
	}

	var names []string
	for _, name := range flight.SeriesNames {
		if _, ok := result.Series[name]; ok {
			names = append(names, name)
		}
	}
	header = append(header, names...)

	if err := cw.Write(header); err != nil {
		return err
	}

	for i, x := range result.States {
		row := []string{formatFloat(result.Times[i])}
		for j := 0; j < 2; j++ {
			v := 0.0
			if j < len(x) {
				v = x[j]
			}
			row = append(row, formatFloat(v))
		}

		k := min(i, len(result.Controls)-1)
		for j := 0; j < numControls; j++ {
			v := 0.0
			if k >= 0 && j < len(result.Controls[k]) {
				v = result.Controls[k][j]
			}
			row = append(row, formatFloat(v))
		}
		for _, name := range names {
			s := result.Series[name]
			v := 0.0
			if n := min(i, len(s)-1); n >= 0 {
				v = s[n]
			}
			row = append(row, formatFloat(v))
		}

		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file written by WriteCSV into columns, returning them with
// the header order.
func ReadCSV(r io.Reader) (map[string][]float64, []string, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return map[string][]float64{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	out := make(map[string][]float64, len(header))
	for _, name := range header {
		out[name] = []float64{}
	}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		for j, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: line %d column %s: %v", ErrCorrupt, line, header[j], err)
			}
			out[header[j]] = append(out[header[j]], v)
		}
	}
	return out, header, nil
}

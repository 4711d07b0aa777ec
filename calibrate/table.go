package calibrate

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// MissingPolicy selects how Table.ApplyMissingPolicy fills cells that failed
// to parse as a float, grounded on csv_connector.py's handle_missing_values.
type MissingPolicy string

const (
	MissingDrop        MissingPolicy = "drop"
	MissingMean        MissingPolicy = "mean"
	MissingMedian      MissingPolicy = "median"
	MissingForwardFill MissingPolicy = "forward_fill"
	MissingFill        MissingPolicy = "fill"
)

// Table is a column-oriented in-memory view of a calibration dataset,
// reimplemented over encoding/csv in place of the Python reference's
// pandas.read_csv — the pack carries no DataFrame-equivalent library, so
// this is a deliberate stdlib fallback (see DESIGN.md).
type Table struct {
	Columns map[string][]float64
	present map[string][]bool
	rows    int
}

// LoadCSV reads r as a CSV with a header row and extracts columns, matching
// csv_connector.py's CSVConnector.load_data + map_columns: columns maps
// a PEL param name to the CSV header name that carries its values.
func LoadCSV(r io.Reader, columns map[string]string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	headerIdx := make(map[string]int, len(header))
	for i, h := range header {
		headerIdx[h] = i
	}

	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	colIdx := make(map[string]int, len(columns))
	for _, name := range names {
		csvCol := columns[name]
		j, ok := headerIdx[csvCol]
		if !ok {
			return nil, fmt.Errorf("column %q not found in CSV header", csvCol)
		}
		colIdx[name] = j
	}

	t := &Table{Columns: map[string][]float64{}, present: map[string][]bool{}}
	for _, name := range names {
		t.Columns[name] = nil
		t.present[name] = nil
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		for _, name := range names {
			raw := rec[colIdx[name]]
			v, perr := strconv.ParseFloat(raw, 64)
			t.Columns[name] = append(t.Columns[name], v)
			t.present[name] = append(t.present[name], perr == nil)
		}
		t.rows++
	}
	return t, nil
}

// Rows reports how many rows the table currently holds.
func (t *Table) Rows() int { return t.rows }

// ApplyMissingPolicy fills or drops rows with unparseable cells, matching
// csv_connector.py's handle_missing_values strategies. fillValue is only
// consulted for MissingFill.
func (t *Table) ApplyMissingPolicy(policy MissingPolicy, fillValue float64) error {
	if policy == MissingDrop {
		t.dropIncompleteRows()
		return nil
	}
	for col, vals := range t.Columns {
		present := t.present[col]
		switch policy {
		case MissingMean:
			m := meanPresent(vals, present)
			for i := range vals {
				if !present[i] {
					vals[i] = m
				}
			}
		case MissingMedian:
			m := medianPresent(vals, present)
			for i := range vals {
				if !present[i] {
					vals[i] = m
				}
			}
		case MissingForwardFill:
			last := 0.0
			for i := range vals {
				if present[i] {
					last = vals[i]
				} else {
					vals[i] = last
				}
			}
		case MissingFill:
			for i := range vals {
				if !present[i] {
					vals[i] = fillValue
				}
			}
		default:
			return fmt.Errorf("unknown missing-value policy %q", policy)
		}
	}
	return nil
}

func (t *Table) dropIncompleteRows() {
	keep := make([]bool, t.rows)
	for i := range keep {
		keep[i] = true
	}
	for _, present := range t.present {
		for i, ok := range present {
			if !ok {
				keep[i] = false
			}
		}
	}
	for col, vals := range t.Columns {
		filtered := make([]float64, 0, len(vals))
		for i, v := range vals {
			if keep[i] {
				filtered = append(filtered, v)
			}
		}
		t.Columns[col] = filtered
	}
	newRows := 0
	for _, k := range keep {
		if k {
			newRows++
		}
	}
	t.rows = newRows
}

func meanPresent(vals []float64, present []bool) float64 {
	sum, n := 0.0, 0
	for i, v := range vals {
		if present[i] {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func medianPresent(vals []float64, present []bool) float64 {
	var xs []float64
	for i, v := range vals {
		if present[i] {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 {
		return 0
	}
	sort.Float64s(xs)
	mid := len(xs) / 2
	if len(xs)%2 == 0 {
		return (xs[mid-1] + xs[mid]) / 2
	}
	return xs[mid]
}

// OutlierMethod selects the detection rule for Table.DetectOutliers,
// grounded on csv_connector.py's detect_outliers("iqr"|"zscore").
type OutlierMethod string

const (
	OutlierIQR    OutlierMethod = "iqr"
	OutlierZScore OutlierMethod = "zscore"
)

// DetectOutliers returns a per-row boolean mask over column flagging
// outliers, using either Tukey's IQR fence (k defaults to 1.5 when <= 0)
// or a |z| > threshold rule (threshold defaults to 3 when <= 0).
func (t *Table) DetectOutliers(column string, method OutlierMethod, param float64) []bool {
	vals := t.Columns[column]
	switch method {
	case OutlierZScore:
		threshold := param
		if threshold <= 0 {
			threshold = 3
		}
		mean := meanOf(vals)
		std := sampleStd(vals, mean)
		mask := make([]bool, len(vals))
		if std == 0 {
			return mask
		}
		for i, v := range vals {
			z := (v - mean) / std
			if z < 0 {
				z = -z
			}
			mask[i] = z > threshold
		}
		return mask
	default: // OutlierIQR
		k := param
		if k <= 0 {
			k = 1.5
		}
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		q1 := quantile(sorted, 0.25)
		q3 := quantile(sorted, 0.75)
		iqr := q3 - q1
		lower, upper := q1-k*iqr, q3+k*iqr
		mask := make([]bool, len(vals))
		for i, v := range vals {
			mask[i] = v < lower || v > upper
		}
		return mask
	}
}

// FilterOutliers drops every row flagged by mask from every column.
func (t *Table) FilterOutliers(mask []bool) {
	for col, vals := range t.Columns {
		filtered := make([]float64, 0, len(vals))
		for i, v := range vals {
			if i < len(mask) && mask[i] {
				continue
			}
			filtered = append(filtered, v)
		}
		t.Columns[col] = filtered
	}
	removed := 0
	for _, m := range mask {
		if m {
			removed++
		}
	}
	t.rows -= removed
}

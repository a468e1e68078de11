package goident

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Exporter defines an export interface.
type Exporter interface {
	Write(k int, values []float64) error
	Close() error
}

// CSVExporter writes one sample per line to a CSV file.
type CSVExporter struct {
	columns int
	hdlr    *os.File
	w       *csv.Writer
}

// Close closes the file.
func (e *CSVExporter) Close() error {
	if err := e.WriteRawLn(fmt.Sprintf("# Closing date (UTC): %s", time.Now().UTC())); err != nil {
		e.hdlr.Close()
		return err
	}
	return e.hdlr.Close()
}

// Write writes the values of sample k.
func (e *CSVExporter) Write(k int, values []float64) error {
	if len(values) != e.columns {
		return fmt.Errorf("goident: %d values for %d columns", len(values), e.columns)
	}
	rec := make([]string, 1+len(values))
	rec[0] = strconv.Itoa(k)
	for i, v := range values {
		rec[i+1] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	if err := e.w.Write(rec); err != nil {
		return err
	}
	e.w.Flush()
	return e.w.Error()
}

// WriteRawLn writes a raw line to the CSV file.
func (e *CSVExporter) WriteRawLn(s string) error {
	e.w.Flush()
	_, err := e.hdlr.WriteString(s + "\n")
	return err
}

// NewCSVExporter creates dir/filename and writes the header line.
func NewCSVExporter(headers []string, dir, filename string) (*CSVExporter, error) {
	f, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintf(f, "# Creation date (UTC): %s\n", time.Now().UTC()); err != nil {
		f.Close()
		return nil, err
	}
	e := &CSVExporter{columns: len(headers), hdlr: f, w: csv.NewWriter(f)}
	if err := e.w.Write(append([]string{"k"}, headers...)); err != nil {
		f.Close()
		return nil, err
	}
	e.w.Flush()
	return e, e.w.Error()
}

// ExportPrediction writes the measured and predicted outputs side by side,
// y0, ŷ0, y1, ŷ1, ...
func ExportPrediction(e Exporter, y, yhat mat.Matrix) error {
	if err := checkMatDims(y, yhat, "y", "ŷ", rowsAndcols); err != nil {
		return err
	}
	t, l := y.Dims()
	vals := make([]float64, 2*l)
	for k := 0; k < t; k++ {
		for j := 0; j < l; j++ {
			vals[2*j] = y.At(k, j)
			vals[2*j+1] = yhat.At(k, j)
		}
		if err := e.Write(k, vals); err != nil {
			return err
		}
	}
	return nil
}

// PredictionHeaders returns the column names used by ExportPrediction.
func PredictionHeaders(l int) []string {
	hdr := make([]string, 2*l)
	for j := 0; j < l; j++ {
		hdr[2*j] = fmt.Sprintf("y%d", j)
		hdr[2*j+1] = fmt.Sprintf("y%d-hat", j)
	}
	return hdr
}

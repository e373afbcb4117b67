// Package report writes run results as CSV and draws diagnostic plots.
package report

import (
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/YuminosukeSato/tabml/metrics"
	"github.com/YuminosukeSato/tabml/pkg/errors"
)

// Record is one metric of one trained model.
type Record struct {
	RunID        string  `csv:"run_id"`
	Algorithm    string  `csv:"algorithm"`
	Metric       string  `csv:"metric"`
	Value        float64 `csv:"value"`
	TrainMs      float64 `csv:"train_ms"`
	TrainSamples int     `csv:"train_samples"`
	TestSamples  int     `csv:"test_samples"`
}

// WriteRecords writes records with a header line.
func WriteRecords(w io.Writer, records []Record) error {
	if err := gocsv.Marshal(&records, w); err != nil {
		return errors.Wrap(err, "write report")
	}
	return nil
}

// WriteRecordsFile writes records to path, replacing it.
func WriteRecordsFile(path string, records []Record) error {
	return writeFile(path, func(w io.Writer) error { return WriteRecords(w, records) })
}

// ReadRecords parses a report written by WriteRecords.
func ReadRecords(r io.Reader) ([]Record, error) {
	var records []Record
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, errors.Wrap(err, "read report")
	}
	return records, nil
}

// WriteClassReport writes per-class precision, recall, F1 and support.
func WriteClassReport(w io.Writer, reports []metrics.ClassReport) error {
	if err := gocsv.Marshal(&reports, w); err != nil {
		return errors.Wrap(err, "write class report")
	}
	return nil
}

// WriteClassReportFile writes the per-class report to path, replacing it.
func WriteClassReportFile(path string, reports []metrics.ClassReport) error {
	return writeFile(path, func(w io.Writer) error { return WriteClassReport(w, reports) })
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()
	return write(f)
}

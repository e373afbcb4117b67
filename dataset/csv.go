package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/tabml/pkg/errors"
	"github.com/YuminosukeSato/tabml/pkg/log"
)

// TargetMode selects how the target column is encoded.
type TargetMode int

const (
	// TargetBinary maps PositiveLabel to 1 and everything else to 0.
	TargetBinary TargetMode = iota
	// TargetNumeric parses the target as a real number.
	TargetNumeric
)

// ParseTargetMode accepts "binary" and "numeric".
func ParseTargetMode(s string) (TargetMode, error) {
	switch strings.ToLower(s) {
	case "", "binary":
		return TargetBinary, nil
	case "numeric":
		return TargetNumeric, nil
	default:
		return 0, errors.NewValidationError("target_mode", "must be binary or numeric", s)
	}
}

// CSVOptions controls LoadCSV.
type CSVOptions struct {
	// Target is the zero-based column index of the target. Negative values
	// count from the end, so -1 is the last column.
	Target int
	// Mode selects the target encoding. The zero value is TargetBinary.
	Mode TargetMode
	// PositiveLabel is compared after spaces are removed. Empty means
	// DefaultPositiveLabel.
	PositiveLabel string
}

// ReadHeaderFile returns the column names of the CSV file at path.
func ReadHeaderFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	return ReadHeader(f)
}

// ReadHeader returns the first record of r with spaces removed from each field.
func ReadHeader(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Wrap(errors.ErrEmptyData, "csv has no header")
	}
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}
	for i := range header {
		header[i] = clean(header[i])
	}
	return header, nil
}

// LoadCSV reads the CSV file at path. See ReadCSV.
func LoadCSV(path string, opts CSVOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	d, err := ReadCSV(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	log.GetLoggerWithName("dataset").Info("dataset loaded",
		log.PathKey, path,
		log.SamplesKey, d.NSamples(),
		log.FeaturesKey, d.NFeatures(),
		log.TargetKey, d.Headers[d.Target],
	)
	return d, nil
}

// ReadCSV parses a CSV stream whose first line is a header. Spaces are removed
// from every field. The target column is encoded according to opts.Mode and
// every other column becomes a feature. Cells that do not parse as numbers
// become 0; each affected column raises one DataConversionWarning.
func ReadCSV(r io.Reader, opts CSVOptions) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Wrap(errors.ErrEmptyData, "csv has no header")
	}
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = clean(h)
	}
	target := opts.Target
	if target < 0 {
		target += len(headers)
	}
	if target < 0 || target >= len(headers) {
		return nil, errors.NewValidationError("target",
			fmt.Sprintf("must be a column index in [-%d, %d)", len(headers), len(headers)), opts.Target)
	}
	positive := opts.PositiveLabel
	if positive == "" {
		positive = DefaultPositiveLabel
	}
	positive = clean(positive)

	d := &Dataset{Headers: headers, Target: target}
	for i, h := range headers {
		if i != target {
			d.FeatureNames = append(d.FeatureNames, h)
		}
	}

	zeroFilled := make([]int, len(headers))
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read csv line %d", line)
		}

		row := make([]float64, 0, len(headers)-1)
		for i, field := range record {
			token := clean(field)
			if i == target {
				y, ok := encodeTarget(token, opts.Mode, positive)
				if !ok {
					zeroFilled[i]++
				}
				d.Y = append(d.Y, y)
				continue
			}
			v, err := strconv.ParseFloat(token, 64)
			if err != nil {
				zeroFilled[i]++
				v = 0
			}
			row = append(row, v)
		}
		d.X = append(d.X, row)
	}

	for i, n := range zeroFilled {
		if n > 0 {
			errors.Warn(errors.NewDataConversionWarning("string", "float64",
				fmt.Sprintf("column %q: %d non-numeric values replaced with 0", headers[i], n)))
		}
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func encodeTarget(token string, mode TargetMode, positive string) (float64, bool) {
	if mode == TargetBinary {
		if token == positive {
			return 1, true
		}
		return 0, true
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func clean(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

package dataset

import (
	"io"
	"os"
	"strconv"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabml/pkg/errors"
)

// LoadNPY reads a 2-D feature array from xPath and a 1-D target array from
// yPath. Feature names are generated as x0, x1, ...
func LoadNPY(xPath, yPath string) (*Dataset, error) {
	X, err := readNPYMatrix(xPath)
	if err != nil {
		return nil, err
	}
	y, err := readNPYVector(yPath)
	if err != nil {
		return nil, err
	}

	r, c := X.Dims()
	d := &Dataset{Target: -1, X: make([][]float64, r), Y: y}
	for i := range d.X {
		d.X[i] = mat.Row(nil, i, X)
	}
	for j := 0; j < c; j++ {
		d.FeatureNames = append(d.FeatureNames, "x"+strconv.Itoa(j))
	}
	if err := d.validate(); err != nil {
		return nil, errors.Wrapf(err, "load %s", xPath)
	}
	return d, nil
}

func readNPYMatrix(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read npy header %s", path)
	}
	m := &mat.Dense{}
	if err := r.Read(m); err != nil {
		return nil, errors.Wrapf(err, "read npy %s", path)
	}
	return m, nil
}

func readNPYVector(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var v []float64
	if err := npyio.Read(f, &v); err != nil {
		return nil, errors.Wrapf(err, "read npy %s", path)
	}
	return v, nil
}

// WriteNPY writes m as a 2-D float64 array.
func WriteNPY(w io.Writer, m *mat.Dense) error {
	if err := npyio.Write(w, m); err != nil {
		return errors.Wrap(err, "write npy")
	}
	return nil
}

// WriteNPYVector writes v as a 1-D float64 array.
func WriteNPYVector(w io.Writer, v []float64) error {
	if err := npyio.Write(w, v); err != nil {
		return errors.Wrap(err, "write npy")
	}
	return nil
}

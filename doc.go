// Package tabml is a small machine-learning toolkit for tabular data,
// written for learning how the classic algorithms work.
//
// tabml trains five models behind one scikit-learn-like estimator API:
// ridge regression solved by Gaussian elimination, logistic regression
// trained with SGD, k-nearest neighbours, an ID3-style decision tree grown
// by information gain, and Gaussian naive Bayes.
//
// # Installation
//
//	go install github.com/YuminosukeSato/tabml/cmd/tabml@latest
//
// # Quick Start
//
// From the command line:
//
//	tabml columns --data adult.csv
//	tabml train tree --data adult.csv --target 14 --render tree.svg
//	tabml evaluate --data adult.csv --target 14
//
// From Go:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/tabml/tree"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
//	    y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})
//
//	    clf := tree.NewDecisionTreeClassifier(tree.WithMaxDepth(3))
//	    if err := clf.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//	    pred, err := clf.Predict(mat.NewDense(1, 1, []float64{3.5}))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("class:", pred.At(0, 0))
//	}
//
// # Packages
//
//   - tree: entropy, information gain, tree builder, predictor and graphviz rendering
//   - linear: Gaussian elimination, ridge regression and logistic regression
//   - neighbors: k-nearest neighbours classifier
//   - naivebayes: Gaussian naive Bayes
//   - metrics: RMSE, R², accuracy, precision/recall/F1 and macro-F1
//   - preprocessing: standard and min-max scalers
//   - dataset: CSV and .npy loading, seeded train/test split
//   - core/model: estimator interfaces, state management and persistence
//   - core/parallel: chunked parallel prediction
//   - pkg/errors, pkg/log: structured errors and zerolog-backed logging
//
// # Performance
//
// Batch prediction is parallelised automatically once a matrix has more
// than 1000 rows. Fitting is single-threaded and deterministic: the same
// data, seed and hyperparameters always give the same model.
//
// # License
//
// tabml is released under the MIT License.
package tabml

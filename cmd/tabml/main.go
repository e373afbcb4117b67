// Command tabml trains and evaluates small machine-learning models on
// tabular CSV data.
//
//	tabml columns --data adult.csv
//	tabml train tree --data adult.csv --target 14 --render tree.svg
//	tabml evaluate --data adult.csv --target 14
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

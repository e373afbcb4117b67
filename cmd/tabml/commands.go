package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/tabml/dataset"
	"github.com/YuminosukeSato/tabml/internal/experiment"
	"github.com/YuminosukeSato/tabml/internal/registry"
	"github.com/YuminosukeSato/tabml/internal/report"
	"github.com/YuminosukeSato/tabml/internal/telemetry"
	"github.com/YuminosukeSato/tabml/pkg/errors"
	"github.com/YuminosukeSato/tabml/pkg/log"
	"github.com/YuminosukeSato/tabml/tree"
)

func (a *app) columnsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "List the columns of a CSV file with their index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			defer errors.Recover(&err, "columns")
			if a.cfg.Data.Path == "" {
				return errors.NewValidationError("data", "a data file is required", "")
			}
			headers, err := dataset.ReadHeaderFile(a.cfg.Data.Path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Available columns:")
			for i, h := range headers {
				fmt.Fprintf(out, "%d: %s\n", i, h)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&a.data, "data", "", "CSV file")
	return cmd
}

type trainOptions struct {
	save        string
	report      string
	classReport string
	plot        string
	render      string
}

func (a *app) trainCmd() *cobra.Command {
	var opts trainOptions
	cmd := &cobra.Command{
		Use:   "train <linear|logistic|knn|tree|nb>",
		Short: "Train one model and report its test metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer errors.Recover(&err, "train")
			algo, err := experiment.ParseAlgorithm(args[0])
			if err != nil {
				return err
			}
			return a.runTrain(cmd, algo, opts)
		},
	}
	a.addDataFlags(cmd)
	a.addModelFlags(cmd)
	f := cmd.Flags()
	f.StringVar(&opts.save, "save", "", "store the fitted model in the registry under this name")
	f.StringVar(&opts.report, "report", "", "write the test metrics to this CSV file")
	f.StringVar(&opts.classReport, "class-report", "", "write per-class precision, recall and F1 to this CSV file")
	f.StringVar(&opts.plot, "plot", "", "save a predicted-vs-actual plot (.png, .svg, .pdf)")
	f.StringVar(&opts.render, "render", "", "render the decision tree (.svg, .png, .jpg, .dot); tree only")
	return cmd
}

func (a *app) runTrain(cmd *cobra.Command, algo experiment.Algorithm, opts trainOptions) error {
	if opts.render != "" && algo != experiment.Tree {
		return errors.NewValidationError("render", "only the tree algorithm can be rendered", string(algo))
	}
	data, err := a.loadData(a.cfg)
	if err != nil {
		return err
	}
	metrics := telemetry.New()
	run, err := experiment.NewRun(a.cfg, data, metrics)
	if err != nil {
		return err
	}
	res, err := run.Train(algo)
	if err != nil {
		return err
	}
	res.Print(cmd.OutOrStdout())

	if opts.save != "" {
		if err := a.save(opts.save, run, res); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved model %q\n", opts.save)
	}
	if opts.report != "" {
		records := res.Records(run.ID, len(run.Split.XTrain), len(run.Split.XTest))
		if err := report.WriteRecordsFile(opts.report, records); err != nil {
			return err
		}
	}
	if opts.classReport != "" && res.ClassReport != nil {
		if err := report.WriteClassReportFile(opts.classReport, res.ClassReport); err != nil {
			return err
		}
	}
	if opts.plot != "" {
		if err := report.PredictedVsActual(opts.plot, algo.DisplayName(), run.Split.YTest, res.Predictions); err != nil {
			return err
		}
	}
	if opts.render != "" {
		dt := res.Model.(*tree.DecisionTreeClassifier)
		if err := dt.Tree().RenderFile(opts.render, data.FeatureNames); err != nil {
			return err
		}
	}
	return a.writeMetrics(metrics)
}

func (a *app) save(name string, run *experiment.Run, res *experiment.Result) error {
	store, err := a.openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Save(registry.Entry{
		Name:          name,
		Algorithm:     string(res.Algorithm),
		RunID:         run.ID,
		Features:      run.Data.FeatureNames,
		Target:        a.cfg.Data.Target,
		TargetMode:    a.cfg.Data.TargetMode,
		PositiveLabel: a.cfg.Data.PositiveLabel,
		TrainFraction: a.cfg.Data.TrainFraction,
		Seed:          a.cfg.Data.Seed,
		Scaler:        a.cfg.Data.Scaler,
		Metrics:       res.Metrics(),
	}, res.Model)
}

func (a *app) evaluateCmd() *cobra.Command {
	var reportPath string
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Train every algorithm on the same split and print a results table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			defer errors.Recover(&err, "evaluate")
			data, err := a.loadData(a.cfg)
			if err != nil {
				return err
			}
			metrics := telemetry.New()
			run, err := experiment.NewRun(a.cfg, data, metrics)
			if err != nil {
				return err
			}
			results, trainErr := run.TrainAll()
			if err := experiment.PrintTable(cmd.OutOrStdout(), results); err != nil {
				return err
			}
			if trainErr != nil {
				return trainErr
			}
			if reportPath != "" {
				var records []report.Record
				for _, res := range results {
					if res.Err != nil {
						continue
					}
					records = append(records, res.Records(run.ID, len(run.Split.XTrain), len(run.Split.XTest))...)
				}
				if err := report.WriteRecordsFile(reportPath, records); err != nil {
					return err
				}
			}
			return a.writeMetrics(metrics)
		},
	}
	a.addDataFlags(cmd)
	a.addModelFlags(cmd)
	cmd.Flags().StringVar(&reportPath, "report", "", "write all test metrics to this CSV file")
	return cmd
}

func (a *app) predictCmd() *cobra.Command {
	var (
		name string
		out  string
		show int
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Evaluate a stored model on the test split of a data file",
		Long: `predict loads a model saved with "train --save" and rebuilds the split it
was evaluated on from the stored target, seed, train fraction and scaler.
Only --data (and --labels for .npy input) is taken from the command line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			defer errors.Recover(&err, "predict")
			store, err := a.openRegistry()
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.Entry(name)
			if err != nil {
				return err
			}
			algo, err := experiment.ParseAlgorithm(entry.Algorithm)
			if err != nil {
				return err
			}
			m, err := experiment.NewModel(algo, a.cfg)
			if err != nil {
				return err
			}
			if _, err := store.Load(name, m); err != nil {
				return err
			}

			cfg := a.cfg
			cfg.Data.Target = entry.Target
			cfg.Data.TargetMode = entry.TargetMode
			cfg.Data.PositiveLabel = entry.PositiveLabel
			cfg.Data.TrainFraction = entry.TrainFraction
			cfg.Data.Seed = entry.Seed
			cfg.Data.Scaler = entry.Scaler
			data, err := a.loadData(cfg)
			if err != nil {
				return err
			}
			run, err := experiment.NewRun(cfg, data, nil)
			if err != nil {
				return err
			}
			res, err := run.Evaluate(algo, m)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Model: %s (trained in run %s)\n", entry.Name, entry.RunID)
			res.Print(w)
			for i := 0; i < show && i < len(res.Predictions); i++ {
				fmt.Fprintf(w, "%d: predicted %.4g, actual %.4g\n", i, res.Predictions[i], run.Split.YTest[i])
			}
			a.logger.Info("model evaluated", log.ModelNameKey, entry.Name, log.AlgorithmKey, entry.Algorithm, log.RunIDKey, run.ID)

			if out != "" {
				return writePredictions(out, res.Predictions)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&a.data, "data", "", "CSV file, or .npy feature file together with --labels")
	f.StringVar(&a.labels, "labels", "", ".npy target file when --data is a .npy file")
	f.StringVar(&name, "model", "", "registry name of the model")
	f.StringVar(&out, "out", "", "write test predictions to this .npy file")
	f.IntVar(&show, "show", 0, "print the first N test predictions")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func writePredictions(path string, preds []float64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return dataset.WriteNPYVector(f, preds)
}

func (a *app) modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List stored models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			defer errors.Recover(&err, "models")
			store, err := a.openRegistry()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tALGORITHM\tCREATED\tMETRICS")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Name, e.Algorithm,
					e.CreatedAt.Format("2006-01-02 15:04:05"), formatMetrics(e.Metrics))
			}
			return tw.Flush()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer errors.Recover(&err, "models delete")
			store, err := a.openRegistry()
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted model %q\n", args[0])
			return nil
		},
	})
	return cmd
}

func formatMetrics(m map[string]float64) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%.4f", k, m[k])
	}
	return strings.Join(parts, " ")
}

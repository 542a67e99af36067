// Command stbaseline scores the baseline forecasters on the periodical
// samples of a dataset and writes the report as CSV and XLSX.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"stflow/internal/config"
	"stflow/internal/dataset"
	"stflow/internal/evaluation"
	"stflow/internal/exporter"
	"stflow/internal/infrastructure"
	"stflow/internal/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("stbaseline failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("stbaseline", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file (defaults to $STFLOW_CONFIG or config.yaml)")
	root := fs.String("root", "", "dataset directory, overrides dataset.root")
	reportDir := fs.String("report-dir", "", "report directory, overrides evaluation.report_dir")
	iterations := fs.Int("iterations", 0, "evaluation iterations, overrides evaluation.iterations")
	workers := fs.Int("workers", 0, "concurrent sample fetchers, overrides evaluation.workers")
	batchLog := fs.Bool("batch-log", false, "write per-batch test errors to a CSV log")
	date := fs.String("date", "", "date used in report file names (defaults to today)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *root != "" {
		cfg.Dataset.Root = *root
	}
	if *reportDir != "" {
		cfg.Evaluation.ReportDir = *reportDir
	}
	if *iterations > 0 {
		cfg.Evaluation.Iterations = *iterations
	}
	if *workers > 0 {
		cfg.Evaluation.Workers = *workers
	}
	if *batchLog {
		cfg.Evaluation.BatchLog = true
	}
	if *date == "" {
		*date = time.Now().Format("2006-01-02")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	if err := validation.NewFileValidator(logger).ValidateOutputDirectory(cfg.Evaluation.ReportDir); err != nil {
		return err
	}

	ds, err := dataset.Open(ctx, cfg.Dataset.Options(), dataset.WithLogger(logger))
	if err != nil {
		return err
	}
	// baselines read the closeness, period and trend windows
	ds.UsePeriodicalRepresentation()

	channels := ds.Store().Flow.Dim(1)
	runner, err := evaluation.NewRunner(ds, evaluation.Baselines(channels, ds.Windows()), cfg.Evaluation.Runner(), logger)
	if err != nil {
		return err
	}

	csvWriter := exporter.NewCSVWriter(cfg.Evaluation.ReportDir, logger)
	if cfg.Evaluation.BatchLog {
		sink, err := csvWriter.CreateStreamWriter(fmt.Sprintf("baseline_batches_%s.csv", *date), evaluation.BatchLogHeaders)
		if err != nil {
			return err
		}
		defer sink.Close()
		runner.SetBatchLog(sink)
	}

	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	base := fmt.Sprintf("baseline_report_%s", *date)
	if err := report.SaveCSV(csvWriter, base+".csv"); err != nil {
		return fmt.Errorf("save csv report: %w", err)
	}
	if err := report.SaveXLSX(exporter.NewXLSXWriter(cfg.Evaluation.ReportDir, logger), base+".xlsx"); err != nil {
		return fmt.Errorf("save xlsx report: %w", err)
	}

	logger.InfoContext(ctx, "baseline report saved",
		slog.String("run_id", report.RunID),
		slog.String("report_dir", cfg.Evaluation.ReportDir),
		slog.String("name", base))

	return printSummary(stdout, report)
}

// printSummary writes the normalized and the real-unit metrics of every predictor
func printSummary(w io.Writer, report *evaluation.Report) error {
	fmt.Fprintf(w, "run %s: %d samples (%d validation, %d test), min-max difference %.4f\n\n",
		report.RunID, report.Samples, report.ValidSamples, report.TestSamples, report.MinMaxDifference)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "predictor\tbest\tval loss\tmae\trmse\treal mae\treal rmse")
	for _, a := range report.Summary {
		fmt.Fprintf(tw, "%s\t%d/%d\t%.6f\t%.6f ± %.6f\t%.6f ± %.6f\t%.4f\t%.4f\n",
			a.Predictor, a.BestCount, a.Iterations, a.MeanValidationLoss,
			a.MeanMAE, a.StdMAE, a.MeanRMSE, a.StdRMSE, a.RealMAE, a.RealRMSE)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	best := report.Best()
	_, err := fmt.Fprintf(w, "\nbest: %s (real mae %.4f, real rmse %.4f)\n", best.Predictor, best.RealMAE, best.RealRMSE)
	return err
}

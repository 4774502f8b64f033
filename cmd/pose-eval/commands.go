package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/valeriodiste/shared-app/internal/config"
	"github.com/valeriodiste/shared-app/internal/db"
	"github.com/valeriodiste/shared-app/internal/evaluation"
	"github.com/valeriodiste/shared-app/internal/fsutil"
	"github.com/valeriodiste/shared-app/internal/pose"
	"github.com/valeriodiste/shared-app/internal/report"
	"github.com/valeriodiste/shared-app/internal/security"
)

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

// commonFlags are shared by the evaluation commands. Set flags override
// the config file.
type commonFlags struct {
	configPath string
	samplesDir string
	resultsDir string
	dbPath     string
	workers    int
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.configPath, "config", "", "evaluation config JSON file")
	fs.StringVar(&c.samplesDir, "samples", "", "samples directory (overrides config)")
	fs.StringVar(&c.resultsDir, "results", "", "results directory (overrides config)")
	fs.StringVar(&c.dbPath, "db", "", "archive runs into this SQLite database (overrides config)")
	fs.IntVar(&c.workers, "workers", -1, "concurrent sample evaluations, 0 for one per CPU (overrides config)")
	return c
}

func (c *commonFlags) load() (*config.EvaluationConfig, error) {
	cfg := config.EmptyEvaluationConfig()
	if c.configPath != "" {
		var err error
		if cfg, err = config.LoadEvaluationConfig(c.configPath); err != nil {
			return nil, err
		}
	}
	if c.samplesDir != "" {
		cfg.SamplesDir = &c.samplesDir
	}
	if c.resultsDir != "" {
		cfg.ResultsDir = &c.resultsDir
	}
	if c.dbPath != "" {
		cfg.DatabasePath = &c.dbPath
	}
	if c.workers >= 0 {
		cfg.Workers = &c.workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func handleErrors(args []string, stdout io.Writer) error {
	fs := newFlagSet("errors", stdout)
	common := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := common.load()
	if err != nil {
		return err
	}
	return computeErrors(cfg, stdout)
}

func computeErrors(cfg *config.EvaluationConfig, stdout io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &evaluation.Runner{
		FS:         fsutil.OSFileSystem{},
		SamplesDir: cfg.GetSamplesDir(),
		ResultsDir: cfg.GetResultsDir(),
		Camera:     cfg.GetCamera(),
		Thresholds: cfg.GetThresholds(),
		Options: evaluation.Options{
			Workers:          cfg.GetWorkers(),
			TranslationScale: cfg.GetTranslationUnitScale(),
		},
	}
	out, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	for _, p := range out.Written {
		fmt.Fprintf(stdout, "wrote %s\n", p)
	}
	if len(out.Failures) > 0 {
		fmt.Fprintf(stdout, "%d ground truth frame(s) could not be reconstructed\n", len(out.Failures))
	}

	path := cfg.GetDatabasePath()
	if path == "" {
		return nil
	}
	database, err := db.NewDB(path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer database.Close()

	run, err := db.NewRunStore(database, nil).Archive(out, runner.SamplesDir, runner.ResultsDir, runner.Camera, runner.Thresholds)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "archived run %s\n", run.RunID)
	return nil
}

func handleTables(args []string, stdout io.Writer) error {
	fs := newFlagSet("tables", stdout)
	common := addCommonFlags(fs)
	fpsRange := fs.Float64("fps-range", 0, "FPS histogram bucket width (overrides config)")
	textOut := fs.String("text-out", "", "also write the printed tables to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := common.load()
	if err != nil {
		return err
	}
	if *fpsRange < 0 {
		return fmt.Errorf("-fps-range must be positive, got %g", *fpsRange)
	}
	if *fpsRange > 0 {
		cfg.FPSRangeSize = fpsRange
	}
	return buildTables(cfg, *textOut, stdout)
}

func buildTables(cfg *config.EvaluationConfig, textOut string, stdout io.Writer) error {
	r, err := report.Generate(fsutil.OSFileSystem{}, cfg.GetResultsDir(), report.Options{FPSRangeSize: cfg.GetFPSRangeSize()})
	if err != nil {
		return err
	}
	if err := r.Print(stdout); err != nil {
		return err
	}
	for _, p := range r.Written {
		fmt.Fprintf(stdout, "wrote %s\n", p)
	}
	if textOut == "" {
		return nil
	}

	if err := security.ValidateExportPath(textOut); err != nil {
		return err
	}
	f, err := os.Create(textOut)
	if err != nil {
		return err
	}
	for _, t := range []report.Table{r.Detection, r.Tracking} {
		fmt.Fprintf(f, "%s:\n", t.Title)
		if err := report.WriteText(f, t); err != nil {
			f.Close()
			return err
		}
		fmt.Fprintln(f)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", textOut)
	return nil
}

func handleRun(args []string, stdout io.Writer) error {
	fs := newFlagSet("run", stdout)
	common := addCommonFlags(fs)
	textOut := fs.String("text-out", "", "also write the printed tables to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := common.load()
	if err != nil {
		return err
	}
	if err := computeErrors(cfg, stdout); err != nil {
		return err
	}
	return buildTables(cfg, *textOut, stdout)
}

func handlePose(args []string, stdout io.Writer) error {
	fs := newFlagSet("pose", stdout)
	configPath := fs.String("config", "", "evaluation config JSON file (camera settings)")
	corners := fs.String("corners", "", `four "x,y" corners separated by ";": top-left, top-right, bottom-left, bottom-right`)
	width := fs.Float64("width", 1, "marker width")
	height := fs.Float64("height", 1, "marker height")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.EmptyEvaluationConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadEvaluationConfig(*configPath); err != nil {
			return err
		}
	}
	pts, err := parseCorners(*corners)
	if err != nil {
		return err
	}
	p, err := cfg.GetCamera().Reconstruct(pts, pose.Size{Width: *width, Height: *height})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// parseCorners reads "x,y;x,y;..." into points. The count is checked by
// reconstruction.
func parseCorners(s string) (pose.Corners, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("-corners is required")
	}
	var out pose.Corners
	for _, part := range strings.Split(s, ";") {
		xy := strings.Split(strings.TrimSpace(part), ",")
		if len(xy) != 2 {
			return nil, fmt.Errorf("corner %q must be x,y", part)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xy[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("corner %q: %w", part, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(xy[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("corner %q: %w", part, err)
		}
		out = append(out, pose.Point{x, y})
	}
	return out, nil
}

func openArchive(fs *flag.FlagSet, configPath, dbPath string) (*db.DB, error) {
	path := dbPath
	if path == "" && configPath != "" {
		cfg, err := config.LoadEvaluationConfig(configPath)
		if err != nil {
			return nil, err
		}
		path = cfg.GetDatabasePath()
	}
	if path == "" {
		return nil, fmt.Errorf("%s: -db or a config with database_path is required", fs.Name())
	}
	return db.NewDB(path)
}

func handleRuns(args []string, stdout io.Writer) error {
	fs := newFlagSet("runs", stdout)
	configPath := fs.String("config", "", "evaluation config JSON file")
	dbPath := fs.String("db", "", "archive database (overrides config)")
	limit := fs.Int("limit", 20, "maximum runs to list, 0 for all")
	runID := fs.String("id", "", "summarise this run instead of listing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	database, err := openArchive(fs, *configPath, *dbPath)
	if err != nil {
		return err
	}
	defer database.Close()
	store := db.NewRunStore(database, nil)

	if *runID != "" {
		run, err := store.Get(*runID)
		if err != nil {
			return err
		}
		stats, err := store.AlgorithmSummary(run.RunID)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Run        *db.Run             `json:"run"`
			Algorithms []db.AlgorithmStats `json:"algorithms"`
		}{run, stats})
	}

	runs, err := store.List(*limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tSAMPLES\tFAILURES\tDURATION\tRESULTS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			r.RunID,
			time.Unix(0, r.CreatedAt).UTC().Format(time.RFC3339),
			r.SampleCount,
			r.FailureCount,
			time.Duration(r.DurationMs)*time.Millisecond,
			r.ResultsDir,
		)
	}
	return tw.Flush()
}

func handleExport(args []string, stdout io.Writer) error {
	fs := newFlagSet("export", stdout)
	configPath := fs.String("config", "", "evaluation config JSON file")
	dbPath := fs.String("db", "", "archive database (overrides config)")
	runID := fs.String("id", "", "run to export (required)")
	outDir := fs.String("out", "export", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return fmt.Errorf("-id is required")
	}
	if err := security.ValidateExportPath(*outDir); err != nil {
		return err
	}

	database, err := openArchive(fs, *configPath, *dbPath)
	if err != nil {
		return err
	}
	defer database.Close()
	store := db.NewRunStore(database, nil)

	stats, err := store.AlgorithmSummary(*runID)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		return fmt.Errorf("%w: %s has no frame errors", db.ErrRunNotFound, *runID)
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return err
	}
	for _, s := range stats {
		frames, err := store.FrameErrors(*runID, s.Kind, s.Algorithm)
		if err != nil {
			return err
		}
		name := fmt.Sprintf("%s_%s.csv", s.Kind, security.SanitizeFilename(s.Algorithm))
		path, err := security.JoinWithin(*outDir, name)
		if err != nil {
			return err
		}
		if err := writeFrameFile(path, frames); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %s\n", filepath.ToSlash(path))
	}
	return nil
}

func writeFrameFile(path string, frames []db.FrameRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := db.WriteFrameCSV(f, frames); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func handleMigrate(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := newFlagSet("migrate", stdout)
	configPath := fs.String("config", "", "evaluation config JSON file")
	dbPath := fs.String("db", "", "archive database (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := *dbPath
	if path == "" && *configPath != "" {
		cfg, err := config.LoadEvaluationConfig(*configPath)
		if err != nil {
			return err
		}
		path = cfg.GetDatabasePath()
	}
	if path == "" && fs.Arg(0) != "help" && fs.NArg() > 0 {
		return fmt.Errorf("-db or a config with database_path is required")
	}
	return db.RunMigrateCommand(fs.Args(), path, stdin, stdout)
}

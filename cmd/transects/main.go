// Command transects reconstructs geographic survey tracks from a decoded
// vehicle telemetry log and writes one CSV table per transect window.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/banshee-data/transects/internal/config"
	"github.com/banshee-data/transects/internal/db"
	"github.com/banshee-data/transects/internal/fsutil"
	"github.com/banshee-data/transects/internal/security"
	"github.com/banshee-data/transects/internal/survey"
	"github.com/banshee-data/transects/internal/survey/pipeline"
	"github.com/banshee-data/transects/internal/survey/storage/sqlite"
	"github.com/banshee-data/transects/internal/survey/transect"
	"github.com/banshee-data/transects/internal/telemetry"
	"github.com/banshee-data/transects/internal/timeutil"
	"github.com/banshee-data/transects/internal/version"
)

// windowList collects repeated -transect flags.
type windowList []string

func (w *windowList) String() string { return strings.Join(*w, ",") }

func (w *windowList) Set(v string) error {
	*w = append(*w, v)
	return nil
}

var (
	logPath     = flag.String("log", "", "Decoded telemetry log (mavlogdump JSON lines)")
	outDir      = flag.String("out", "transects", "Output directory for transect tables")
	site        = flag.String("site", "", "Site name used in output filenames (overrides config)")
	configPath  = flag.String("config", "", "Survey config file (.json, .yaml)")
	dbPath      = flag.String("db", "", "SQLite database to record the run in (optional)")
	plots       = flag.Bool("plots", false, "Write PNG plots and an HTML chart per transect")
	trace       = flag.Bool("trace", false, "Log per-sample reconstruction detail")
	showVersion = flag.Bool("version", false, "Print version and exit")
	windows     windowList
)

func init() {
	flag.Var(&windows, "transect", "Transect window HH:MM:SS-HH:MM:SS (repeatable; default whole day)")
}

// selectBounds prefers windows given on the command line over the config file.
func selectBounds(flagged []string, cfg *config.SurveyConfig) []transect.Bounds {
	if len(flagged) == 0 {
		return cfg.Transects
	}
	out := make([]transect.Bounds, 0, len(flagged))
	for _, s := range flagged {
		out = append(out, transect.ParseBounds(s))
	}
	return out
}

func loadConfig(path string) (*config.SurveyConfig, error) {
	if path == "" {
		return config.EmptySurveyConfig(), nil
	}
	return config.LoadSurveyConfig(path)
}

func configureLogging(stderr io.Writer, traceOn bool) {
	w := survey.LogWriters{Ops: stderr, Diag: stderr}
	if traceOn {
		w.Trace = stderr
	}
	survey.SetLogWriters(w)
}

// cliOptions is the parsed command line.
type cliOptions struct {
	LogPath    string
	OutDir     string
	Site       string
	ConfigPath string
	DBPath     string
	Plots      bool
	Trace      bool
	Windows    []string
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *logPath == "" {
		log.Fatal("-log is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, cliOptions{
		LogPath:    *logPath,
		OutDir:     *outDir,
		Site:       *site,
		ConfigPath: *configPath,
		DBPath:     *dbPath,
		Plots:      *plots,
		Trace:      *trace,
		Windows:    windows,
	}, os.Stderr)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}

// run performs one batch over o.LogPath. Errors are setup failures; per
// transect outcomes are only logged.
func run(ctx context.Context, o cliOptions, stderr io.Writer) error {
	configureLogging(stderr, o.Trace)
	logger := log.New(stderr, "", log.LstdFlags)

	cfg, err := loadConfig(o.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	siteName := cfg.GetSite()
	if o.Site != "" {
		siteName = o.Site
	}
	if siteName != "" && security.SanitizeFilename(siteName) != siteName {
		logger.Printf("site name %q sanitised to %q", siteName, security.SanitizeFilename(siteName))
	}

	aggCfg, err := cfg.AggregateConfig()
	if err != nil {
		return fmt.Errorf("failed to load timezone: %w", err)
	}

	fs := fsutil.OSFileSystem{}
	if err := fs.MkdirAll(o.OutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	obs, stats, err := telemetry.ReadFile(fs, o.LogPath)
	if err != nil {
		return fmt.Errorf("failed to read telemetry log: %w", err)
	}
	logger.Printf("read %s: %d lines, %d messages, %d ignored, %d malformed",
		o.LogPath, stats.Lines, stats.Decoded, stats.Ignored, stats.Malformed)

	opts := pipeline.Options{
		Aggregate:      aggCfg,
		Reconstruct:    cfg.ReconstructConfig(),
		DepthThreshold: cfg.GetAuxDepthThresholdM(),
		FS:             fs,
		OutDir:         o.OutDir,
		Site:           siteName,
		Plots:          o.Plots,
	}

	if o.DBPath != "" {
		database, err := db.NewDB(o.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		effective, err := json.Marshal(cfg.Effective())
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		opts.Store = sqlite.NewStore(database.DB, timeutil.RealClock{})
		opts.Run = sqlite.Run{
			LogPath:    o.LogPath,
			Version:    version.Version,
			GitSHA:     version.GitSHA,
			ConfigJSON: effective,
		}
	}

	res, err := pipeline.Run(ctx, obs, selectBounds(o.Windows, cfg), opts)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	for _, t := range res.Transects {
		switch t.Status {
		case pipeline.StatusOK, pipeline.StatusUnseeded:
			logger.Printf("%s: %s, %d rows -> %s", t.Window, t.Status, t.Summary.Rows, t.Path)
		default:
			logger.Printf("%s: %s: %v", t.Window, t.Status, t.Err)
		}
	}
	logger.Printf("%d of %d transects written to %s", res.Written(), len(res.Transects), o.OutDir)
	return nil
}

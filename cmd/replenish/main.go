package main

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/storelab/replenish/internal/cache"
	"github.com/storelab/replenish/internal/collector"
	"github.com/storelab/replenish/internal/config"
	"github.com/storelab/replenish/internal/engine"
	"github.com/storelab/replenish/internal/repository/postgres"
	"github.com/storelab/replenish/internal/service"
	"github.com/storelab/replenish/internal/storage"
)

const dateLayout = "2006-01-02"

func newDateFlag(name, usage string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  name,
		Usage: usage + " (YYYY-MM-DD)",
	}
}

// dateOrDefault parses the named flag, falling back to def when unset.
func dateOrDefault(c *cli.Context, name string, def time.Time) (time.Time, error) {
	raw := c.String(name)
	if raw == "" {
		return def, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s value %q: %w", name, raw, err)
	}
	return parsed, nil
}

// deps bundles everything a command needs against one database connection.
type deps struct {
	db          *postgres.DB
	forecast    *service.ForecastService
	calibration *service.CalibrationService
	report      *service.ReportService
	ingest      *collector.IngestService
}

func buildDeps(cfg *config.Config) (*deps, error) {
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	salesRepo := postgres.NewSalesRepository(db)
	itemRepo := postgres.NewItemRepository(db)
	promotionRepo := postgres.NewPromotionRepository(db)
	predictionRepo := postgres.NewPredictionRepository(db)
	outcomeRepo := postgres.NewOutcomeRepository(db)
	calibrationRepo := postgres.NewCalibrationRepository(db)

	snapshots, err := cache.NewSnapshotCache(cfg.Cache)
	if err != nil {
		log.Printf("warning: snapshot cache unavailable: %v", err)
		snapshots = cache.NewNoopSnapshotCache()
	}

	var archive storage.ObjectStorage
	if cfg.Storage.Enabled {
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			log.Printf("warning: order sheet archive unavailable: %v", err)
		} else {
			archive = client
		}
	}

	params := engine.DefaultParams()
	params.SimplifiedPending = cfg.Engine.SimplifiedPending

	return &deps{
		db: db,
		forecast: service.NewForecastService(
			itemRepo, salesRepo, promotionRepo, predictionRepo, calibrationRepo,
			snapshots, archive, params, cfg.Engine.Workers,
		),
		calibration: service.NewCalibrationService(
			itemRepo, salesRepo, predictionRepo, outcomeRepo, calibrationRepo, params,
		),
		report: service.NewReportService(predictionRepo, outcomeRepo, calibrationRepo),
		ingest: collector.NewIngestService(nil, salesRepo, itemRepo, promotionRepo, snapshots),
	}, nil
}

func runForecast(c *cli.Context) error {
	target, err := dateOrDefault(c, "date", time.Now().Truncate(24*time.Hour))
	if err != nil {
		return err
	}

	d, err := buildDeps(config.Load())
	if err != nil {
		return err
	}
	defer d.db.Close()

	result, err := d.forecast.RunForecast(c.Context, target)
	if err != nil {
		return fmt.Errorf("forecast run failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result.Summary)
}

func runCalibration(c *cli.Context) error {
	evalDate, err := dateOrDefault(c, "date", time.Now().AddDate(0, 0, -1).Truncate(24*time.Hour))
	if err != nil {
		return err
	}

	d, err := buildDeps(config.Load())
	if err != nil {
		return err
	}
	defer d.db.Close()

	result, err := d.calibration.RunCalibration(c.Context, evalDate)
	if err != nil {
		return fmt.Errorf("calibration run failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runIngest(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one CSV file path is required")
	}

	d, err := buildDeps(config.Load())
	if err != nil {
		return err
	}
	defer d.db.Close()

	for _, path := range c.Args().Slice() {
		if err := d.ingest.IngestLocalFile(c.Context, path); err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}
		log.Printf("ingested %s", path)
	}
	return nil
}

func runExport(c *cli.Context) error {
	runDate, err := dateOrDefault(c, "date", time.Time{})
	if err != nil {
		return err
	}

	if c.Bool("from-archive") {
		return exportFromArchive(c, runDate)
	}

	d, err := buildDeps(config.Load())
	if err != nil {
		return err
	}
	defer d.db.Close()

	if runDate.IsZero() {
		run, err := d.report.Run(c.Context, time.Time{})
		if err != nil {
			return err
		}
		runDate = run.RunDate
	}

	lines, err := d.report.OrderList(c.Context, runDate)
	if err != nil {
		return err
	}

	out := os.Stdout
	if path := c.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	if err := w.Write([]string{"item_id", "quantity", "decision"}); err != nil {
		return err
	}
	for _, line := range lines {
		if err := w.Write([]string{line.ItemID, strconv.Itoa(line.Quantity), string(line.Decision)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// exportFromArchive fetches an archived order sheet from object storage
// instead of rebuilding it from the prediction log. With no --date it takes
// the newest sheet under the archive prefix.
func exportFromArchive(c *cli.Context, runDate time.Time) error {
	outPath := c.String("out")
	if outPath == "" {
		return fmt.Errorf("--out is required with --from-archive")
	}

	cfg := config.Load()
	archive, err := storage.NewMinioClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("order sheet archive unavailable: %w", err)
	}

	const prefix = "order-sheets/"
	key := fmt.Sprintf("%s%s.csv", prefix, runDate.Format(dateLayout))
	if runDate.IsZero() {
		objects, err := archive.ListObjects(c.Context, prefix)
		if err != nil {
			return fmt.Errorf("failed to list archived order sheets: %w", err)
		}
		key = storage.LatestKey(objects)
		if key == "" {
			return fmt.Errorf("no archived order sheets found")
		}
	}

	if err := archive.DownloadObject(c.Context, key, outPath); err != nil {
		return fmt.Errorf("failed to download %s: %w", key, err)
	}
	log.Printf("downloaded %s to %s", key, outPath)
	return nil
}

func runMigrate(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(c.Context); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	schema, err := os.ReadFile(c.String("schema"))
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	if _, err := db.ExecContext(c.Context, string(schema)); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	log.Printf("schema applied from %s", c.String("schema"))
	return nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "replenish",
		Usage: "Run forecasting, calibration, and data maintenance from the command line",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the daily forecast batch",
				Flags:  []cli.Flag{newDateFlag("date", "Target order date, defaults to today")},
				Action: runForecast,
			},
			{
				Name:   "calibrate",
				Usage:  "Grade yesterday's decisions and adjust parameters",
				Flags:  []cli.Flag{newDateFlag("date", "Evaluation date, defaults to yesterday")},
				Action: runCalibration,
			},
			{
				Name:      "ingest",
				Usage:     "Ingest local CSV exports (sales, items, promotions)",
				ArgsUsage: "FILE [FILE...]",
				Action:    runIngest,
			},
			{
				Name:  "export",
				Usage: "Export a run's order list as CSV",
				Flags: []cli.Flag{
					newDateFlag("date", "Run date, defaults to the latest run"),
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output file path, defaults to stdout",
					},
					&cli.BoolFlag{
						Name:  "from-archive",
						Usage: "Fetch the archived sheet from object storage instead of the database (requires --out)",
					},
				},
				Action: runExport,
			},
			{
				Name:  "migrate",
				Usage: "Apply the database schema",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db-url",
						Usage:    "Database connection string",
						Required: true,
						EnvVars:  []string{"DATABASE_URL"},
					},
					&cli.StringFlag{
						Name:    "schema",
						Usage:   "Path to the schema SQL file",
						Value:   "./migrations/schema.sql",
						EnvVars: []string{"SCHEMA_FILE"},
					},
				},
				Action: runMigrate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

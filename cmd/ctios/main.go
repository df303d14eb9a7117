package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ctios/internal/config"
	"ctios/internal/enrich"
	"ctios/internal/gateway"
	"ctios/internal/mapping"
	"ctios/internal/request"
	"ctios/internal/response"
	"ctios/internal/store"
	"ctios/internal/template"
	"ctios/internal/translate"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Enrich flags
	username string
	password string
	dbPath   string
	sqlQuery string

	// Resolved per invocation by the pre-run hook
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ctios",
	Short: "ctios - CTI OS posident enrichment for VFK databases",
	Long: `ctios enriches the OPSUB table of a local VFK SQLite database with
subject attributes downloaded from the CTI OS registry service.

Posidents already present in the database are submitted in batches; each
response record is classified, its attribute names translated to database
columns, and the result written back transactionally. A run reports how
many posidents resolved successfully and how many failed for each of the
known reasons (invalid identifier, expired identifier, subject not found).`,
}

// enrichCmd runs the full enrichment pipeline
var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Download subject attributes and write them into the database",
	Long: `Runs the enrichment pipeline end to end:
  1. Read the deduplicated posident set from the OPSUB table
  2. Partition it into service-sized batches
  3. Per batch: build the request, call the service, classify the response
  4. Translate attribute names to database columns and persist in one
     transaction per batch

The first failing stage aborts the run; per-posident service rejections are
counted and logged but do not stop processing.`,
	PersistentPreRunE: initRun,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runEnrich,
}

// initRun loads the configuration once and builds the run logger from it.
func initRun(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Logging.Format == "text" {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else if lvl, err := zapcore.ParseLevel(cfg.Logging.Level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	// One log file per run when a log directory is configured
	if cfg.Paths.LogDir != "" {
		if err := os.MkdirAll(cfg.Paths.LogDir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		name := time.Now().Format("15_04_05_02_01_2006") + ".log"
		zcfg.OutputPaths = append(zcfg.OutputPaths, filepath.Join(cfg.Paths.LogDir, name))
	}

	logger, err = zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// runEnrich wires the pipeline from config and flags and executes it.
func runEnrich(cmd *cobra.Command, args []string) error {
	if v := os.Getenv("CTIOS_USERNAME"); username == "" && v != "" {
		username = v
	}
	if v := os.Getenv("CTIOS_PASSWORD"); password == "" && v != "" {
		password = v
	}
	if v := os.Getenv("CTIOS_DB"); dbPath == "" && v != "" {
		dbPath = v
	}
	if username == "" || password == "" {
		return fmt.Errorf("service credentials required (--user/--password or CTIOS_USERNAME/CTIOS_PASSWORD)")
	}
	if dbPath == "" {
		return fmt.Errorf("database path required (--db or CTIOS_DB)")
	}

	overrides, err := mapping.Load(cfg.Paths.CSVDir, cfg.Paths.AttributeMapFile)
	if err != nil {
		return err
	}

	builder := request.NewBuilder(
		template.NewRenderer(cfg.Paths.TemplatesDir),
		request.Credentials{Username: username, Password: password},
	)
	gw := gateway.New(cfg.Service.Endpoint, cfg.Service.Headers(), cfg.Service.GetTimeout(), logger)

	pipeline := &enrich.Pipeline{
		MaxBatchSize: cfg.Service.MaxBatchSize,
		Builder:      builder,
		Gateway:      gw,
		Classifier:   response.NewClassifier(logger),
		Translator:   translate.NewTranslator(overrides),
		OpenStore: func() (*store.Store, error) {
			return store.Open(dbPath, logger)
		},
		Log: logger,
	}

	summary, err := pipeline.Run(cmd.Context(), sqlQuery)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s complete: %d posidents in %d batches\n",
		summary.RunID, summary.TotalIdentifiers, summary.Batches)
	fmt.Printf("  succeeded:          %d\n", summary.Counters.Succeeded)
	fmt.Printf("  invalid identifier: %d\n", summary.Counters.InvalidIdentifier)
	fmt.Printf("  expired identifier: %d\n", summary.Counters.ExpiredIdentifier)
	fmt.Printf("  subject not found:  %d\n", summary.Counters.SubjectNotFound)
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "ctios.yaml", "path to configuration file")

	enrichCmd.Flags().StringVar(&username, "user", "", "CTI OS service username")
	enrichCmd.Flags().StringVar(&password, "password", "", "CTI OS service password")
	enrichCmd.Flags().StringVar(&dbPath, "db", "", "path to the VFK SQLite database")
	enrichCmd.Flags().StringVar(&sqlQuery, "sql", "", "optional SQL select narrowing the posident set")

	rootCmd.AddCommand(enrichCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

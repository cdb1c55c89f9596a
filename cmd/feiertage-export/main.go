package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/username/feiertage-export/internal/config"
	"github.com/username/feiertage-export/internal/export"
	"github.com/username/feiertage-export/internal/holiday"
	"github.com/username/feiertage-export/internal/report"
	"github.com/username/feiertage-export/internal/timeline"
	"github.com/username/feiertage-export/pkg/dateutil"
)

var (
	configPath string
	logger     *zap.Logger
)

func main() {
	rootCmd := exportCmd()
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		// Load config to get log file path
		cfg, err := config.Load(configPath)
		if err == nil && cfg.Log.File != "" {
			logger, err = initFileLogger(cfg.Log.File, cfg.Log.Level)
			if err != nil {
				initLogger() // Fallback to console
			}
		} else {
			initLogger() // Default console logger
		}
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Config file path")

	rootCmd.AddCommand(statesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func exportCmd() *cobra.Command {
	var (
		timeAgg         string
		geoAgg          string
		countSundays    string
		specialHolidays string
		openSaleDays    string
	)

	cmd := &cobra.Command{
		Use:   "feiertage-export <start_date> <end_date>",
		Short: "German public holiday CSV export",
		Long: "Compute German public holiday occurrences over a date range and write them " +
			"to a CSV file, aggregated per day or ISO week and per state or nationwide, " +
			"optionally counting Sundays and special observances",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := dateutil.ParseDate(args[0])
			if err != nil {
				return fmt.Errorf("start_date: %w", err)
			}
			end, err := dateutil.ParseDate(args[1])
			if err != nil {
				return fmt.Errorf("end_date: %w", err)
			}

			opts := report.Options{
				TimeAgg: report.TimeAgg(timeAgg),
				GeoAgg:  report.GeoAgg(geoAgg),
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			if opts.CountSundays, err = parseBoolFlag("count_sundays", countSundays); err != nil {
				return err
			}
			if opts.SpecialHolidays, err = parseBoolFlag("special_holidays", specialHolidays); err != nil {
				return err
			}
			if opts.OpenSaleDays, err = parseBoolFlag("open_sale_days", openSaleDays); err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			return runExport(start, end, opts, cfg)
		},
	}

	cmd.Flags().StringVar(&timeAgg, "time_agg", "day", "Time granularity: day or week")
	cmd.Flags().StringVar(&geoAgg, "geo_agg", "state", "Geo granularity: state or de")
	cmd.Flags().StringVar(&countSundays, "count_sundays", "False", "Count Sundays as holidays: True or False")
	cmd.Flags().StringVar(&specialHolidays, "special_holidays", "False", "Include special observances: True or False")
	cmd.Flags().StringVar(&openSaleDays, "open_sale_days", "False", "Add an open-sale-days column: True or False")

	return cmd
}

func runExport(start, end time.Time, opts report.Options, cfg *config.Config) error {
	logger.Info("Starting export",
		zap.Time("start", start),
		zap.Time("end", end),
		zap.String("time_agg", string(opts.TimeAgg)),
		zap.String("geo_agg", string(opts.GeoAgg)),
		zap.Bool("count_sundays", opts.CountSundays),
		zap.Bool("special_holidays", opts.SpecialHolidays))

	axis, err := timeline.BuildAxis(start, end)
	if err != nil {
		return err
	}

	src, err := buildSource(opts.SpecialHolidays, cfg)
	if err != nil {
		return err
	}

	lookup, err := report.BuildLookup(src, axis[0].Year, axis[len(axis)-1].Year)
	if err != nil {
		return err
	}

	table, err := report.Aggregate(axis, lookup, cfg.Weights(), opts)
	if err != nil {
		return err
	}

	path, err := export.WriteCSV(cfg.Output.Dir, start, end, table, logger)
	if err != nil {
		return err
	}

	fmt.Println(path)
	return nil
}

// buildSource assembles the holiday source: the built-in ruleset, with an
// extra file overlaid when configured
func buildSource(includeSpecial bool, cfg *config.Config) (holiday.Source, error) {
	var src holiday.Source = holiday.NewRulesetSource(includeSpecial)

	if cfg.Calendar.ExtraFile != "" {
		logger.Info("Using extra holiday file", zap.String("file", cfg.Calendar.ExtraFile))
		composite := holiday.NewCompositeSource(src, holiday.NewFileSource(cfg.Calendar.ExtraFile, logger), logger)
		if err := composite.LoadExtra(); err != nil {
			return nil, err
		}
		src = composite
	}

	return src, nil
}

func statesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "states",
		Short: "List the known state codes and their population shares",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			weights := cfg.Weights()
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tSTATE\tPOPULATION SHARE")
			for _, code := range holiday.States() {
				fmt.Fprintf(w, "%s\t%s\t%.4f\n", code, holiday.Name(code), weights[code])
			}
			return w.Flush()
		},
	}
}

func parseBoolFlag(name, value string) (bool, error) {
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be True or False, got %q", name, value)
	}
	return parsed, nil
}

func initLogger() {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

func initFileLogger(logFile string, level string) (*zap.Logger, error) {
	// Setup lumberjack for log rotation
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100,  // MB
		MaxBackups: 3,    // Keep max 3 old log files
		MaxAge:     28,   // days
		Compress:   true, // Compress old logs with gzip
	}

	// Setup encoder
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Parse log level
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	// Create core with lumberjack writer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		zapLevel,
	)

	return zap.New(core), nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Sternrassler/course-explorer/pkg/aggregator"
	"github.com/Sternrassler/course-explorer/pkg/client"
	"github.com/Sternrassler/course-explorer/pkg/config"
	"github.com/Sternrassler/course-explorer/pkg/export"
	"github.com/Sternrassler/course-explorer/pkg/filter"
	"github.com/Sternrassler/course-explorer/pkg/logging"
	"github.com/Sternrassler/course-explorer/pkg/view"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// options are the per-invocation settings from the command line.
type options struct {
	pages    int
	search   string
	english  bool
	degree   string
	export   string
	password string
	serve    string
	limit    int
	logLevel string
	pretty   bool
}

func parseFlags(args []string, cfg config.Config, stderr io.Writer) (options, error) {
	var opts options

	fs := pflag.NewFlagSet("course-explorer", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&opts.pages, "pages", cfg.Pages, "number of catalog pages to fetch")
	fs.StringVarP(&opts.search, "search", "q", "", "case-insensitive text to look for in course names")
	fs.BoolVar(&opts.english, "english", false, "only show courses taught in English")
	fs.StringVar(&opts.degree, "degree", "", degreeUsage())
	fs.StringVar(&opts.export, "export", "", "write the displayed courses to this CSV file")
	fs.StringVar(&opts.password, "password", "", "export password")
	fs.StringVar(&opts.serve, "serve", "", "serve status and courses over HTTP on this address while fetching")
	fs.Lookup("serve").NoOptDefVal = cfg.ListenAddr
	fs.IntVar(&opts.limit, "limit", 0, "print at most this many rows (0 = all)")
	logCfg := cfg.Logging()
	fs.StringVar(&opts.logLevel, "log-level", string(logCfg.Level), "log level (debug, info, warn, error, off)")
	fs.BoolVar(&opts.pretty, "pretty", logCfg.Pretty, "human-readable logs")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.pages < 0 {
		return options{}, fmt.Errorf("--pages must not be negative (got %d)", opts.pages)
	}
	if opts.limit < 0 {
		return options{}, fmt.Errorf("--limit must not be negative (got %d)", opts.limit)
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "configuration: %v\n", err)
		return exitUsage
	}

	opts, err := parseFlags(args, cfg, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "course-explorer: %v\n", err)
		return exitUsage
	}

	level, err := logging.ParseLevel(opts.logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "course-explorer: %v\n", err)
		return exitUsage
	}
	logCfg := cfg.Logging()
	logCfg.Level = level
	logCfg.Pretty = opts.pretty
	logCfg.Output = stderr
	logging.Setup(logCfg)
	logger := logging.NewLogger(logging.ComponentCLI)

	rdb := connectRedis(ctx, cfg, logger)
	if rdb != nil {
		defer rdb.Close()
	}

	catalogClient, err := client.New(cfg.Client(rdb))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create catalog client")
		return exitFailure
	}
	defer catalogClient.Close()

	agg := aggregator.New(catalogClient, opts.pages)
	v := view.New(agg)
	v.SetText(opts.search)
	v.SetEnglishOnly(opts.english)
	v.SetDegree(filter.ParseDegree(opts.degree))

	if opts.serve != "" {
		return serve(ctx, opts.serve, agg, v, logger)
	}

	code := exitOK
	if err := agg.Run(ctx); err != nil {
		logger.Warn().Err(err).Msg("Aggregation interrupted - printing partial results")
		code = exitFailure
	}

	status := v.Status()
	if status.Blocking() {
		fmt.Fprintln(stderr, status.Message)
		return exitFailure
	}

	courses := v.Filtered()
	if err := printTable(stdout, courses, opts.limit); err != nil {
		logger.Error().Err(err).Msg("Failed to print courses")
		return exitFailure
	}
	fmt.Fprintln(stdout, status.Message)

	if opts.export != "" {
		if err := export.New(cfg.ExportPassword).WriteFile(opts.export, courses, opts.password); err != nil {
			fmt.Fprintf(stderr, "export: %v\n", err)
			return exitFailure
		}
		fmt.Fprintf(stdout, "Exported %d courses to %s\n", len(courses), opts.export)
	}
	return code
}

func degreeUsage() string {
	known := make([]string, len(filter.KnownDegrees))
	for i, d := range filter.KnownDegrees {
		known[i] = fmt.Sprintf("%q", d)
	}
	return fmt.Sprintf("degree type (%s, an alias such as \"triennale\" or \"magistrale\", or an exact description)",
		strings.Join(known, ", "))
}

// connectRedis returns a connected client, or nil when Redis is not
// configured or unreachable. The explorer works without a cache.
func connectRedis(ctx context.Context, cfg config.Config, logger zerolog.Logger) *redis.Client {
	ropts, err := cfg.RedisOptions()
	if err != nil {
		logger.Warn().Err(err).Msg("Ignoring invalid REDIS_URL")
		return nil
	}
	if ropts == nil {
		return nil
	}

	rdb := redis.NewClient(ropts)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", ropts.Addr).Msg("Redis unavailable - running without cache")
		rdb.Close()
		return nil
	}

	logger.Info().Str("addr", ropts.Addr).Dur("ttl", cfg.CacheTTL).Msg("Connected to Redis")
	return rdb
}

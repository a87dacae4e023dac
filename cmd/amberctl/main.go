package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	bookingdomain "github.com/smallbiznis/amber/internal/booking/domain"
	"github.com/smallbiznis/amber/internal/budget"
	budgetdomain "github.com/smallbiznis/amber/internal/budget/domain"
	"github.com/smallbiznis/amber/internal/cache"
	"github.com/smallbiznis/amber/internal/clock"
	"github.com/smallbiznis/amber/internal/config"
	"github.com/smallbiznis/amber/internal/ingest"
	ingestdomain "github.com/smallbiznis/amber/internal/ingest/domain"
	"github.com/smallbiznis/amber/internal/ledger"
	"github.com/smallbiznis/amber/internal/logger"
	"github.com/smallbiznis/amber/internal/migration"
	"github.com/smallbiznis/amber/internal/observability/metrics"
	"github.com/smallbiznis/amber/internal/reconcile"
	"github.com/smallbiznis/amber/internal/report"
	reportdomain "github.com/smallbiznis/amber/internal/report/domain"
	"github.com/smallbiznis/amber/pkg/db"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const usage = `usage: amberctl [--log-level LEVEL] <command> [flags] [args]

commands:
  ingest [--status booked|cancelled] [--class detail|otb_month|otb_total] [--format NAME] FILE...
  report [--as-of YYYY-MM-DD]
  pickup [--from YYYY-MM-DD] [--to YYYY-MM-DD]
  snapshots
  budget list
  budget set MONTH=AMOUNT...
`

type services struct {
	fx.In

	Ingest ingestdomain.Service
	Report reportdomain.Service
	Budget budgetdomain.Service
	Config config.Config
	Clock  clock.Clock
	Log    *zap.Logger
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "amberctl:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	global := pflag.NewFlagSet("amberctl", pflag.ContinueOnError)
	global.SetInterspersed(false)
	logLevel := global.String("log-level", "warn", "minimum log level")
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var svc services
	app := fx.New(
		fx.NopLogger,
		fx.Supply(logger.Level(*logLevel)),
		logger.Module,
		config.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		cache.Module,
		ledger.Module,
		budget.Module,
		ingest.Module,
		report.Module,
		fx.Populate(&svc),
	)
	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	defer pushMetrics(svc)

	command, rest := global.Arg(0), global.Args()[1:]
	switch command {
	case "ingest":
		return runIngest(ctx, svc, rest, stdout)
	case "report":
		return runReport(ctx, svc, rest, stdout)
	case "pickup":
		return runPickup(ctx, svc, rest, stdout)
	case "snapshots":
		dates, err := svc.Report.Snapshots(ctx)
		if err != nil {
			return err
		}
		return printJSON(stdout, dates)
	case "budget":
		return runBudget(ctx, svc, rest, stdout)
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// pushMetrics ships the pipeline counters of this run when a push target is
// configured.
func pushMetrics(svc services) {
	telemetry := svc.Config.Telemetry
	pusher := metrics.NewPusher(metrics.PushConfig{
		Exporter:    telemetry.MetricsPushExporter,
		Endpoint:    telemetry.MetricsPushEndpoint,
		AuthToken:   telemetry.MetricsPushToken,
		Job:         "amberctl",
		Environment: svc.Config.Environment,
	}, svc.Log)
	if pusher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pusher.Push(ctx, prometheus.DefaultGatherer); err != nil {
		svc.Log.Warn("metrics push failed", zap.Error(err))
	}
}

func runIngest(ctx context.Context, svc services, args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("ingest", pflag.ContinueOnError)
	statusFlag := flags.String("status", "", "booked or cancelled; inferred from the filename when empty")
	classFlag := flags.String("class", "", "detail, otb_month or otb_total; inferred from the file when empty")
	format := flags.String("format", "", "OTB trailing-block format")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		return errors.New("ingest: at least one file is required")
	}

	var status bookingdomain.Status
	if *statusFlag != "" {
		parsed, ok := bookingdomain.ParseStatus(*statusFlag)
		if !ok {
			return fmt.Errorf("%w: %q", bookingdomain.ErrInvalidStatus, *statusFlag)
		}
		status = parsed
	}
	var class bookingdomain.RecordClass
	if *classFlag != "" {
		parsed, ok := bookingdomain.ParseRecordClass(*classFlag)
		if !ok {
			return fmt.Errorf("%w: %q", bookingdomain.ErrInvalidRecordClass, *classFlag)
		}
		class = parsed
	}

	reports := make([]ingestdomain.Report, 0, flags.NArg())
	for _, path := range flags.Args() {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		report, err := svc.Ingest.Ingest(ctx, ingestdomain.Upload{
			Filename: filepath.Base(path),
			Content:  content,
			Status:   status,
			Class:    class,
			Format:   *format,
		})
		if err != nil {
			var missing *bookingdomain.MissingRequiredFieldError
			if errors.As(err, &missing) {
				return fmt.Errorf("%s: %w (columns offered: %s)", path, err, strings.Join(missing.OfferedLabels, ", "))
			}
			return fmt.Errorf("%s: %w", path, err)
		}
		reports = append(reports, report)
	}
	return printJSON(stdout, reports)
}

func runReport(ctx context.Context, svc services, args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("report", pflag.ContinueOnError)
	asOfFlag := flags.String("as-of", "", "latest snapshot date to include")
	if err := flags.Parse(args); err != nil {
		return err
	}

	asOf, err := parseDate(svc.Config, *asOfFlag)
	if err != nil {
		return fmt.Errorf("--as-of: %w", err)
	}
	result, err := svc.Report.Reconcile(ctx, reconcile.Scope{AsOf: asOf})
	if err != nil {
		return err
	}
	return printJSON(stdout, result)
}

func runPickup(ctx context.Context, svc services, args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("pickup", pflag.ContinueOnError)
	fromFlag := flags.String("from", "", "earlier snapshot date (default: the day before --to)")
	toFlag := flags.String("to", "", "later snapshot date (default: today)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	to, err := parseDate(svc.Config, *toFlag)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	if to == nil {
		today := clock.Today(svc.Clock)
		to = &today
	}
	from, err := parseDate(svc.Config, *fromFlag)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	if from == nil {
		previous := to.AddDate(0, 0, -1)
		from = &previous
	}

	pickup, err := svc.Report.Pickup(ctx, *from, *to)
	if err != nil {
		return err
	}
	return printJSON(stdout, pickup)
}

func runBudget(ctx context.Context, svc services, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New("budget: expected list or set")
	}
	switch args[0] {
	case "list":
		targets, err := svc.Budget.List(ctx)
		if err != nil {
			return err
		}
		return printJSON(stdout, targets)
	case "set":
		targets, err := parseTargets(args[1:])
		if err != nil {
			return err
		}
		saved, err := svc.Budget.Upsert(ctx, targets)
		if err != nil {
			return err
		}
		return printJSON(stdout, saved)
	default:
		return fmt.Errorf("budget: unknown subcommand %q", args[0])
	}
}

// parseTargets reads MONTH=AMOUNT pairs.
func parseTargets(args []string) ([]budgetdomain.Target, error) {
	if len(args) == 0 {
		return nil, errors.New("budget set: at least one MONTH=AMOUNT is required")
	}
	targets := make([]budgetdomain.Target, 0, len(args))
	for _, arg := range args {
		month, amount, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("budget set: %q is not MONTH=AMOUNT", arg)
		}
		value, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(amount), ",", ""))
		if err != nil {
			return nil, fmt.Errorf("budget set: %q: %w", arg, budgetdomain.ErrInvalidTarget)
		}
		targets = append(targets, budgetdomain.Target{Month: strings.TrimSpace(month), Amount: value})
	}
	sort.SliceStable(targets, func(i, j int) bool { return targets[i].Month < targets[j].Month })
	return targets, nil
}

func parseDate(cfg config.Config, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(bookingdomain.DateLayout, raw, cfg.Location())
	if err != nil {
		return nil, err
	}
	date := bookingdomain.DateOf(parsed)
	return &date, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", cfg.NodeID, err)
	}
	return node, nil
}

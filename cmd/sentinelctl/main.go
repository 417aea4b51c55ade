// Command sentinelctl is the operator console for SentinelSpace: add and
// list tracked assets, submit screening runs, inspect conjunctions, compute
// avoidance maneuvers, and manage alerts — all against the event store at
// -db.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/sentinelspace/platform/internal/config"
	"github.com/sentinelspace/platform/internal/maneuver"
	"github.com/sentinelspace/platform/internal/screener"
	"github.com/sentinelspace/platform/internal/telemetry/logging"
	"github.com/sentinelspace/platform/internal/telemetry/metrics"
	"github.com/sentinelspace/platform/pkg/models"
	"github.com/sentinelspace/platform/sentinel"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	if cmd == "-version" || cmd == "--version" || cmd == "version" {
		fmt.Println("sentinelctl - SentinelSpace conjunction assessment console")
		return
	}

	switch cmd {
	case "add-asset":
		runAddAsset(args)
	case "list-assets":
		runListAssets(args)
	case "update-asset":
		runUpdateAsset(args)
	case "delete-asset":
		runDeleteAsset(args)
	case "load-catalog":
		runLoadCatalog(args)
	case "screen":
		runScreen(args)
	case "status":
		runStatus(args)
	case "conjunctions":
		runConjunctions(args)
	case "conjunction":
		runConjunctionDetail(args)
	case "montecarlo":
		runMonteCarlo(args)
	case "maneuvers":
		runManeuvers(args)
	case "alerts":
		runAlerts(args)
	case "ack-alert":
		runAckAlert(args)
	case "configure-alerts":
		runConfigureAlerts(args)
	case "snapshot":
		runSnapshot(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `sentinelctl <command> [flags]

Commands:
  add-asset         register a protected asset from a two-line TLE
  list-assets       list tracked assets
  update-asset      update a tracked asset's physical properties
  delete-asset      remove a tracked asset and its history
  load-catalog      load a TLE catalog file into memory for screening
  screen            submit a screening run for an asset
  status            report a screening job's status
  conjunctions      list conjunctions for an asset
  conjunction       show one conjunction's detail
  montecarlo        cross-check a conjunction's Pc via sampling
  maneuvers         compute avoidance maneuver options for a conjunction
  alerts            list alerts
  ack-alert         acknowledge an alert
  configure-alerts  set alert thresholds
  snapshot          print a platform state snapshot
  version           print version info`)
}

// openPlatform builds a Platform from the shared -db, -config, and
// -enable-metrics flags common to every subcommand. When -config points at
// a layered configuration file, its database path and supervisor defaults
// take precedence over -db.
func openPlatform(dbPath, configPath string, enableMetrics bool) (*sentinel.Platform, error) {
	cfg := sentinel.Config{DatabasePath: dbPath}
	if configPath != "" {
		mgr, err := config.NewManager(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = sentinel.FromFileConfig(mgr.Current())
	}
	if enableMetrics {
		cfg.Metrics = metrics.NewPrometheusProvider(metrics.PrometheusProviderOptions{})
	}
	cfg.Logger = logging.New(slog.Default())
	return sentinel.New(cfg)
}

func commonFlags(fs *flag.FlagSet) (db *string, cfgPath *string, enableMetrics *bool) {
	db = fs.String("db", "sentinelspace.db", "Path to the event store database")
	cfgPath = fs.String("config", "", "Optional layered configuration file (overrides -db and supervisor defaults)")
	enableMetrics = fs.Bool("enable-metrics", false, "Enable the Prometheus metrics provider")
	return
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("encode result: %v", err)
	}
}

func runAddAsset(args []string) {
	fs := flag.NewFlagSet("add-asset", flag.ExitOnError)
	db, cfgPath, _ := commonFlags(fs)
	name := fs.String("name", "", "Object name")
	line1 := fs.String("line1", "", "TLE line 1")
	line2 := fs.String("line2", "", "TLE line 2")
	radius := fs.Float64("radius-m", 1.0, "Hard-body radius in meters")
	maneuverable := fs.Bool("maneuverable", false, "Whether the asset can perform avoidance burns")
	fs.Parse(args)

	if *name == "" || *line1 == "" || *line2 == "" {
		log.Fatal("add-asset requires -name, -line1, and -line2")
	}

	p, err := openPlatform(*db, *cfgPath, false)
	if err != nil {
		log.Fatalf("open platform: %v", err)
	}
	defer p.Close()

	asset, err := p.AddAsset(context.Background(), *name, *line1, *line2, models.Asset{
		HardBodyRadiusM: *radius,
		Maneuverable:    *maneuverable,
	})
	if err != nil {
		log.Fatalf("add asset: %v", err)
	}
	printJSON(asset)
}

func runListAssets(args []string) {
	fs := flag.NewFlagSet("list-assets", flag.ExitOnError)
	db, cfgPath, _ := commonFlags(fs)
	fs.Parse(args)

	p, err := openPlatform(*db, *cfgPath, false)
	if err != nil {
		log.Fatalf("open platform: %v", err)
	}
	defer p.Close()

	assets, err := p.ListAssets(context.Background())
	if err != nil {
		log.Fatalf("list assets: %v", err)
	}
	printJSON(assets)
}

func runUpdateAsset(args []string) {
	fs := flag.NewFlagSet("update-asset", flag.ExitOnError)
	db, cfgPath, _ := commonFlags(fs)
	id := fs.Int64("id", 0, "Asset ID")
	radius := fs.Float64("radius-m", 0, "New hard-body radius in meters (0 = leave unchanged)")
	maneuverable := fs.Bool("maneuverable", false, "Whether the asset can perform avoidance burns")
	fs.Parse(args)

	if *id == 0 {
		log.Fatal("update-asset requires -id")
	}

	p, err := openPlatform(*db, *cfgPath, false)
	if err != nil {
		log.Fatalf("open platform: %v", err)
	}
	defer p.Close()

	ctx := context.Background()
	asset, err := p.GetAsset(ctx, *id)
	if err != nil {
		log.Fatalf("load asset: %v", err)
	}
	if *radius > 0 {
		asset.HardBodyRadiusM = *radius
	}
	asset.Maneuverable = *maneuverable
	if err := p.UpdateAssetProperties(ctx, asset); err != nil {
		log.Fatalf("update asset: %v", err)
	}
	printJSON(asset)
}

func runDeleteAsset(args []string) {
	fs := flag.NewFlagSet("delete-asset", flag.ExitOnError)
	db, cfgPath, _ := commonFlags(fs)
	id := fs.Int64("id", 0, "Asset ID")
	fs.Parse(args)

	if *id == 0 {
		log.Fatal("delete-asset requires -id")
	}

	p, err := openPlatform(*db, *cfgPath, false)
	if err != nil {
		log.Fatalf("open platform: %v", err)
	}
	defer p.Close()

	if err := p.DeleteAsset(context.Background(), *id); err != nil {
		log.Fatalf("delete asset: %v", err)
	}
	fmt.Printf("asset %d deleted\n", *id)
}

func runLoadCatalog(args []string) {
	fs := flag.NewFlagSet("load-catalog", flag.ExitOnError)
	db, cfgPath, _ := commonFlags(fs)
	path := fs.String("file", "", "Path to a TLE catalog file")
	fs.Parse(args)

	if *path == "" {
		log.Fatal("load-catalog requires -file")
	}

	p, err := openPlatform(*db, *cfgPath, false)
	if err != nil {
		log.Fatalf("open platform: %v", err)
	}
	defer p.Close()

	n, warnings, err := p.LoadCatalog(*path)
	if err != nil {
		log.Fatalf("load catalog: %v", err)
	}
	fmt.Printf("loaded %d catalog objects (%d warnings)\n", n, len(warnings))
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, w.String())
	}
}

func runScreen(args []string) {
	fs := flag.NewFlagSet("screen", flag.ExitOnError)
	db, cfgPath, enableMetrics := commonFlags(fs)
	assetID := fs.Int64("asset-id", 0, "Asset ID to screen")
	windowDays := fs.Float64("window-days", 7, "Screening window in days")
	distanceKm := fs.Float64("distance-threshold-km", 5, "Conjunction distance threshold in km")
	wait := fs.Bool("wait", false, "Block until the job completes, polling -poll-interval")
	pollInterval := fs.Duration("poll-interval", 2*time.Second, "Poll interval when -wait is set")
	fs.Parse(args)

	if *assetID == 0 {
		log.Fatal("screen requires -asset-id")
	}

	p, err := openPlatform(*db, *cfgPath, *enableMetrics)
	if err != nil {
		log.Fatalf("open platform: %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	installSignalHandler(cancel)

	jobID, err := p.RunScreening(ctx, *assetID, screener.Options{
		WindowDays:          *windowDays,
		DistanceThresholdKm: *distanceKm,
	}, time.Now().UTC())
	if err != nil {
		log.Fatalf("run screening: %v", err)
	}
	fmt.Printf("submitted job %d\n", jobID)

	if !*wait {
		return
	}

	ticker := time.NewTicker(*pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := p.JobStatus(ctx, jobID)
			if err != nil {
				log.Fatalf("job status: %v", err)
			}
			fmt.Fprintf(os.Stderr, "job %d: %s (%.0f%%)\n", jobID, job.Status, job.Progress*100)
			if job.Status == models.JobCompleted || job.Status == models.JobFailed {
				printJSON(job)
				return
			}
		}
	}
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	db, cfgPath, _ := commonFlags(fs)
	jobID := fs.Int64("job-id", 0, "Screening job ID")
	fs.Parse(args)

	if *jobID == 0 {
		log.Fatal("status requires -job-id")
	}

	p, err := openPlatform(*db, *cfgPath, false)
	if err != nil {
		log.Fatalf("open platform: %v", err)
	}
	defer p.Close()

	job, err := p.JobStatus(context.Background(), *jobID)
	if err != nil {
		log.Fatalf("job status: %v", err)
	}
	printJSON(job)
}

func runConjunctions(args []string) {
	fs := flag.NewFlagSet("conjunctions", flag.ExitOnError)
	db, cfgPath, _ := commonFlags(fs)
	assetID := fs.Int64("asset-id", 0, "Asset ID")
	fs.Parse(args)

	if *assetID == 0 {
		log.Fatal("conjunctions requires -asset-id")
	}

	p, err := openPlatform(*db, *cfgPath, false)
	if err != nil {
		log.Fatalf("open platform: %v", err)
	}
	defer p.Close()

	events, err := p.ListConjunctions(context.Background(), *assetID)
	if err != nil {
		log.Fatalf("list conjunctions: %v", err)
	}
	printJSON(events)
}

func runConjunctionDetail(args []string) {
	fs := flag.NewFlagSet("conjunction", flag.ExitOnError)
	db, cfgPath, _ := commonFlags(fs)
	id := fs.Int64("id", 0, "Conjunction ID")
	fs.Parse(args)

	if *id == 0 {
		log.Fatal("conjunction requires -id")
	}

	p, err := openPlatform(*db, *cfgPath, false)
	if err != nil {
		log.Fatalf("open platform: %v", err)
	}
	defer p.Close()

	ev, err := p.ConjunctionDetail(context.Background(), *id)
	if err != nil {
		log.Fatalf("conjunction detail: %v", err)
	}
	printJSON(ev)
}

func runMonteCarlo(args []string) {
	fs := flag.NewFlagSet("montecarlo", flag.ExitOnError)
	db, cfgPath, _ := commonFlags(fs)
	id := fs.Int64("conjunction-id", 0, "Conjunction ID")
	samples := fs.Int("samples", 20000, "Sample count")
	fs.Parse(args)

	if *id == 0 {
		log.Fatal("montecarlo requires -conjunction-id")
	}

	p, err := openPlatform(*db, *cfgPath, false)
	if err != nil {
		log.Fatalf("open platform: %v", err)
	}
	defer p.Close()

	result, err := p.MonteCarlo(context.Background(), *id, *samples)
	if err != nil {
		log.Fatalf("monte carlo: %v", err)
	}
	printJSON(result)
}

func runManeuvers(args []string) {
	fs := flag.NewFlagSet("maneuvers", flag.ExitOnError)
	db, cfgPath, _ := commonFlags(fs)
	id := fs.Int64("conjunction-id", 0, "Conjunction ID")
	pcThreshold := fs.Float64("pc-threshold", 1e-5, "Target post-maneuver collision probability")
	fs.Parse(args)

	if *id == 0 {
		log.Fatal("maneuvers requires -conjunction-id")
	}

	p, err := openPlatform(*db, *cfgPath, false)
	if err != nil {
		log.Fatalf("open platform: %v", err)
	}
	defer p.Close()

	options, err := p.ComputeManeuvers(context.Background(), *id, maneuver.Options{
		PcThreshold: *pcThreshold,
		Now:         time.Now().UTC(),
	})
	if err != nil {
		log.Fatalf("compute maneuvers: %v", err)
	}
	printJSON(options)
}

func runAlerts(args []string) {
	fs := flag.NewFlagSet("alerts", flag.ExitOnError)
	db, cfgPath, _ := commonFlags(fs)
	assetID := fs.Int64("asset-id", 0, "Filter to one asset (0 = all)")
	fs.Parse(args)

	p, err := openPlatform(*db, *cfgPath, false)
	if err != nil {
		log.Fatalf("open platform: %v", err)
	}
	defer p.Close()

	alerts, err := p.ListAlerts(context.Background(), *assetID)
	if err != nil {
		log.Fatalf("list alerts: %v", err)
	}
	printJSON(alerts)
}

func runAckAlert(args []string) {
	fs := flag.NewFlagSet("ack-alert", flag.ExitOnError)
	db, cfgPath, _ := commonFlags(fs)
	id := fs.Int64("id", 0, "Alert ID")
	fs.Parse(args)

	if *id == 0 {
		log.Fatal("ack-alert requires -id")
	}

	p, err := openPlatform(*db, *cfgPath, false)
	if err != nil {
		log.Fatalf("open platform: %v", err)
	}
	defer p.Close()

	if err := p.AcknowledgeAlert(context.Background(), *id); err != nil {
		log.Fatalf("acknowledge alert: %v", err)
	}
	fmt.Printf("alert %d acknowledged\n", *id)
}

func runConfigureAlerts(args []string) {
	fs := flag.NewFlagSet("configure-alerts", flag.ExitOnError)
	db, cfgPath, _ := commonFlags(fs)
	assetIDFlag := fs.String("asset-id", "", "Asset ID (empty = global config)")
	critical := fs.Float64("critical", 1e-3, "Critical threshold")
	high := fs.Float64("high", 1e-4, "High threshold")
	moderate := fs.Float64("moderate", 1e-5, "Moderate threshold")
	enabled := fs.Bool("enabled", true, "Whether alerting is enabled")
	fs.Parse(args)

	cfg := models.AlertConfig{
		CriticalThreshold: *critical,
		HighThreshold:     *high,
		ModerateThreshold: *moderate,
		Enabled:           *enabled,
	}
	if *assetIDFlag != "" {
		id, err := strconv.ParseInt(*assetIDFlag, 10, 64)
		if err != nil {
			log.Fatalf("invalid -asset-id: %v", err)
		}
		cfg.AssetID = &id
	}

	p, err := openPlatform(*db, *cfgPath, false)
	if err != nil {
		log.Fatalf("open platform: %v", err)
	}
	defer p.Close()

	if err := p.ConfigureAlerts(context.Background(), cfg); err != nil {
		log.Fatalf("configure alerts: %v", err)
	}
	fmt.Println("alert thresholds saved")
}

func runSnapshot(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	db, cfgPath, _ := commonFlags(fs)
	fs.Parse(args)

	p, err := openPlatform(*db, *cfgPath, false)
	if err != nil {
		log.Fatalf("open platform: %v", err)
	}
	defer p.Close()

	snap, err := p.Snapshot(context.Background())
	if err != nil {
		log.Fatalf("snapshot: %v", err)
	}
	printJSON(snap)
}

func installSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.Println("signal received; initiating graceful shutdown...")
		cancel()
		<-sigCh
		log.Println("second signal received; forcing exit")
		os.Exit(1)
	}()
}

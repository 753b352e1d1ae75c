// Command topocheck creates a testbed from any registered creator and runs
// the registered pre-job plugins against it, the way a job runner would
// before handing the testbed to a test suite.
//
// Arguments after the topocheck flags are passed to the plugins, so a run
// looks like:
//
//	topocheck -source testbed.yaml --connection-check-timeout 60
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cuongbtq/testbed-contrib/creators"
	_ "github.com/cuongbtq/testbed-contrib/creators/all"
	_ "github.com/cuongbtq/testbed-contrib/plugins/topoup"
	"github.com/cuongbtq/testbed-contrib/runner"
	"github.com/cuongbtq/testbed-contrib/shared/logger"
	"github.com/cuongbtq/testbed-contrib/topology"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultCreator := os.Getenv("TOPOCHECK_CREATOR")
	if defaultCreator == "" {
		defaultCreator = "file"
	}

	var (
		creatorName = flag.String("creator", defaultCreator, "Testbed creator to use")
		source      = flag.String("source", os.Getenv("TOPOCHECK_SOURCE"), "Creator source URI")
		options     = flag.String("options", "", "Comma-separated key=value creator options")
		jobName     = flag.String("job", "connectivity", "Job name for this run")
		logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		logFormat   = flag.String("log-format", "console", "Log format (json, console)")
	)
	flag.Parse()

	// Initialize logger
	appLogger, err := logger.New(&logger.Config{
		Level:      *logLevel,
		Format:     *logFormat,
		TimeFormat: time.RFC3339,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if *source == "" {
		return fmt.Errorf("a creator source is required (-source)")
	}

	creatorOptions, err := parseOptions(*options)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create the testbed document and turn it into dialable devices
	doc, err := creators.Create(ctx, *creatorName, creators.Source{
		URI:     *source,
		Options: creatorOptions,
	})
	if err != nil {
		return fmt.Errorf("failed to create testbed: %w", err)
	}

	testbed, err := topology.NewTCPTestbed(doc)
	if err != nil {
		return fmt.Errorf("failed to assemble testbed: %w", err)
	}

	appLogger.Info("Testbed created",
		slog.String("testbed", doc.Name),
		slog.Int("devices", testbed.Size()),
		slog.String("creator", *creatorName),
	)

	harness := runner.NewHarness(nil, appLogger.Logger)
	if err := harness.Setup(flag.Args()); err != nil {
		return err
	}

	rt := runner.NewRuntime(*jobName, testbed, appLogger.Logger)
	if err := harness.PreJob(ctx, rt); err != nil {
		return err
	}

	appLogger.Info("Pre-job checks passed",
		slog.String("job_id", rt.JobID),
	)
	return nil
}

// parseOptions splits "k=v,k2=v2" into a map.
func parseOptions(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}

	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid creator option %q (want key=value)", pair)
		}
		out[key] = value
	}
	return out, nil
}

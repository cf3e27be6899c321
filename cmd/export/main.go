// cmd/export/main.go
//
// Headless counterpart of the admin page's "Create CSV" button: fetch
// the accepted orders once, build the CSV for a route and civil date,
// and deliver it to a local directory, an S3-compatible bucket, and/or
// a Google Drive folder.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yalgud-dairy/orders-admin/internal/domain"
	"github.com/yalgud-dairy/orders-admin/internal/orderapi"
	"github.com/yalgud-dairy/orders-admin/internal/service"
	"github.com/yalgud-dairy/orders-admin/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Log.Debug().Err(err).Msg("no .env file loaded")
	}

	app := &cli.App{
		Name:  "export",
		Usage: "Build accepted-order CSV exports for billing/dispatch",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "Order API base URL",
				Value:   "http://127.0.0.1:8002/api",
				EnvVars: []string{"ORDER_API_BASE_URL"},
			},
			&cli.IntFlag{
				Name:    "timeout",
				Usage:   "Order API timeout in seconds",
				Value:   30,
				EnvVars: []string{"ORDER_API_TIMEOUT_SECONDS"},
			},
			&cli.StringFlag{
				Name:  "route",
				Usage: "Route key to export (\"Name||Code\", or just the name for code-less routes)",
			},
			&cli.BoolFlag{
				Name:  "all-routes",
				Usage: "Export one CSV per route discovered in the snapshot",
			},
			&cli.StringFlag{
				Name:  "date",
				Usage: "Target civil date (YYYY-MM-DD); defaults to today at +05:30",
			},
			&cli.StringFlag{
				Name:    "out-dir",
				Usage:   "Directory CSV files are written to",
				Value:   "./data/exports",
				EnvVars: []string{"EXPORT_OUT_DIR"},
			},
			&cli.StringFlag{
				Name:    "s3-endpoint",
				Usage:   "Optional S3-compatible endpoint to upload exports to",
				EnvVars: []string{"EXPORT_S3_ENDPOINT"},
			},
			&cli.StringFlag{Name: "s3-access-key", EnvVars: []string{"EXPORT_S3_ACCESS_KEY"}},
			&cli.StringFlag{Name: "s3-secret-key", EnvVars: []string{"EXPORT_S3_SECRET_KEY"}},
			&cli.StringFlag{Name: "s3-bucket", EnvVars: []string{"EXPORT_S3_BUCKET"}},
			&cli.StringFlag{Name: "s3-region", EnvVars: []string{"EXPORT_S3_REGION"}},
			&cli.BoolFlag{Name: "s3-use-ssl", Value: true, EnvVars: []string{"EXPORT_S3_USE_SSL"}},
			&cli.StringFlag{Name: "s3-prefix", Value: "exports", EnvVars: []string{"EXPORT_S3_PREFIX"}},
			&cli.StringFlag{
				Name:    "drive-credentials",
				Usage:   "Optional Google service-account credentials JSON",
				EnvVars: []string{"GOOGLE_DRIVE_CREDENTIALS_JSON"},
			},
			&cli.StringFlag{
				Name:    "drive-folder",
				Usage:   "Drive folder ID exports are uploaded into",
				EnvVars: []string{"EXPORT_DRIVE_FOLDER_ID"},
			},
		},
		Action: runExport,
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("export failed")
	}
}

func runExport(c *cli.Context) error {
	if !c.Bool("all-routes") && c.String("route") == "" {
		return errors.New("either --route or --all-routes is required")
	}

	client := orderapi.New(c.String("base-url"), time.Duration(c.Int("timeout"))*time.Second)
	orders := service.NewOrderService(client, domain.StatusAccepted)

	sinks, err := newSinks(c)
	if err != nil {
		return err
	}

	// One upstream fetch up front; the per-route exports below only
	// read the resident snapshot.
	if err := orders.Refresh(c.Context); err != nil {
		return err
	}

	routeKeys := []string{c.String("route")}
	if c.Bool("all-routes") {
		routes, err := orders.Routes(c.Context)
		if err != nil {
			return err
		}
		routeKeys = routeKeys[:0]
		for _, r := range routes {
			routeKeys = append(routeKeys, r.Key)
		}
	}

	date := c.String("date")

	g, ctx := errgroup.WithContext(c.Context)
	g.SetLimit(4)
	for _, key := range routeKeys {
		g.Go(func() error {
			payload, filename, err := orders.Export(ctx, key, date)
			if err != nil {
				if errors.Is(err, service.ErrNoOrdersForDate) {
					logger.Log.Warn().Str("route", key).Msg(err.Error())
					return nil
				}
				return fmt.Errorf("route %s: %w", key, err)
			}
			return sinks.deliver(ctx, filename, payload)
		})
	}

	return g.Wait()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/RoyceAzure/lab/crm/internal/appcontext"
	"github.com/RoyceAzure/lab/crm/internal/config"
	"github.com/RoyceAzure/lab/crm/internal/constants"
	"github.com/RoyceAzure/lab/crm/internal/infra/repository/db"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := &cli.App{
		Name:  "crm",
		Usage: "customer, product and order management over GraphQL",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "dotenv file loaded before reading the environment",
			},
			&cli.StringFlag{
				Name:    "config",
				EnvVars: []string{config.ConfigFileEnv},
				Usage:   "optional config file, watched for changes",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			jobCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("crm exited")
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	p, err := config.Load(c.String("env-file"), c.String("config"))
	if err != nil {
		return nil, err
	}
	return p.Get(), nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "start the GraphQL server and the job scheduler",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-scheduler", Usage: "serve requests only"},
		},
		Action: func(c *cli.Context) error {
			cf, err := loadConfig(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := appcontext.NewApplicationContext(ctx, cf)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:    fmt.Sprintf(":%s", cf.ServerPort),
				Handler: app.Router,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				app.Logger.Info().Str("addr", srv.Addr).Msg("Server starting")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			if !c.Bool("no-scheduler") {
				g.Go(func() error {
					return app.Scheduler.Start()
				})
			}
			g.Go(func() error {
				<-gctx.Done()
				app.Logger.Info().Msg("Received shutdown signal")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
				defer cancel()

				if err := srv.Shutdown(shutdownCtx); err != nil {
					app.Logger.Error().Err(err).Msg("Server shutdown error")
				}
				if err := app.Shutdown(shutdownCtx); err != nil {
					app.Logger.Error().Err(err).Msg("Application shutdown error")
				}
				return nil
			})

			err = g.Wait()
			app.Logger.Info().Msg("closed completed")
			return err
		},
	}
}

func migrateCommand() *cli.Command {
	run := func(direction db.MigrateDirection) cli.ActionFunc {
		return func(c *cli.Context) error {
			cf, err := loadConfig(c)
			if err != nil {
				return err
			}
			appcontext.SetupLogger(cf)
			if err := db.RunMigrations(cf.DatabaseURL(), direction); err != nil {
				return fmt.Errorf("migrate %s: %w", direction, err)
			}
			log.Info().Str("direction", string(direction)).Msg("migration finished")
			return nil
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "apply database schema migrations",
		Subcommands: []*cli.Command{
			{Name: "up", Usage: "apply all pending migrations", Action: run(db.MigrateUp)},
			{Name: "down", Usage: "roll back all migrations", Action: run(db.MigrateDown)},
		},
	}
}

func jobCommand() *cli.Command {
	return &cli.Command{
		Name:  "job",
		Usage: "scheduled job utilities",
		Subcommands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "run one job once and exit",
				ArgsUsage: "<heartbeat|restock|report|order_reminders>",
				Action: func(c *cli.Context) error {
					name := c.Args().First()
					if name == "" {
						return cli.Exit("job name is required", 2)
					}
					cf, err := loadConfig(c)
					if err != nil {
						return err
					}

					app, err := appcontext.NewApplicationContext(c.Context, cf)
					if err != nil {
						return err
					}
					defer app.Shutdown(context.Background())

					ok, err := app.RunJob(c.Context, name)
					if err != nil {
						return err
					}
					if !ok {
						return cli.Exit(fmt.Sprintf("job %s failed, see its log file", name), 1)
					}
					return nil
				},
			},
		},
	}
}

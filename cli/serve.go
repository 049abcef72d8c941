package cli

import (
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	urfave "github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"comfortcast/db"
	qhttp "comfortcast/http"
	"comfortcast/ml"
	"comfortcast/rooms"
	"comfortcast/weather"
)

var (
	portFlag = &urfave.IntFlag{
		Name:  "port",
		Usage: "HTTP port (overrides config)",
	}

	dbFilePathFlag = &urfave.StringFlag{
		Name:  "db",
		Usage: "Path to the Sqlite feedback database (overrides config)",
	}

	serveCmd = &urfave.Command{
		Name:  "serve",
		Usage: "Serve predictions and collect feedback over HTTP",
		Flags: []urfave.Flag{
			portFlag,
			dbFilePathFlag,
		},
		Action: runServe,
	}
)

func runServe(c *urfave.Context) error {
	app := getConfig(c)
	cfg := app.Config
	logger := app.Logger

	if c.IsSet(portFlag.Name) {
		cfg.Http.Port = c.Int(portFlag.Name)
	}
	if path := c.String(dbFilePathFlag.Name); path != "" {
		cfg.Database.Path = path
	}

	if err := db.InitDB(cfg.Database.Path); err != nil {
		return errors.Wrapf(err, "initializing database %s", cfg.Database.Path)
	}
	defer db.Close()
	logger.Info("database initialized", zap.String("path", cfg.Database.Path))

	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
	}, qhttp.Dependencies{
		Predictor: ml.NewPredictor(cfg.Models.Dir, ml.WithLogger(logger)),
		Outdoor: weather.NewClient(weather.Config{
			BaseURL:  cfg.Weather.BaseURL,
			Station:  cfg.Weather.Station,
			CacheTTL: cfg.Weather.CacheTTL,
			Timeout:  cfg.Weather.Timeout,
		}, logger),
		Indoor: rooms.NewStore(cfg.Rooms.MaxAge, cfg.Rooms.Static...),
		Logger: logger,
	})
	logger.Info("serving comfort predictions",
		zap.String("addr", server.Addr()),
		zap.String("models", cfg.Models.Dir),
		zap.Int("static_rooms", len(cfg.Rooms.Static)))

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		errs <- server.Start()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := server.Stop(); err != nil {
		return err
	}
	return <-errs
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Abraxas-365/slotx/pkg/config"
	"github.com/Abraxas-365/slotx/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Logger
	logx.SetDefaultLogger(logx.NewLogger(logx.LoadFromEnv()))
	logx.Info("Starting slotd...")

	// 2. Config
	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Container
	container, err := NewContainer(ctx, cfg)
	if err != nil {
		logx.Fatalf("Failed to initialize container: %v", err)
	}
	defer container.Cleanup()

	// 4. App
	app := newApp(container)

	// 5. Run until a signal arrives or something fails
	if err := run(ctx, app, container); err != nil {
		logx.WithError(err).Error("slotd stopped with error")
		container.Cleanup()
		os.Exit(1)
	}
	logx.Info("Server exited successfully")
}

// newApp builds the fiber app with middleware and routes.
func newApp(c *Container) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "slotd",
		DisableStartupMessage: true,
		ErrorHandler:          newErrorHandler(c.Config.Server.Debug),
		BodyLimit:             c.Config.Server.BodyLimit,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: c.Config.Server.Debug,
	}))

	app.Use(requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: uuid.NewString,
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:  c.Config.Server.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, X-Request-ID",
		AllowMethods:  "GET, POST, HEAD, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${respHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
		Output:     logx.GetDefaultLogger().Writer(),
	}))

	c.RegisterRoutes(app)
	app.Use(notFoundHandler)

	return app
}

// run serves app and the mirror loops until ctx ends, then shuts the server
// down.
func run(ctx context.Context, app *fiber.App, c *Container) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := ":" + c.Config.Server.Port
		logx.Infof("Server listening on %s", addr)
		return app.Listen(addr)
	})

	for _, service := range c.StartBackgroundServices(gctx) {
		g.Go(service)
	}

	g.Go(func() error {
		<-gctx.Done()
		logx.Info("Shutting down gracefully...")
		return app.ShutdownWithTimeout(c.Config.Server.ShutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Composition root. Owns infrastructure (Redis, postgres, file storage) and
// the tracked slots.
package main

import (
	"context"
	"sort"
	"time"

	"github.com/Abraxas-365/slotx/pkg/config"
	"github.com/Abraxas-365/slotx/pkg/fsx"
	"github.com/Abraxas-365/slotx/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/slotx/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/slotx/pkg/logx"
	"github.com/Abraxas-365/slotx/pkg/opsx"
	"github.com/Abraxas-365/slotx/pkg/slotx"
	"github.com/Abraxas-365/slotx/pkg/slotx/slotxredis"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and the slots served over HTTP.
type Container struct {
	Config *config.Config

	// ctx outlives requests; calls issued over HTTP run under it so a 202
	// response does not cancel the work.
	ctx context.Context

	// Infrastructure, nil when disabled
	DB         *sqlx.DB
	Redis      *redis.Client
	Mirror     *slotxredis.Mirror
	FileSystem fsx.FileReader

	slots map[string]slot
}

// NewContainer wires infrastructure and slots. ctx bounds every tracked call.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logx.Info("Initializing application container...")

	c := &Container{
		Config: cfg,
		ctx:    ctx,
		slots:  make(map[string]slot),
	}

	if err := c.initInfrastructure(); err != nil {
		c.Cleanup()
		return nil, err
	}
	c.initSlots()

	logx.WithField("slots", c.SlotNames()).Info("Application container initialized")
	return c, nil
}

func (c *Container) initInfrastructure() error {
	if c.Config.Database.Enabled {
		db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
		if err != nil {
			return err
		}
		db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
		db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
		db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
		c.DB = db
		logx.Info("  Database connected")
	}

	if c.Config.Redis.Enabled {
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     c.Config.Redis.Address(),
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
		defer cancel()
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			return err
		}
		c.Mirror = slotxredis.NewMirror(c.Redis, c.Config.Redis.StateTTL)
		logx.Info("  Redis connected, snapshot mirror enabled")
	}

	return c.initFileStorage()
}

func (c *Container) initFileStorage() error {
	storage := c.Config.Storage

	switch storage.Mode {
	case "s3":
		cfg, err := awsConfig.LoadDefaultConfig(c.ctx, awsConfig.WithRegion(storage.AWSRegion))
		if err != nil {
			return err
		}
		c.FileSystem = fsxs3.NewS3FileSystem(s3.NewFromConfig(cfg), storage.AWSBucket, storage.AWSPrefix)
		logx.Infof("  S3 file system configured (bucket: %s, region: %s)", storage.AWSBucket, storage.AWSRegion)

	default:
		localFS, err := fsxlocal.NewLocalFileSystem(storage.UploadDir)
		if err != nil {
			return err
		}
		c.FileSystem = localFS
		logx.Infof("  Local file system configured (path: %s)", localFS.BasePath())
	}
	return nil
}

func (c *Container) initSlots() {
	if c.Config.SlotEnabled("echo") {
		c.register(newSlot(slotx.New(opsx.Echo(), nil, slotx.WithName("echo"))))
	}

	if c.Config.SlotEnabled("preview") {
		c.register(newSlot(slotx.New(
			opsx.Preview(c.FileSystem, c.Config.Slots.PreviewLimit),
			slotx.Key{c.FileSystem, c.Config.Slots.PreviewLimit},
			slotx.WithName("preview"),
		)))
	}

	if c.Config.SlotEnabled("search") {
		if c.DB == nil {
			logx.Warn("  search slot skipped: DB_ENABLED is not set")
			return
		}
		c.register(newSlot(slotx.New(
			opsx.Search(c.DB, c.Config.Slots.SearchTable),
			slotx.Key{c.DB, c.Config.Slots.SearchTable},
			slotx.WithName("search"),
		)))
	}
}

func (c *Container) register(s slot) {
	c.slots[s.Name()] = s
}

// Slot looks a slot up by name.
func (c *Container) Slot(name string) (slot, bool) {
	s, ok := c.slots[name]
	return s, ok
}

// SlotNames returns the served slot names, sorted.
func (c *Container) SlotNames() []string {
	names := make([]string, 0, len(c.slots))
	for name := range c.slots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StartBackgroundServices returns the mirror loops, one per slot. Each ends
// when ctx does.
func (c *Container) StartBackgroundServices(ctx context.Context) []func() error {
	if c.Mirror == nil {
		return nil
	}

	var services []func() error
	for _, name := range c.SlotNames() {
		s := c.slots[name]
		services = append(services, func() error {
			return s.Mirror(ctx, c.Mirror)
		})
	}
	logx.Infof("Mirroring %d slots to Redis", len(services))
	return services
}

// Cleanup closes every slot and connection.
func (c *Container) Cleanup() {
	logx.Info("Cleaning up resources...")

	for _, s := range c.slots {
		s.Close()
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  Redis connection closed")
		}
	}

	logx.Info("Cleanup complete")
}

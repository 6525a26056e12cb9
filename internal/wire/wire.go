// Package wire provides dependency injection for claimhub.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/example/claimhub/internal/adapters/broadcast"
	cliadapter "github.com/example/claimhub/internal/adapters/cli"
	"github.com/example/claimhub/internal/adapters/fingerprint"
	"github.com/example/claimhub/internal/adapters/memory"
	"github.com/example/claimhub/internal/adapters/sqlite"
	"github.com/example/claimhub/internal/app"
	"github.com/example/claimhub/internal/config"
	"github.com/example/claimhub/internal/db"
	"github.com/example/claimhub/internal/logging"
	"github.com/example/claimhub/internal/metrics"
	"github.com/example/claimhub/internal/ports/primary"
	"github.com/example/claimhub/internal/ports/secondary"
	"github.com/example/claimhub/internal/tracing"
	"github.com/example/claimhub/internal/version"
)

// Container holds one fully wired set of services over a single store.
type Container struct {
	Config      *config.Config
	Logger      secondary.Logger
	Metrics     secondary.Metrics
	Registry    *prometheus.Registry // nil when metrics are disabled
	Broadcaster secondary.Broadcaster

	ClaimService    primary.ClaimService
	TaskService     primary.TaskService
	SettingsService primary.SettingsService
	ViewService     primary.ViewService

	// Fingerprint identifies this device when dedup is enabled; Synthetic
	// mints a fresh identifier per claim when it is not.
	Fingerprint secondary.FingerprintSource
	Synthetic   secondary.FingerprintSource

	store           secondary.Store
	shutdownTracing tracing.ShutdownFunc
}

// New builds a Container from cfg. logOut receives log lines (os.Stderr when nil).
func New(cfg *config.Config, logOut io.Writer) (*Container, error) {
	if logOut == nil {
		logOut = os.Stderr
	}

	logger, err := logging.New(logOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	c := &Container{Config: cfg, Logger: logger, Metrics: metrics.NewNop()}

	if cfg.Metrics.Addr != "" {
		c.Registry = prometheus.NewRegistry()
		c.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		c.Metrics = metrics.NewPrometheus(c.Registry, "")
	}

	if cfg.Tracing.File != "" {
		shutdown, err := tracing.Init(version.Name, version.Version, cfg.Tracing.File)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
		c.shutdownTracing = shutdown
	}

	switch cfg.Database.Driver {
	case config.DriverMemory:
		c.store = memory.NewStore()
	default:
		conn, err := db.Open(cfg.Database.Path)
		if err != nil {
			c.Close(context.Background())
			return nil, err
		}
		c.store = sqlite.NewStore(conn)
	}

	switch cfg.Broadcast.Driver {
	case config.DriverNATS:
		nb, err := broadcast.DialNATS(cfg.Broadcast.NATSURL, cfg.Broadcast.SubjectPrefix, logger)
		if err != nil {
			c.Close(context.Background())
			return nil, err
		}
		c.Broadcaster = nb
	default:
		c.Broadcaster = broadcast.NewHub(cfg.Broadcast.Buffer, c.Metrics, logger)
	}

	retry := app.RetryPolicy{MaxAttempts: cfg.Claim.MaxAttempts, Backoff: cfg.Claim.RetryBackoff}
	locker := app.NewKeyedLocker()

	c.ClaimService = app.NewClaimService(c.store, c.Broadcaster, locker, retry, logger, c.Metrics)
	c.TaskService = app.NewTaskService(c.store, c.Broadcaster, locker, retry, logger, c.Metrics)
	c.SettingsService = app.NewSettingsService(c.store, c.Broadcaster, retry, logger, c.Metrics)
	c.ViewService = app.NewViewService(c.store, c.Broadcaster, retry, logger, c.Metrics)

	c.Fingerprint = fingerprint.NewHost()
	c.Synthetic = fingerprint.NewSynthetic()

	return c, nil
}

// Close stops the broadcaster, closes the store and flushes traces.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.Broadcaster != nil {
		errs = append(errs, c.Broadcaster.Close())
	}
	if c.store != nil {
		errs = append(errs, c.store.Close())
	}
	if c.shutdownTracing != nil {
		errs = append(errs, c.shutdownTracing(ctx))
	}
	return errors.Join(errs...)
}

// ResolveDeviceID returns the identifier the next claim from this process uses.
func (c *Container) ResolveDeviceID(ctx context.Context) (string, error) {
	policy, err := c.SettingsService.GetPolicy(ctx)
	if err != nil {
		return "", err
	}
	return app.ResolveDeviceID(ctx, policy.DedupEnabled, c.Fingerprint, c.Synthetic)
}

var (
	configDir   string
	metricsAddr string
	container   *Container
	once        sync.Once
)

// SetConfigDir selects the directory config.yaml is read from. It must be
// called before the first accessor to take effect.
func SetConfigDir(dir string) {
	configDir = dir
}

// SetMetricsAddr overrides metrics.addr. Like SetConfigDir it only affects
// the first initialization.
func SetMetricsAddr(addr string) {
	metricsAddr = addr
}

// Default returns the process-wide Container, building it on first use.
func Default() *Container {
	once.Do(initServices)
	return container
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	dir := configDir
	if dir == "" {
		var err error
		dir, err = config.HomeDir()
		if err != nil {
			log.Fatalf("failed to resolve config directory: %v", err)
		}
	}

	cfg, err := config.LoadConfig(dir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}

	container, err = New(cfg, os.Stderr)
	if err != nil {
		log.Fatalf("failed to initialize services: %v", err)
	}
}

// Shutdown closes the process-wide Container if it was built.
func Shutdown(ctx context.Context) error {
	if container == nil {
		return nil
	}
	return container.Close(ctx)
}

// ClaimService returns the singleton ClaimService instance.
func ClaimService() primary.ClaimService {
	return Default().ClaimService
}

// TaskService returns the singleton TaskService instance.
func TaskService() primary.TaskService {
	return Default().TaskService
}

// SettingsService returns the singleton SettingsService instance.
func SettingsService() primary.SettingsService {
	return Default().SettingsService
}

// ViewService returns the singleton ViewService instance.
func ViewService() primary.ViewService {
	return Default().ViewService
}

// TaskAdapter returns a new TaskAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func TaskAdapter() *cliadapter.TaskAdapter {
	return TaskAdapterWithOutput(os.Stdout)
}

// TaskAdapterWithOutput returns a new TaskAdapter writing to the given output.
func TaskAdapterWithOutput(out io.Writer) *cliadapter.TaskAdapter {
	return cliadapter.NewTaskAdapter(Default().TaskService, out)
}

// ClaimAdapter returns a new ClaimAdapter writing to stdout.
func ClaimAdapter() *cliadapter.ClaimAdapter {
	return ClaimAdapterWithOutput(os.Stdout)
}

// ClaimAdapterWithOutput returns a new ClaimAdapter writing to the given output.
func ClaimAdapterWithOutput(out io.Writer) *cliadapter.ClaimAdapter {
	c := Default()
	return cliadapter.NewClaimAdapter(c.ClaimService, c.TaskService, out)
}

// SettingsAdapter returns a new SettingsAdapter writing to stdout.
func SettingsAdapter() *cliadapter.SettingsAdapter {
	return SettingsAdapterWithOutput(os.Stdout)
}

// SettingsAdapterWithOutput returns a new SettingsAdapter writing to the given output.
func SettingsAdapterWithOutput(out io.Writer) *cliadapter.SettingsAdapter {
	return cliadapter.NewSettingsAdapter(Default().SettingsService, out)
}

// BoardAdapter returns a new BoardAdapter writing to stdout.
func BoardAdapter() *cliadapter.BoardAdapter {
	return BoardAdapterWithOutput(os.Stdout)
}

// BoardAdapterWithOutput returns a new BoardAdapter writing to the given output.
func BoardAdapterWithOutput(out io.Writer) *cliadapter.BoardAdapter {
	return cliadapter.NewBoardAdapter(Default().ViewService, out)
}

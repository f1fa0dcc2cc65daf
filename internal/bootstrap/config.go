package bootstrap

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/wolfeidau/apiscaffold/internal/compose"
)

// Runtime is the container tooling the bootstrapper drives.
type Runtime interface {
	NetworkExists(ctx context.Context, name string) (bool, error)
	CreateNetwork(ctx context.Context, name string) error
	ComposeBuild(ctx context.Context, w io.Writer) error
	// ComposeCommand is the compose invocation shown in follow-up hints.
	ComposeCommand() string
}

// Config holds configuration for bootstrapping the local environment.
type Config struct {
	// LookupRuntime resolves the container runtime and compose CLI. An error
	// means a required tool is missing.
	LookupRuntime func(ctx context.Context) (Runtime, error)

	// Dir is the project root every other path is relative to.
	Dir string

	DataDir          string // e.g. "data"
	DocumentStoreDir string // created inside DataDir, e.g. "mongodb_data"
	EnvFile          string // live configuration, e.g. ".env"
	EnvTemplate      string // template copied to EnvFile when it is absent
	ComposeFile      string
	Network          string

	// VenvDirs are the dependency environment directories to look for.
	VenvDirs []string

	// AppService and StoreService name the compose services reported in the
	// endpoint summary.
	AppService   string
	StoreService string

	// Reporter receives status lines. Default: stdout
	Reporter *Reporter
	// BuildOutput receives the streamed build output. Default: stdout
	BuildOutput io.Writer
}

// ApplyDefaults fills unset fields with the standard project layout.
func (c *Config) ApplyDefaults() {
	if c.Dir == "" {
		c.Dir = "."
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.DocumentStoreDir == "" {
		c.DocumentStoreDir = "mongodb_data"
	}
	if c.EnvFile == "" {
		c.EnvFile = ".env"
	}
	if c.EnvTemplate == "" {
		c.EnvTemplate = ".env.example"
	}
	if c.ComposeFile == "" {
		c.ComposeFile = "docker-compose.yml"
	}
	if c.Network == "" {
		c.Network = "app-network"
	}
	if len(c.VenvDirs) == 0 {
		c.VenvDirs = []string{".venv", "venv"}
	}
	if c.AppService == "" {
		c.AppService = "app"
	}
	if c.StoreService == "" {
		c.StoreService = "mongodb"
	}
	if c.Reporter == nil {
		c.Reporter = NewReporter(os.Stdout)
	}
	if c.BuildOutput == nil {
		c.BuildOutput = os.Stdout
	}
}

func (c *Config) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.Dir, rel)
}

// Result describes what a bootstrap run did.
type Result struct {
	DataDirCreated bool
	EnvFileCreated bool
	NetworkCreated bool

	// Venv is the dependency environment directory found, if any.
	Venv string

	// Endpoints are the host addresses of the built services.
	Endpoints []compose.Endpoint
}

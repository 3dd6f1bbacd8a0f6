package sqlkit

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/wait"
)

// DockerTestHelper manages a throwaway MySQL container for integration
// tests. Set SQLKIT_DOCKER_TESTS=1 to opt in; without it, DockerTestsEnabled
// reports false and callers should skip.
type DockerTestHelper struct {
	container testcontainers.Container
	pool      *Pool
	dsn       string
}

// DockerTestConfig holds configuration for the MySQL test container.
type DockerTestConfig struct {
	MySQLVersion string
	Database     string
	Username     string
	Password     string
	StartTimeout time.Duration
}

// DefaultDockerTestConfig returns defaults for the MySQL test container.
func DefaultDockerTestConfig() DockerTestConfig {
	return DockerTestConfig{
		MySQLVersion: "8.0",
		Database:     "testdb",
		Username:     "testuser",
		Password:     "testpass",
		StartTimeout: 60 * time.Second,
	}
}

// DockerTestsEnabled reports whether dockerized integration tests are opted
// in via SQLKIT_DOCKER_TESTS.
func DockerTestsEnabled() bool {
	return os.Getenv("SQLKIT_DOCKER_TESTS") == "1"
}

// NewDockerTestHelper starts a MySQL container and opens a pool against it.
func NewDockerTestHelper(ctx context.Context) (*DockerTestHelper, error) {
	return NewDockerTestHelperWithConfig(ctx, DefaultDockerTestConfig())
}

// NewDockerTestHelperWithConfig starts a MySQL container with custom settings.
func NewDockerTestHelperWithConfig(ctx context.Context, config DockerTestConfig) (*DockerTestHelper, error) {
	container, err := tcmysql.Run(ctx,
		"mysql:"+config.MySQLVersion,
		tcmysql.WithDatabase(config.Database),
		tcmysql.WithUsername(config.Username),
		tcmysql.WithPassword(config.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("port: 3306  MySQL Community Server").
				WithOccurrence(1).
				WithStartupTimeout(config.StartTimeout),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start MySQL container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "3306")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("container port: %w", err)
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		config.Username, config.Password, host, port.Int(), config.Database)
	pool, err := NewPool(ctx, Config{Driver: "mysql", DSN: dsn})
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("open pool against container: %w", err)
	}

	return &DockerTestHelper{container: container, pool: pool, dsn: dsn}, nil
}

// Pool returns the pool connected to the container.
func (h *DockerTestHelper) Pool() *Pool { return h.pool }

// DSN returns the container's DSN.
func (h *DockerTestHelper) DSN() string { return h.dsn }

// Close shuts down the pool and terminates the container.
func (h *DockerTestHelper) Close(ctx context.Context) error {
	if h.pool != nil {
		h.pool.Close()
	}
	if h.container != nil {
		return h.container.Terminate(ctx)
	}
	return nil
}

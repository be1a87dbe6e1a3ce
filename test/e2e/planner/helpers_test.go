package planner_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/fastplanner/planner/pkg/plannersdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common helpers for the planner API end-to-end tests: the container
 * lifecycle and a few assertions.
 */

const (
	testImageName = "planner-api-test:latest"

	testPassword = "correct horse battery"
)

// TestMain builds the Docker image once before all tests and removes it
// after they complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building planner API Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up planner API Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/api/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // image might not exist
}

// baseEnv is the container environment. Rate limits are relaxed because
// tests make many rapid requests from one address.
func baseEnv() map[string]string {
	return map[string]string{
		"JWT_SECRET":              "e2e-secret-0123456789abcdef",
		"ENV":                     "test",
		"LOG_LEVEL":               "info",
		"LOG_FORMAT":              "json",
		"MAIL_PROVIDER":           "log",
		"RATELIMIT_AUTH_REQUESTS": "1000",
		"RATELIMIT_AUTH_WINDOW":   "60s",
		"RATELIMIT_AUTH_BURST":    "1000",
		"RATELIMIT_API_REQUESTS":  "1000",
		"RATELIMIT_API_BURST":     "1000",
	}
}

// setupContainer starts the API and returns its base URL.
func setupContainer(t *testing.T) (string, func()) {
	t.Helper()
	return startContainer(t, baseEnv())
}

// setupContainerWithDefaultRateLimits keeps the production limits, for
// tests of the limiter itself.
func setupContainerWithDefaultRateLimits(t *testing.T) (string, func()) {
	t.Helper()
	env := baseEnv()
	for _, k := range []string{
		"RATELIMIT_AUTH_REQUESTS", "RATELIMIT_AUTH_WINDOW", "RATELIMIT_AUTH_BURST",
		"RATELIMIT_API_REQUESTS", "RATELIMIT_API_BURST",
	} {
		delete(env, k)
	}
	return startContainer(t, env)
}

func startContainer(t *testing.T, env map[string]string) (string, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/readyz").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

func register(t *testing.T, client *plannersdk.SDKClient, name, email string) *plannersdk.Session {
	t.Helper()
	sess, err := client.Register(t.Context(), plannersdk.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: testPassword,
	})
	require.NoError(t, err)
	return sess
}

// assertAPIError checks the status and machine-readable code of err.
func assertAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var apiErr *plannersdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode, apiErr.Error())
	require.Equal(t, code, apiErr.Code)
}

func assertHealthy(t *testing.T, health *plannersdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}

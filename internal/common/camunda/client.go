// internal/common/camunda/client.go
package camunda

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"room-redesign-workers/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Client wraps the Zeebe gRPC client with connection checks and retry on
// transient broker errors. Job handlers never go through this retry path.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
	RetryConfig            *RetryConfig
}

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   10 * time.Second,
}

func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultRetryConfig
	}
	if config.ConnectionTimeout <= 0 {
		config.ConnectionTimeout = 10 * time.Second
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, config: config}

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectionTimeout)
	defer cancel()

	if err := c.HealthCheck(ctx); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", config.GatewayAddress, err)
	}

	return c, nil
}

func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// ExecuteWithRetry runs commandFunc, backing off exponentially while the
// broker reports a transient condition.
func (c *Client) ExecuteWithRetry(
	ctx context.Context,
	commandFunc func(context.Context) (interface{}, error),
	operationName string,
) (interface{}, error) {
	retry := c.config.RetryConfig
	var lastErr error

	for attempt := 0; attempt <= retry.MaxRetries; attempt++ {
		result, err := c.attempt(ctx, commandFunc)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isTransient(err) || attempt == retry.MaxRetries {
			return nil, classify(err, operationName, attempt+1)
		}

		select {
		case <-time.After(backoff(retry, attempt)):
		case <-ctx.Done():
			return nil, fmt.Errorf("zeebe %s cancelled after %d attempts: %w", operationName, attempt+1, ctx.Err())
		}
	}

	return nil, classify(lastErr, operationName, retry.MaxRetries+1)
}

// DeployResources deploys every BPMN file in paths with one command.
func (c *Client) DeployResources(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	_, err := c.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		cmd := c.client.NewDeployResourceCommand().AddResourceFile(paths[0])
		for _, path := range paths[1:] {
			cmd = cmd.AddResourceFile(path)
		}
		return cmd.Send(ctx)
	}, "deploy")
	if err != nil {
		return fmt.Errorf("deploy %s: %w", strings.Join(paths, ", "), err)
	}
	return nil
}

// HealthCheck asks the gateway for its topology. Used by /ready.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		return c.client.NewTopologyCommand().Send(ctx)
	}, "topology")
	if err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, commandFunc func(context.Context) (interface{}, error)) (interface{}, error) {
	if c.config.RequestTimeout <= 0 {
		return commandFunc(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()
	return commandFunc(ctx)
}

func backoff(retry *RetryConfig, attempt int) time.Duration {
	delay := retry.BaseDelay * time.Duration(1<<attempt)
	if delay > retry.MaxDelay {
		return retry.MaxDelay
	}
	return delay
}

// isTransient prefers the gRPC status code and falls back to the message for
// errors that were wrapped without one.
func isTransient(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
			return true
		default:
			return false
		}
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range []string{"connection refused", "connection reset", "timeout", "deadline exceeded", "unavailable", "broken pipe"} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

func classify(err error, operation string, attempts int) error {
	cause := fmt.Errorf("zeebe %s failed after %d attempts: %s", operation, attempts, err.Error())
	if attempts == 1 {
		cause = fmt.Errorf("zeebe %s failed: %s", operation, err.Error())
	}

	code := status.Code(err)
	if code == codes.DeadlineExceeded || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewTimeoutError("zeebe", cause)
	}
	return errors.NewExternalServiceError("zeebe", cause)
}

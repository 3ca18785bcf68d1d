package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/andrescamacho/shippingmanager-go/internal/application/common"
)

// ServerOptions carries the optional parts of the daemon service
type ServerOptions struct {
	// CircuitState reports the bridge breaker state in Status responses
	CircuitState func() string
	Logger       common.Logger
}

// DaemonServer serves the autopilot service on a Unix domain socket
type DaemonServer struct {
	socketPath string
	listener   net.Listener
	grpcServer *grpc.Server
	logger     common.Logger
}

// NewDaemonServer binds the socket and registers the service.
// lifetime bounds controller runs started over RPC and open event streams.
func NewDaemonServer(
	lifetime context.Context,
	controller Autopilot,
	events EventSource,
	socketPath string,
	opts ServerOptions,
) (*DaemonServer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = common.LoggerFromContext(context.Background())
	}

	// Remove a socket left behind by a previous run
	if err := os.RemoveAll(socketPath); err != nil {
		return nil, fmt.Errorf("failed to remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create unix socket listener: %w", err)
	}

	// Owner only
	if err := os.Chmod(socketPath, 0600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(logger)))
	RegisterAutopilotServiceServer(grpcServer, &autopilotService{
		lifetime:     lifetime,
		controller:   controller,
		events:       events,
		circuitState: opts.CircuitState,
	})

	return &DaemonServer{
		socketPath: socketPath,
		listener:   listener,
		grpcServer: grpcServer,
		logger:     logger,
	}, nil
}

// SocketPath returns where the server listens
func (s *DaemonServer) SocketPath() string {
	return s.socketPath
}

// Serve blocks until the server is stopped
func (s *DaemonServer) Serve() error {
	s.logger.Log(common.LevelInfo, "Daemon listening", map[string]interface{}{"socket": s.socketPath})
	if err := s.grpcServer.Serve(s.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc server error: %w", err)
	}
	return nil
}

// Shutdown drains in-flight RPCs, forcing a hard stop when ctx ends first.
// The socket file is removed either way.
func (s *DaemonServer) Shutdown(ctx context.Context) error {
	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	var stopErr error
	select {
	case <-stopped:
	case <-ctx.Done():
		s.logger.Log(common.LevelWarn, "Graceful shutdown timed out, forcing stop", nil)
		s.grpcServer.Stop()
		<-stopped
		stopErr = fmt.Errorf("graceful shutdown timed out: %w", ctx.Err())
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return errors.Join(stopErr, fmt.Errorf("failed to remove socket: %w", err))
	}
	return stopErr
}

func loggingInterceptor(logger common.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		meta := map[string]interface{}{
			"method":      info.FullMethod,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if err != nil {
			meta["code"] = status.Code(err).String()
			meta["error"] = err.Error()
			logger.Log(common.LevelWarn, "RPC failed", meta)
		} else {
			logger.Log(common.LevelDebug, "RPC handled", meta)
		}
		return resp, err
	}
}

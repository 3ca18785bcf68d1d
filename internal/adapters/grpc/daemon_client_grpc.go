package grpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// DaemonClient talks to a running daemon over its Unix socket
type DaemonClient struct {
	conn *grpc.ClientConn
}

// NewDaemonClient prepares a connection to socketPath (e.g. "/tmp/shipman-daemon.sock").
// The connection is established lazily on the first call.
func NewDaemonClient(socketPath string) (*DaemonClient, error) {
	conn, err := grpc.NewClient(
		"unix:"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon socket: %w", err)
	}
	return &DaemonClient{conn: conn}, nil
}

// Close closes the gRPC connection
func (c *DaemonClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *DaemonClient) invoke(ctx context.Context, method string, out interface{}) error {
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod(method), &emptypb.Empty{}, resp); err != nil {
		return err
	}
	return decodeView(resp, out)
}

func (c *DaemonClient) statusCall(ctx context.Context, method string) (*StatusView, error) {
	var view StatusView
	if err := c.invoke(ctx, method, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Status returns the controller state, session counters and last cycle
func (c *DaemonClient) Status(ctx context.Context) (*StatusView, error) {
	return c.statusCall(ctx, methodStatus)
}

// Start begins the autopilot loop
func (c *DaemonClient) Start(ctx context.Context) (*StatusView, error) {
	return c.statusCall(ctx, methodStart)
}

// Stop halts the autopilot loop
func (c *DaemonClient) Stop(ctx context.Context) (*StatusView, error) {
	return c.statusCall(ctx, methodStop)
}

// ResetSession zeroes the session counters
func (c *DaemonClient) ResetSession(ctx context.Context) (*StatusView, error) {
	return c.statusCall(ctx, methodResetSession)
}

// RunNow runs one cycle immediately and waits for it to finish
func (c *DaemonClient) RunNow(ctx context.Context) (*CycleView, error) {
	var view CycleView
	if err := c.invoke(ctx, methodRunNow, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Refresh reads bunker and prices without acting on them
func (c *DaemonClient) Refresh(ctx context.Context) (*RefreshView, error) {
	var view RefreshView
	if err := c.invoke(ctx, methodRefresh, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Subscribe streams controller events until ctx ends or the daemon goes away.
// The returned channel is closed when the stream ends; the error channel
// then yields the reason, or nothing on a clean end.
func (c *DaemonClient) Subscribe(ctx context.Context) (<-chan EventView, <-chan error, error) {
	desc := &autopilotServiceDesc.Streams[0]
	stream, err := c.conn.NewStream(ctx, desc, fullMethod(methodSubscribe))
	if err != nil {
		return nil, nil, err
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, nil, err
	}

	events := make(chan EventView)
	errs := make(chan error, 1)
	go func() {
		defer close(events)
		defer close(errs)
		for {
			msg := new(structpb.Struct)
			if err := stream.RecvMsg(msg); err != nil {
				if !errors.Is(err, io.EOF) && status.Code(err) != codes.Canceled {
					errs <- err
				}
				return
			}
			var event EventView
			if err := decodeView(msg, &event); err != nil {
				errs <- err
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, errs, nil
}

// ErrorMessage renders an RPC error for a terminal, hinting at a missing
// daemon when the socket did not answer
func ErrorMessage(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return err.Error()
	}
	if st.Code() == codes.Unavailable && st.Message() != "" && isTransportError(st.Message()) {
		return "daemon not reachable (is shipman-daemon running?): " + st.Message()
	}
	return st.Message()
}

func isTransportError(msg string) bool {
	return strings.Contains(msg, "connection error") || strings.Contains(msg, "connect:")
}

package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/andrescamacho/shippingmanager-go/internal/application/autopilot"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/ledger"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
)

// subscribeBuffer is how many events a slow watcher may lag behind
const subscribeBuffer = 128

// Autopilot is the controller surface the daemon exposes
type Autopilot interface {
	Start(ctx context.Context) error
	Stop() error
	Status() autopilot.StatusReport
	RunNow(ctx context.Context) (*autopilot.CycleSummary, error)
	ResetSession() ledger.SessionTotals
	Refresh(ctx context.Context) (*bunker.BunkerSnapshot, *bunker.PriceQuote, error)
}

// EventSource hands out event subscriptions
type EventSource interface {
	Subscribe(buffer int) (<-chan autopilot.Event, func())
}

// autopilotService implements AutopilotServiceServer over a controller
type autopilotService struct {
	// lifetime is the daemon context; Start must not inherit the RPC deadline
	lifetime     context.Context
	controller   Autopilot
	events       EventSource
	circuitState func() string
}

var _ AutopilotServiceServer = (*autopilotService)(nil)

func (s *autopilotService) status() (*structpb.Struct, error) {
	view := statusView(s.controller.Status())
	if s.circuitState != nil {
		view.CircuitState = s.circuitState()
	}
	return encodeView(view)
}

func (s *autopilotService) Status(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.status()
}

func (s *autopilotService) Start(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.controller.Start(s.lifetime); err != nil {
		return nil, toStatusError(err)
	}
	return s.status()
}

func (s *autopilotService) Stop(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.controller.Stop(); err != nil {
		return nil, toStatusError(err)
	}
	return s.status()
}

func (s *autopilotService) RunNow(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	summary, err := s.controller.RunNow(ctx)
	if err != nil {
		return nil, toStatusError(err)
	}
	return encodeView(cycleView(summary))
}

func (s *autopilotService) ResetSession(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s.controller.ResetSession()
	return s.status()
}

func (s *autopilotService) Refresh(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snapshot, quote, err := s.controller.Refresh(ctx)
	if err != nil {
		return nil, toStatusError(err)
	}
	return encodeView(RefreshView{Bunker: bunkerView(snapshot), Prices: pricesView(quote)})
}

func (s *autopilotService) Subscribe(_ *emptypb.Empty, stream EventStream) error {
	if s.events == nil {
		return status.Error(codes.Unimplemented, "event stream not available")
	}
	events, cancel := s.events.Subscribe(subscribeBuffer)
	defer cancel()

	for {
		select {
		case <-stream.Context().Done():
			return nil
		case <-s.lifetime.Done():
			return status.Error(codes.Unavailable, "daemon shutting down")
		case event, ok := <-events:
			if !ok {
				return nil
			}
			msg, err := encodeView(eventView(event))
			if err != nil {
				return status.Error(codes.Internal, err.Error())
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

// toStatusError maps controller and bridge errors onto gRPC codes
func toStatusError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, autopilot.ErrAlreadyRunning), errors.Is(err, autopilot.ErrNotRunning):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, autopilot.ErrCycleAlreadyQueued):
		return status.Error(codes.ResourceExhausted, err.Error())
	case shared.IsBridgeUnavailable(err):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

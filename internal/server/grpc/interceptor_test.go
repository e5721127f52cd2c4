package grpc

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/taskline/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type recordingLogger struct {
	logging.Logger
	msgs []string
	args [][]any
}

func (r *recordingLogger) Debug(_ context.Context, msg string, args ...any) {
	r.msgs = append(r.msgs, msg)
	r.args = append(r.args, args)
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	log := &recordingLogger{Logger: logging.Nop()}
	s := &HealthServer{logger: log}

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	resp, err := s.loggingInterceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
	if len(log.msgs) != 1 {
		t.Fatalf("expected one log line, got %d", len(log.msgs))
	}
	if log.args[0][1] != info.FullMethod || log.args[0][3] != codes.OK.String() {
		t.Fatalf("unexpected log args: %v", log.args[0])
	}
}

func TestLoggingInterceptor_ReturnsHandlerError(t *testing.T) {
	log := &recordingLogger{Logger: logging.Nop()}
	s := &HealthServer{logger: log}

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	_, err := s.loggingInterceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.NotFound, "unknown service")
	})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if log.args[0][3] != codes.NotFound.String() {
		t.Fatalf("unexpected code logged: %v", log.args[0][3])
	}
}

package server

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var grpcAttrs = metric.WithAttributes(attribute.String("protocol", "grpc"))

func grpcMid(log zerolog.Logger, latency metric.Int64Histogram) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		t := time.Now()
		defer func() {
			d := time.Since(t)
			latency.Record(ctx, d.Milliseconds(), grpcAttrs)

			log.Debug().
				Str("method", info.FullMethod).
				Stringer("code", status.Code(err)).
				Dur("dur", d).
				Msg("served")
		}()

		return handler(ctx, req)
	}
}

package rollout

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var requestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "symsched",
		Subsystem: "rollout",
		Name:      "requests_total",
		Help:      "Number of remote rollout requests, by status code",
	},
	[]string{"code"},
)

// Requests rollouts from a remote rollout service
type Client struct {
	conn *grpc.ClientConn
}

// Connect to the rollout service at target.
// The connection is insecure unless opts provide other transport credentials.
func Dial(target string, log *zap.Logger, opts ...grpc.DialOption) (*Client, error) {
	defaults := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(UnaryClientInterceptor(log)),
	}
	conn, err := grpc.NewClient(target, append(defaults, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Evaluate(ctx context.Context, req Request) (float64, error) {
	in, err := req.toStruct()
	if err != nil {
		return 0, err
	}
	out := new(wrapperspb.DoubleValue)
	if err := c.conn.Invoke(ctx, evaluateMethod, in, out); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Create a UnaryClientInterceptor that logs every rollout request and counts it by status code
func UnaryClientInterceptor(log *zap.Logger) grpc.UnaryClientInterceptor {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		code := status.Code(err)
		requestsTotal.WithLabelValues(code.String()).Inc()
		log.Debug("rollout request",
			zap.String("method", method),
			zap.Duration("elapsed", time.Since(start)),
			zap.Stringer("code", code),
		)
		return err
	}
}

package grpcapi

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Client calls the ops service. Credentials are attached per call.
type Client struct {
	cc     grpc.ClientConnInterface
	conn   *grpc.ClientConn
	opsKey string
	token  string
}

// Dial connects to addr (e.g. "localhost:50051") without TLS; the ops port
// is meant to stay on the private network.
func Dial(addr string, opts ...ClientOption) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	c := NewClient(conn, opts...)
	c.conn = conn
	return c, nil
}

func NewClient(cc grpc.ClientConnInterface, opts ...ClientOption) *Client {
	c := &Client{cc: cc}
	for _, o := range opts {
		o(c)
	}
	return c
}

type ClientOption func(*Client)

func WithOpsKey(key string) ClientOption { return func(c *Client) { c.opsKey = key } }

func WithToken(token string) ClientOption { return func(c *Client) { c.token = token } }

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	md := metadata.MD{}
	if c.opsKey != "" {
		md.Set("x-ops-key", c.opsKey)
	}
	if c.token != "" {
		md.Set("authorization", "Bearer "+c.token)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *Client) RunReminders(ctx context.Context) error {
	return c.cc.Invoke(c.outgoing(ctx), MethodRunReminders, &emptypb.Empty{}, &emptypb.Empty{})
}

// GetDashboard fetches the dashboard; a zero asOf means now.
func (c *Client) GetDashboard(ctx context.Context, asOf time.Time) (*structpb.Struct, error) {
	in := &timestamppb.Timestamp{}
	if !asOf.IsZero() {
		in = timestamppb.New(asOf)
	}
	out := &structpb.Struct{}
	if err := c.cc.Invoke(c.outgoing(ctx), MethodGetDashboard, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

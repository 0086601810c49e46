package geyser

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strings"
	"time"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

const maxRecvMsgSize = 1024 * 1024 * 1024

// Config describes how to reach a geyser endpoint.
type Config struct {
	Endpoint string
	Token    string
	Insecure bool
}

// Stream is the bidirectional subscription stream.
type Stream interface {
	Send(*pb.SubscribeRequest) error
	Recv() (*pb.SubscribeUpdate, error)
	CloseSend() error
}

// Subscriber opens subscription streams over one connection.
type Subscriber interface {
	Subscribe(ctx context.Context) (Stream, error)
	Close() error
}

// Dialer opens a fresh connection for each stream session.
type Dialer func(ctx context.Context) (Subscriber, error)

// Client wraps the gRPC connection and the generated geyser client.
type Client struct {
	conn   *grpc.ClientConn
	geyser pb.GeyserClient
}

// NewClient creates a client for the configured endpoint. The connection is
// established lazily on the first RPC.
func NewClient(_ context.Context, cfg Config) (*Client, error) {
	target, useTLS, err := parseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	if cfg.Insecure {
		useTLS = false
	}

	opts := []grpc.DialOption{
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second,
			Timeout:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(maxRecvMsgSize)),
	}
	if useTLS {
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	if cfg.Token != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(tokenAuth{token: cfg.Token, secure: useTLS}))
	}

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("create grpc client: %w", err)
	}

	return &Client{
		conn:   conn,
		geyser: pb.NewGeyserClient(conn),
	}, nil
}

// NewDialer returns a Dialer that builds a new Client per session.
func NewDialer(cfg Config) Dialer {
	return func(ctx context.Context) (Subscriber, error) {
		return NewClient(ctx, cfg)
	}
}

// Subscribe opens the bidirectional subscription stream.
func (c *Client) Subscribe(ctx context.Context) (Stream, error) {
	return c.geyser.Subscribe(ctx)
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// parseEndpoint accepts either a URL (https://host[:port]) or a bare
// host:port and returns the gRPC target and whether TLS should be used.
func parseEndpoint(endpoint string) (string, bool, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", false, fmt.Errorf("geyser endpoint is required")
	}
	if !strings.Contains(endpoint, "://") {
		return endpoint, true, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("endpoint %q has no host", endpoint)
	}

	switch u.Scheme {
	case "https":
		if u.Port() == "" {
			return u.Host + ":443", true, nil
		}
		return u.Host, true, nil
	case "http":
		if u.Port() == "" {
			return u.Host + ":80", false, nil
		}
		return u.Host, false, nil
	default:
		return "", false, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
}

// tokenAuth attaches the x-token header expected by geyser providers.
type tokenAuth struct {
	token  string
	secure bool
}

func (t tokenAuth) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"x-token": t.token}, nil
}

func (t tokenAuth) RequireTransportSecurity() bool {
	return t.secure
}

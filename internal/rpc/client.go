package rpc

import (
	"context"

	"connectrpc.com/connect"
)

// Client calls the settleup procedures of a server with the JSON codec.
type Client struct {
	httpClient connect.HTTPClient
	baseURL    string
	opts       []connect.ClientOption
}

func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		opts:       append([]connect.ClientOption{WithJSON()}, opts...),
	}
}

// Call invokes a unary procedure and returns its response message.
func Call[Req, Res any](ctx context.Context, c *Client, procedure string, msg *Req) (*Res, error) {
	client := connect.NewClient[Req, Res](c.httpClient, c.baseURL+procedure, c.opts...)
	resp, err := client.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

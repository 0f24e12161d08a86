// Package rpc exposes the group and ledger services as Connect unary
// procedures. Messages are plain Go structs encoded as JSON; there is no
// generated code.
package rpc

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec replaces Connect's protobuf JSON codec, which only accepts
// proto.Message values.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// WithJSON selects the JSON codec on a handler or client.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}

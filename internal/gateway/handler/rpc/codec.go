package rpc

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec replaces connect's protobuf JSON codec so procedures can carry
// plain Go structs.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// Codec is the option clients need to talk to these handlers.
func Codec() connect.Option { return connect.WithCodec(jsonCodec{}) }

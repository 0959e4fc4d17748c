package todov1

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
)

const (
	// ProtoCodecName is the default gRPC content-subtype
	// ("application/grpc+proto"); todo messages use the todo.proto wire format.
	ProtoCodecName = "proto"
	// JSONCodecName selects JSON bodies ("application/grpc+json").
	JSONCodecName = "json"
)

func init() {
	encoding.RegisterCodec(ProtoCodec{})
	encoding.RegisterCodec(JSONCodec{})
}

// wireMessage is implemented by every todo message; see wire.go.
type wireMessage interface {
	appendWire(b []byte) []byte
	unmarshalWire(b []byte) error
}

// ProtoCodec replaces the process-wide "proto" codec. Todo messages are
// encoded with protowire; any other proto.Message (the health service, for
// one) goes through the regular protobuf runtime.
type ProtoCodec struct{}

func (ProtoCodec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case wireMessage:
		return m.appendWire(nil), nil
	case proto.Message:
		return proto.Marshal(m)
	}
	return nil, fmt.Errorf("todov1: cannot marshal %T as protobuf", v)
}

func (ProtoCodec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case wireMessage:
		if err := m.unmarshalWire(data); err != nil {
			return fmt.Errorf("todov1: unmarshal %T: %w", v, err)
		}
		return nil
	case proto.Message:
		return proto.Unmarshal(data, m)
	}
	return fmt.Errorf("todov1: cannot unmarshal protobuf into %T", v)
}

func (ProtoCodec) Name() string { return ProtoCodecName }

// JSONCodec marshals todo messages as JSON on the gRPC wire. Clients opt in
// with grpc.CallContentSubtype(JSONCodecName).
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("todov1: marshal %T: %w", v, err)
	}
	return b, nil
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("todov1: unmarshal %T: %w", v, err)
	}
	return nil
}

func (JSONCodec) Name() string { return JSONCodecName }

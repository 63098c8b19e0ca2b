package codec

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrNotProto      = errors.New("codec: value is neither a proto.Message nor a Fielder")
	ErrUnknownFormat = errors.New("codec: unknown format")
)

// Serializer turns outbound values into message payloads.
type Serializer interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	ContentType() string
}

// Fielder is implemented by values that can flatten themselves into a
// protobuf Struct.
type Fielder interface {
	Fields() map[string]any
}

// ForFormat returns the serializer named by a config value.
func ForFormat(format string) (Serializer, error) {
	switch format {
	case "", "json":
		return JSONSerializer{}, nil
	case "proto", "protobuf":
		return ProtoSerializer{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ---------- JSON ----------

type JSONSerializer struct{}

func (JSONSerializer) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONSerializer) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (JSONSerializer) ContentType() string { return "application/json" }

// ---------- Protobuf ----------

type ProtoSerializer struct{}

func (ProtoSerializer) Encode(v any) ([]byte, error) {
	msg, err := toMessage(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(msg)
}

// Decode fills v, which must be a proto.Message.
func (ProtoSerializer) Decode(data []byte, v any) error {
	msg, ok := v.(proto.Message)
	if !ok {
		return ErrNotProto
	}
	return proto.Unmarshal(data, msg)
}

func (ProtoSerializer) ContentType() string { return "application/x-protobuf" }

func toMessage(v any) (proto.Message, error) {
	switch m := v.(type) {
	case proto.Message:
		return m, nil
	case Fielder:
		s, err := structpb.NewStruct(m.Fields())
		if err != nil {
			return nil, fmt.Errorf("codec: build struct: %w", err)
		}
		return s, nil
	default:
		return nil, ErrNotProto
	}
}

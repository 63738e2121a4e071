package transport

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"sim-bridge/internal/model"
)

// Codec serializes envelopes for the wire. The document is self-describing;
// readers ignore unknown fields for forward compatibility.
type Codec interface {
	Name() string
	Ext() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Ext() string { return ".json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return "msgpack" }

func (msgpackCodec) Ext() string { return ".msgpack" }

func (msgpackCodec) Marshal(v any) ([]byte, error) { return msgpack.Marshal(v) }

func (msgpackCodec) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }

func NewCodec(name string) (Codec, error) {
	switch name {
	case "", "json":
		return jsonCodec{}, nil
	case "msgpack":
		return msgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported wire codec %q", name)
	}
}

// encodeEnvelope marshals an envelope, degrading to the payload-free minimal
// document when the payload cannot be serialized. The send never fails on a
// serialization error alone.
func encodeEnvelope(c Codec, env model.Envelope) ([]byte, error) {
	data, err := c.Marshal(env)
	if err == nil {
		return data, nil
	}
	return c.Marshal(env.Minimal())
}

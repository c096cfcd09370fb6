package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	cbor "github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec serializes envelopes and payloads. The set of codecs is closed to
// this package; obtain one with LookupCodec or its constructor.
type Codec interface {
	// Name returns the codec identifier (e.g. "msgpack", "json", "cbor").
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error

	decodeRequest(frame []byte) (*Request, error)
}

// Codec names accepted by LookupCodec.
const (
	CodecMsgpack = "msgpack"
	CodecJSON    = "json"
	CodecCBOR    = "cbor"
)

// LookupCodec returns a codec by name. An empty name selects msgpack.
func LookupCodec(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case CodecMsgpack, "":
		return Msgpack(), nil
	case CodecJSON:
		return JSON(), nil
	case CodecCBOR:
		return CBOR()
	default:
		return nil, fmt.Errorf("protocol: unknown codec %q", name)
	}
}

type msgpackCodec struct{}

// Msgpack returns a MessagePack codec.
func Msgpack() Codec { return msgpackCodec{} }

func (msgpackCodec) Name() string                       { return CodecMsgpack }
func (msgpackCodec) Marshal(v any) ([]byte, error)      { return msgpack.Marshal(v) }
func (msgpackCodec) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }

func (msgpackCodec) decodeRequest(frame []byte) (*Request, error) {
	var env struct {
		ID      uint64             `msgpack:"id"`
		Type    Kind               `msgpack:"type"`
		Payload msgpack.RawMessage `msgpack:"payload"`
	}
	if err := msgpack.Unmarshal(frame, &env); err != nil {
		return nil, err
	}
	return &Request{ID: env.ID, Type: env.Type, Body: env.Payload}, nil
}

type jsonCodec struct{}

// JSON returns a JSON codec (RFC 8259). Byte slices travel as base64.
func JSON() Codec { return jsonCodec{} }

func (jsonCodec) Name() string                       { return CodecJSON }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (jsonCodec) decodeRequest(frame []byte) (*Request, error) {
	var env struct {
		ID      uint64          `json:"id"`
		Type    Kind            `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, err
	}
	return &Request{ID: env.ID, Type: env.Type, Body: env.Payload}, nil
}

type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// CBOR returns a deterministic CBOR codec (RFC 8949) with the canonical
// encoding profile.
func CBOR() (Codec, error) {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, err
	}
	return cborCodec{enc: em, dec: dm}, nil
}

func (c cborCodec) Name() string                       { return CodecCBOR }
func (c cborCodec) Marshal(v any) ([]byte, error)      { return c.enc.Marshal(v) }
func (c cborCodec) Unmarshal(data []byte, v any) error { return c.dec.Unmarshal(data, v) }

func (c cborCodec) decodeRequest(frame []byte) (*Request, error) {
	var env struct {
		ID      uint64          `cbor:"id"`
		Type    Kind            `cbor:"type"`
		Payload cbor.RawMessage `cbor:"payload"`
	}
	if err := c.dec.Unmarshal(frame, &env); err != nil {
		return nil, err
	}
	return &Request{ID: env.ID, Type: env.Type, Body: env.Payload}, nil
}

package protocol

import "fmt"

// Kind tags the type of a request.
type Kind string

const (
	// KindGenerateBiomes asks a worker for the RGB image of one chunk.
	KindGenerateBiomes Kind = "generateBiomes"
)

// Kinds lists every request kind a worker understands.
func Kinds() []Kind {
	return []Kind{KindGenerateBiomes}
}

// Payload is the typed body of a request. The set of implementations is
// closed to this package.
type Payload interface {
	// Kind returns the request tag the payload travels under.
	Kind() Kind
	sealed()
}

// Default values applied by GenerateBiomes.WithDefaults.
const (
	DefaultPix4Cell  = 4
	DefaultZoomLevel = 4
)

// GenerateBiomes requests the biome image of the chunk whose origin is the
// domain coordinate (X, Z).
type GenerateBiomes struct {
	Seed      uint64 `json:"seed" msgpack:"seed" cbor:"seed"`
	X         int    `json:"x" msgpack:"x" cbor:"x"`
	Z         int    `json:"z" msgpack:"z" cbor:"z"`
	Y         int    `json:"y" msgpack:"y" cbor:"y"`
	Pix4Cell  int    `json:"pix4cell" msgpack:"pix4cell" cbor:"pix4cell"`
	ZoomLevel int    `json:"zoomLevel" msgpack:"zoomLevel" cbor:"zoomLevel"`
}

// Kind implements Payload.
func (GenerateBiomes) Kind() Kind { return KindGenerateBiomes }

func (GenerateBiomes) sealed() {}

// WithDefaults returns a copy of g where unset Pix4Cell and ZoomLevel take
// their default values. Y defaults to zero, which is already its zero value.
func (g GenerateBiomes) WithDefaults() GenerateBiomes {
	if g.Pix4Cell <= 0 {
		g.Pix4Cell = DefaultPix4Cell
	}
	if g.ZoomLevel <= 0 {
		g.ZoomLevel = DefaultZoomLevel
	}
	return g
}

// UnknownKindError is returned when a request carries a tag outside Kinds.
type UnknownKindError struct {
	Kind Kind
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown message type: %s", e.Kind)
}

// Request is a request envelope as a worker receives it. Body holds the
// payload object still encoded in the codec's format, so a payload that
// fails to decode can still be answered under ID.
type Request struct {
	ID   uint64
	Type Kind
	Body []byte
}

// requestEnvelope is the wire shape of a request: {id, type, payload}. The
// payload travels as a nested object, not as an opaque byte string.
type requestEnvelope struct {
	ID      uint64  `json:"id" msgpack:"id" cbor:"id"`
	Type    Kind    `json:"type" msgpack:"type" cbor:"type"`
	Payload Payload `json:"payload" msgpack:"payload" cbor:"payload"`
}

// EncodeRequest encodes the request frame for payload under id.
func EncodeRequest(c Codec, id uint64, payload Payload) ([]byte, error) {
	frame, err := c.Marshal(requestEnvelope{ID: id, Type: payload.Kind(), Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s request %d: %w", payload.Kind(), id, err)
	}
	return frame, nil
}

// DecodeRequest decodes a request frame without decoding its payload; see
// DecodePayload.
func DecodeRequest(c Codec, frame []byte) (*Request, error) {
	req, err := c.decodeRequest(frame)
	if err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

// DecodePayload maps a request's kind and encoded payload object back to
// its typed payload.
func DecodePayload(c Codec, kind Kind, body []byte) (Payload, error) {
	switch kind {
	case KindGenerateBiomes:
		var p GenerateBiomes
		if err := c.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
		return p, nil
	default:
		return nil, &UnknownKindError{Kind: kind}
	}
}

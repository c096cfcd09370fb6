// Package protocol defines the message boundary between a worker pool and
// its workers.
//
// Three message shapes cross the boundary:
//
//   - Ready:    {ready: true}, sent exactly once per worker before any response
//   - Request:  {id, type, payload}, where payload is an object
//   - Response: {id, payload} on success, {id, error} on failure
//
// Ready and Response are carried by the Message envelope. Requests are built
// by EncodeRequest and read back by DecodeRequest.
//
// Envelopes are serialized with a Codec (msgpack by default, JSON and CBOR
// are also available). Stream transports such as subprocess pipes wrap each
// encoded envelope in a length-prefixed frame (see WriteFrame and ReadFrame).
//
// Request kinds form a closed set: every kind has a Payload type, and
// DecodePayload is the single place where a kind is mapped back to its
// payload.
package protocol

// Package codec abstracts the encodings agora uses: JSON on the wire and
// over HTTP, CBOR for documents at rest.
package codec

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-json"
)

type Marshaler interface {
	Marshal(v any) ([]byte, error)
}

type Unmarshaler interface {
	Unmarshal(data []byte, dst any) error
}

// JSON marshals with goccy/go-json.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSON) Unmarshal(data []byte, dst any) error {
	return json.Unmarshal(data, dst)
}

// CBOR marshals with fxamacker/cbor.
type CBOR struct{}

func (CBOR) Marshal(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

func (CBOR) Unmarshal(data []byte, dst any) error {
	return cbor.Unmarshal(data, dst)
}

var (
	_ Marshaler   = JSON{}
	_ Unmarshaler = JSON{}
	_ Marshaler   = CBOR{}
	_ Unmarshaler = CBOR{}
)

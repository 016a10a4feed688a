// Package bson provides a BSON codec implementation.
package bson

import (
	"github.com/zoobzio/aspect"
	"go.mongodb.org/mongo-driver/bson"
)

// envelopeKey names the field holding the encoded value.
const envelopeKey = "v"

// bsonCodec implements aspect.Codec for BSON.
type bsonCodec struct{}

// New returns a BSON codec.
//
// BSON documents must be maps or structs, while invocation data includes
// scalars and slices, so every value is stored under a single "v" field of
// an enclosing document.
func New() aspect.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// Marshal encodes v as the "v" field of a BSON document.
func (c *bsonCodec) Marshal(v any) ([]byte, error) {
	return bson.Marshal(bson.D{{Key: envelopeKey, Value: v}})
}

// Unmarshal decodes the "v" field of a BSON document into v.
func (c *bsonCodec) Unmarshal(data []byte, v any) error {
	raw := bson.Raw(data)
	if err := raw.Validate(); err != nil {
		return err
	}
	val, err := raw.LookupErr(envelopeKey)
	if err != nil {
		return err
	}
	return val.Unmarshal(v)
}

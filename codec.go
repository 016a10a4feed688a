package aspect

// Codec provides content-type aware marshaling for invocation data that
// leaves the process: cache entries, event payloads and logged arguments.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

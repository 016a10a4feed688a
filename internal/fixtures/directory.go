package fixtures

import "context"

// TagKey is the context key TaggedDirectory reads.
type TagKey struct{}

// Directory takes its context after the id, so the context is an
// ordinary argument rather than the invocation context.
type Directory interface {
	Find(id string, ctx context.Context) (string, error)
}

// TaggedDirectory answers "id:tag", the tag coming from ctx.
type TaggedDirectory struct{}

func (TaggedDirectory) Find(id string, ctx context.Context) (string, error) {
	if id == "" {
		return "", ErrNotFound
	}
	tag, _ := ctx.Value(TagKey{}).(string)
	return id + ":" + tag, nil
}

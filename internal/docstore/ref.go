package docstore

import (
	"net/url"
	"strings"
)

// CollectionRef names a collection by its slash-joined path. Each segment is
// path-escaped, so a segment never contains a slash.
type CollectionRef string

// Collection joins segments into a CollectionRef.
func Collection(segments ...string) CollectionRef {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return CollectionRef(strings.Join(escaped, "/"))
}

// UserCollection is the per-user collection artifacts/<appID>/users/<uid>/<name>.
func UserCollection(appID, uid, name string) CollectionRef {
	return Collection("artifacts", appID, "users", uid, name)
}

// Segments returns the unescaped path segments.
func (c CollectionRef) Segments() []string {
	if c == "" {
		return nil
	}
	parts := strings.Split(string(c), "/")
	for i, p := range parts {
		if u, err := url.PathUnescape(p); err == nil {
			parts[i] = u
		}
	}
	return parts
}

// Doc returns a reference to document id in c.
func (c CollectionRef) Doc(id string) DocRef {
	return DocRef{Collection: c, ID: id}
}

func (c CollectionRef) String() string { return string(c) }

// DocRef names one document.
type DocRef struct {
	Collection CollectionRef
	ID         string
}

func (d DocRef) String() string {
	return string(d.Collection) + "/" + url.PathEscape(d.ID)
}

package redisstore

import (
	"fmt"
	"strings"

	"github.com/abelbrown/gitexplorer/internal/docstore"
)

const (
	// KeyPrefixCollection prefixes the hash holding a collection's documents.
	KeyPrefixCollection = "gitexplorer:coll:"
	// ChannelPrefixChanged prefixes the pub/sub channel announcing changes.
	ChannelPrefixChanged = "gitexplorer:changed:"
)

// CollectionKey returns the hash key for coll.
func CollectionKey(coll docstore.CollectionRef) string {
	return KeyPrefixCollection + string(coll)
}

// ChangedChannel returns the channel a write to coll is announced on.
func ChangedChannel(coll docstore.CollectionRef) string {
	return ChannelPrefixChanged + string(coll)
}

// CollectionFromChannel extracts the collection from a change channel name.
func CollectionFromChannel(channel string) (docstore.CollectionRef, error) {
	if !strings.HasPrefix(channel, ChannelPrefixChanged) || len(channel) == len(ChannelPrefixChanged) {
		return "", fmt.Errorf("invalid change channel: %s", channel)
	}
	return docstore.CollectionRef(channel[len(ChannelPrefixChanged):]), nil
}

// snapshotFromHash converts an HGETALL reply into a snapshot.
func snapshotFromHash(coll docstore.CollectionRef, fields map[string]string) docstore.Snapshot {
	docs := make(map[string][]byte, len(fields))
	for id, body := range fields {
		docs[id] = []byte(body)
	}
	return docstore.Snapshot{Collection: coll, Docs: docs}
}

// Package cache provides the two-tier TTL cache used by the search pipeline.
//
// The fast tier is a bounded in-process LRU so a single instance degrades
// gracefully with no external dependency. A shared Redis tier can be layered
// on top with write-through semantics. The cache must never cause the
// pipeline to fail: every error degrades to a miss or to the in-process value.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Cache namespaces partition unrelated artifacts.
const (
	NamespaceEmbedding = "emb"
	NamespaceExpansion = "expand"
	NamespaceResults   = "results"
	NamespaceLocale    = "locale"
	NamespaceFeedback  = "feedback"
)

// NormalizeQuery lower-cases and collapses whitespace so semantically
// identical queries share a cache slot.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// Key builds a namespaced cache key from the normalized query plus optional
// discriminators. SHA256 keeps key length fixed and handles arbitrary text.
func Key(namespace, query string, extra ...string) string {
	material := NormalizeQuery(query)
	for _, e := range extra {
		material += "\x00" + e
	}
	hash := sha256.Sum256([]byte(material))
	return namespace + ":" + hex.EncodeToString(hash[:])
}

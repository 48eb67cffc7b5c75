// Package cache provides the persisted lookup cache used to avoid re-querying
// stable master data (vendor lists, account codes, exchange rates) on every
// chat interaction.
//
// CACHE MODEL:
// Entries are rows in a backing store keyed by a composite colon-joined
// string, each holding a serialized JSON payload and an expiry timestamp.
// Expiry is evaluated by the storage read itself, never by a client-side
// clock check, so callers can trust that a returned payload was live at read
// time and must not assume freshness between calls. Writes are upserts with
// last-write-wins semantics; expired rows are left for the warehouse's own
// retention policy to remove.
package cache

import "strings"

// Key builds the deterministic cache key "namespace:subject" or
// "namespace:subject:context" when context segments are supplied. Empty
// context segments are omitted. Pure function, no side effects.
func Key(namespace, subject string, context ...string) string {
	parts := []string{namespace, subject}
	for _, segment := range context {
		if segment != "" {
			parts = append(parts, segment)
		}
	}
	return strings.Join(parts, ":")
}

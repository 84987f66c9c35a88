// Package constants holds shared domain-level constant values.
package constants

// Queue transport provider names.
const (
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

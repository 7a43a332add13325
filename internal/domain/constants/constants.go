// Package constants holds shared environment and provider names.
package constants

const (
	// EnvDevelop is the development environment name.
	EnvDevelop = "develop"
	// EnvProduction is the production environment name.
	EnvProduction = "production"

	// PubSubProviderLocal publishes run events to a local HTTP endpoint.
	PubSubProviderLocal = "local"
	// PubSubProviderGoogle publishes run events to Google Cloud Pub/Sub.
	PubSubProviderGoogle = "google"
)

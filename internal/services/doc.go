// Package services defines the error taxonomy shared by the remote service
// clients. Subpackages implement the individual integrations.
package services

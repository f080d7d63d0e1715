// Package registry defines the model registry capability the registration
// driver depends on, with two implementations: an adapter over the MLflow
// REST client and an in-memory registry used by tests and dry runs.
package registry

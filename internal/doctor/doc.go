// Package doctor runs pre-flight checks before a release: the tracking
// credential, the model info document, and the tracking server itself
// (reachability, credentials, and whether its version still supports stages).
package doctor

// Package platform contains OS/platform integration: URL validation and
// normalization for the supported video platform, filesystem helpers for
// temporary artifacts and collision-safe output names, and OS open/reveal.
package platform

// Package model defines domain data structures used across the app: jobs,
// job requests, progress snapshots, error descriptors and the job state
// machine. Structures are plain values so that snapshots can be handed to the
// UI without sharing mutable state.
package model

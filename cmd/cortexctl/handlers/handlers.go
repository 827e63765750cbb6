// Package handlers provides command handler functions for cortexctl.
//
// This package contains all the command execution logic for cortexctl
// commands, organized by resource type:
//   - info.go: Hub status and mood summary
//   - node.go: Node listing and inspection (ls, info)
//   - telemetry.go: Live cache and stored history queries (last, history)
//   - room.go: Room analytics (occupancy, spatial, forecast)
//   - personality.go: Mood state management (get, set)
//   - calibration.go: Offset listing and recalibration (ls, run)
//   - hub.go: Federation membership (ls)
//   - watch.go: Live telemetry streaming over the hub IPC port
//   - replay.go: Captured frame replay over a node link
//
// All handlers follow consistent patterns: cobra RunE signatures, logging
// setup before any output, API communication through the client package, and
// presentation through the display package.
package handlers

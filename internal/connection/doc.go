// Package connection maintains the WebSocket link to the upstream post relay.
//
// The relay pushes one frame per channel post. This package:
//   - Dials the relay, optionally with a Bearer token
//   - Answers relay pings and sends its own keepalive pings
//   - Detects stale links (no ping/pong within PingTimeout)
//   - Reconnects with exponential backoff until its context ends
//
// Frames are handed on untouched; decoding belongs to the feed package.
package connection

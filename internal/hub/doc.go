// Package hub implements the Subscriber Registry.
//
// The Registry tracks connected push endpoints and fans each update out to
// all of them:
//   - Register sends exactly one init event before the subscriber can see any update
//   - Broadcast serializes once and enqueues without blocking; a subscriber
//     whose queue is full or closed is removed after the pass
//   - Unregister is idempotent and closes the subscriber
//
// Conn adapts a gorilla WebSocket connection into a Subscriber with its own
// write pump, keepalive pings and the text "ping"/"pong" liveness exchange.
package hub

// Package server hosts the subscriber-facing HTTP surface on gin.
//
// Routes:
//   - GET /ws      WebSocket upgrade; the connection becomes a hub subscriber
//   - GET /health  database, subscriber, store and pipeline status
//   - GET /latest  the current latest price (concurrent requests share one read)
package server

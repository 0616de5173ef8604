// Package feed adapts upstream post transports into a single ordered stream.
//
// A Source pushes every post it receives, as a Message, onto a Queue that the
// pipeline drains. Three transports are supported:
//   - websocket: a relay pushing frames, JSON {"text": "..."} or raw text
//   - kafka: one post per record value
//   - redis: one post per pub/sub payload
//
// Sources never interpret the text. Empty posts are passed on as-is.
package feed

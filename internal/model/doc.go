// Package model defines the price ledger row and the messages pushed to subscribers.
//
// Conventions:
//   - Prices: integer toman, as quoted in the channel post
//   - CreatedAt: UTC; CreatedAtLocal: Shamsi calendar "yyyy/MM/dd HH:mm:ss" in the configured zone
//   - Wire messages are JSON objects discriminated by "type"
package model

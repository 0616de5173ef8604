// Package dedup implements the Dedup Gate.
//
// The gate compares an extracted price with the latest stored price:
//   - no stored price yet: accept
//   - stored price equals the candidate: reject
//   - anything else (including a move back to an older value): accept
//
// Zero is a real price. Only the presence of a stored row matters.
package dedup

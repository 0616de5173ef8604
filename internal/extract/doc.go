// Package extract pulls the "cash tomorrow" sell price out of a free-form channel post.
//
// Posts are normalized first (Persian and Arabic-Indic digits folded to ASCII,
// whitespace runs collapsed), then matched against an ordered list of phrasings.
// The first phrasing that yields a parseable number wins.
package extract

// Package candidate provides the per-request working set of route candidates.
//
// A route table produces an ordered list of (endpoint, score) pairs once.
// For every request a Set is built from that list and handed to a pipeline of
// matching policies, which narrow it down by invalidating slots, replacing
// endpoints, or fanning one slot out into several. A selector then takes the
// first valid slot by position.
//
// # Positions
//
// Precedence is purely positional. The order established at construction is
// preserved by every operation: entries that a replacement does not touch keep
// their relative order, and entries before a splice point never move.
//
// # Validity
//
// Each slot carries a validity flag that policies toggle with SetValidity.
// A slot whose endpoint is nil (a tombstone) is always reported invalid.
// Slots introduced by Replace or ReplaceWithList start out valid.
//
// # Handles
//
// At returns a pointer into the set's storage so policies can update Values
// in place without copying. A ReplaceWithList call that inserts more than one
// endpoint may move the storage; handles obtained before such a call must not
// be used after it. Update applies a function at an index without handing out
// a handle.
//
// A Set is owned by a single routing attempt and is not safe for concurrent
// use.
package candidate

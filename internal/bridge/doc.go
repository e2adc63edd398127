// Package bridge implements the bidirectional sync engine between a scene
// switcher (OBS) and a Tournament Manager fieldset audience display.
//
// ARCHITECTURE:
//
// Single-Lock Critical Section:
// Both endpoints deliver change callbacks from their own read-loop
// goroutines. The engine serializes every resolve-and-issue sequence with
// one mutex held across the entire handler body, including the blocking
// command call to the opposite endpoint. This makes the read/compare/
// write/issue sequence atomic with respect to concurrent events from
// either side.
//
// Loop Suppression:
// Every command the engine issues reflects back as a change event from the
// endpoint it wrote to. The tracker's last-known values break the loop:
// a handler that observes the value it already recorded is a no-op. The
// lock ordering above guarantees the issuing handler records the expected
// value before the echo event can be processed.
//
// Event Processing Flow:
//  1. Endpoint fires a change callback (scene name or fieldset overview)
//  2. Handler takes the engine lock, applies the loop-suppression check
//  3. Target state on the opposite side is resolved (direct pair, or
//     match-state / field-index resolution for field-bound states)
//  4. Command is issued while still holding the lock
//  5. On success the expected value is recorded; on failure the tracker
//     is left unchanged so the next genuine event re-attempts naturally
//
// No error stops event processing: command failures and resolution misses
// are logged (and journaled when a journal is attached) and the engine
// keeps running until Stop.
package bridge

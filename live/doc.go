// Package live bridges an external live-event source into the relay's
// fan-out fabric.
//
// The external source yields, per username, an asynchronous sequence of named
// events ("connected", one event per occurrence type, "disconnected"). The
// hub has no knowledge of this source; the Bridge re-emits its events onto
// subscribed connections through the ordinary emit primitive, namespaced
// under a "tiktok-" prefix.
//
// Sharing policy:
//
// One upstream stream per username, reference counted. The stream opens on
// the first subscription and closes when the last subscriber leaves.
// Subscriptions are scoped to a (username, connection) pair and are removed
// on disconnect, so repeated bridging requests never accumulate listeners.
//
// The stream is kept alive with jittered exponential backoff: when it fails,
// subscribers see a "disconnected" marker and the bridge redials until the
// username has no subscribers left.
package live

// Package substate is the Substate Track: the transactional overlay that
// sits between the call-frame stack and a backing Database, providing
// locking, buffered reads/writes and deferred, deterministically-ordered
// commit.
package substate

/*
Package session serializes the turns of each conversation and orchestrates
session persistence.

Turns of one conversation must never overlap: the Manager holds a reference-counted
local lock per conversation id and, when configured, a ports.DistributedLocker so
that replicas sharing a store also take turns. Conversations never contend with
each other.
*/
package session

// Package redis provides a Redis-backed ports.SessionStore and a
// ports.DistributedLocker, used to share conversations between replicas.
package redis

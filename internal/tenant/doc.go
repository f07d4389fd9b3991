// Package tenant holds the read-mostly tenant configuration cache shared by every
// request. The cache publishes whole immutable snapshots: request handling code
// loads the current *Snapshot once and never mutates it, while administrative
// writers build a new snapshot and swap it in atomically. The package also owns
// Host normalisation and the tenant resolution rules (wizard/localhost/IP forcing,
// hostname lookup, and the asymmetric /t/<id> switch prefix).
package tenant

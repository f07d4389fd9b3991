// Package policy computes the per-request transport decisions that precede route
// matching: protocol and Tor-usage inference, the Tor/HTTPS redirect precedence,
// and the security header set attached to every response.
package policy

// Package handler defines the contract between the dispatcher and the business
// handlers bound to routes: the registration-time Descriptor, the per-request
// Instance, and the value types a handler may return.
package handler

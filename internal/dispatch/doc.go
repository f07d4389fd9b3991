// Package dispatch implements the gateway's front-door resource: for each
// inbound request it resolves the tenant, applies redirect and header policy,
// matches the route table, runs the bound handler in the background and
// finalizes the response exactly once, even if the client goes away first.
package dispatch

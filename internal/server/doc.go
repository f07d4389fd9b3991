// Package server hosts the Fiber HTTP service that fronts the dispatcher.
// Each listener gets its own Fiber app: the request middleware assigns a
// request id, diagnostics paths under /-/ bypass the dispatcher, and every
// other request is converted into a dispatch.Inbound and answered from the
// dispatcher's Response once it commits. Bootstrap assembles the tenant
// cache, route table, reporter, metrics and background jobs from config.
package server

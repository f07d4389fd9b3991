// Package assets defines the disk-backed store used for the static web client
// and for tenant uploads (logo, favicon, custom css and script). Writes go
// through a temp file + rename so readers never observe partial files, and
// each entry is guarded by its own lock.
package assets

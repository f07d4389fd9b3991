// Package public contains the handlers reachable by anonymous clients: the
// robots and sitemap documents, client-side exception reports, tenant file
// downloads, the special redirects and the static client fallback.
package public

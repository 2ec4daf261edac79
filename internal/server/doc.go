// Package server provides the logout UI development server.
//
// the server is configured through environment variables
// (see internal/config/config.go for details)
//
// Requests are handled in this order:
//   - GET and HEAD requests under STATIC_PREFIX are served from the static directories,
//     build output (target/webapp) before sources (src/main/webapp)
//   - everything else, including static misses, goes to the request proxy
//
// middleware is in internal/server/middleware
package server

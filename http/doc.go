// Package http provides the HTTP surface for dirserve.
//
// This package implements directory listings, single-file downloads, streamed
// archive downloads and optional uploads on top of the dirserve service.
//
// # Features
//
//   - GET on a directory renders a listing (HTML, or JSON for API clients)
//   - GET on a directory with ?download=tar or ?download=zip streams an
//     archive of that subtree, generated on the fly
//   - GET on a file serves it with range support via http.ServeContent
//   - PUT uploads a file atomically (opt-in, with optional overwrite)
//   - HTTP basic authentication with plain or hashed passwords
//   - Path traversal protection (validated here, re-enforced by the store)
//   - JSON error responses
//   - Configurable CORS support and gzip compression of listing responses
//
// # Archive streaming
//
// Archive responses are produced incrementally: the response body starts
// before the tree walk finishes, each chunk is flushed as it is encoded, and
// a client disconnect cancels the request context, which stops the walk and
// releases the file handle currently being read. A failure after the first
// chunk cannot be turned into an error status anymore; the connection is
// closed early and archive tools detect the truncation.
//
// # Usage
//
// Create a handler with HandlerConfig:
//
//	store, _ := credentials.NewStore(credentials.AccountsConfig{
//	    Inline: []string{"alice:hunter2"},
//	})
//	handlerCfg := http.HandlerConfig{
//	    ArchiveEnabled: true,
//	    Auth:           store, // nil for public access
//	}
//	handler := http.NewHandler(&handlerCfg, service)
//	router := handler.Router()
//	http.ListenAndServe(":8080", router)
//
// The service parameter must implement the Service interface with Get, List,
// Archive, ArchiveName and Upload methods.
package http

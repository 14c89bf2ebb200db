// Package dirserve serves a local directory tree over HTTP and delivers any
// subdirectory as a tar or zip archive generated on demand.
//
// Archives are produced by streaming: the tree is walked lazily in a
// deterministic order, each entry is encoded and flushed to the client before
// the next one is read, and no more than one entry's content is in flight at
// any time. The full archive is never materialized in memory or on disk.
//
// # Key Components
//
//   - Service: Main service combining a tree store and archive encoders
//   - Store: Interface for sandboxed filesystem access (resolve, walk, read, write)
//   - Encoder: Interface over the two archive formats (tar, zip)
//   - Entry: One file, directory, or symlink record within an archive
//
// # Safety
//
// All filesystem access is bounded to the served root. Client-supplied paths
// are validated before traversal, and the filesystem store re-enforces
// containment on every open, so a symlink pointing outside the root can never
// leak content into an archive.
//
// # Example Usage
//
//	store, err := filesystem.NewStore(root, filesystem.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	service, err := dirserve.NewService(store, archive.NewEncoder)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Stream a subtree as a tar archive
//	req := dirserve.ArchiveRequest{Path: "docs", Format: dirserve.FormatTar}
//	err = service.Archive(ctx, req, w)
//
// See the http package for the HTTP handler and the filesystem package for the
// os.Root-backed store implementation.
package dirserve

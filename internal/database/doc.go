// Package database provides the SQLite page cache for sitesift.
//
// The cache stores one row per canonical URL: the HTTP status, a content
// hash, the markup snapshot, and the fetch timestamp. It backs two
// fetch-side features: --from-cache replays a previous run's pages
// through the pipeline without touching the network, and fresh entries
// let a live run skip refetching pages it saw recently.
//
// The cache is fetch infrastructure only. The dataset artifacts are flat
// CSV files written by the output package; nothing on the dataset path
// reads from here.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of
// other storage because:
// 1. No external dependencies - the cache is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database

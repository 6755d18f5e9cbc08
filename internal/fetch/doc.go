// Package fetch provides the reference fetch driver that feeds pages
// into the aggregation engine.
//
// # Architecture
//
// The package is designed around the Driver type, which traverses a site
// breadth-first from the configured seeds. Workers fetch concurrently
// behind a shared politeness gate, and every HTML page lands in the
// engine through the Sink interface. The processing side stays
// single-writer; the driver only ever calls Sink methods.
//
// Design decision: The driver is deliberately thin. Seed URLs, same-host
// scope, deny patterns, depth and page budgets, a politeness delay, and
// a bounded worker pool are all it knows. Anything smarter, such as
// priority scheduling, robots.txt negotiation, or JavaScript rendering,
// belongs to an external collaborator that can feed the engine through
// the same Sink interface.
//
// # Page Cache
//
// The driver optionally works against the SQLite page cache:
//   - With a cache attached, fetched pages are saved for later replay
//   - With a freshness window, recently cached pages skip the network
//   - In replay mode, the whole run is served from the cache offline
//
// # Usage
//
//	driver, err := fetch.NewDriver(httpClient, canon, engine,
//		fetch.WithMaxDepth(3),
//		fetch.WithWorkers(4),
//	)
//	if err != nil {
//		return err
//	}
//	err = driver.Run(ctx, cfg.File.Site.Seeds())
package fetch

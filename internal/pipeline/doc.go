// Package pipeline orchestrates the stages of a sitesift run.
//
// A run is a fixed sequence of steps executed against one SiteReport:
// traverse the site (or replay the page cache), copy the processed-URL
// map out of the aggregation engine, snapshot the deduplicated dataset,
// emit the CSV artifacts, and write the markdown documents. Crawl-mode
// runs use the same pipeline shape minus the snapshot step.
//
// Steps implement the Step interface and receive the accumulated report.
// With continue-on-error enabled, a failed or cancelled traversal does
// not stop the emission steps: whatever was aggregated before the
// failure is still flushed, so partial output is valid output.
package pipeline

// Package report renders run results for people and tools.
//
// Two kinds of output live here:
//   - Run summary writers: SimpleWriter for terminal display, JSONWriter
//     for tool integration, MarkdownWriter for pasting into docs. All
//     implement the Writer interface and compose via MultiWriter.
//   - DocsWriter: the generated site documents (web map, speaker
//     directory, website rebuild specification).
//
// Design decision: We separate rendering from the report data structures
// (which are in the model package) so new output formats can be added
// without touching the pipeline.
package report

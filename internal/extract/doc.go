// Package extract pulls raw field values out of page markup using the
// per-page-type selector tables from the rules file. Extraction never
// fails on missing content: a rule matching nothing yields an empty value
// and a gap count, and the page continues through the pipeline.
package extract

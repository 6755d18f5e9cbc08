// Package config provides configuration structures and utilities for sitesift.
// It defines the runtime options assembled from CLI flags, the YAML site
// rules file (URL patterns, selector tables, linker tuning), and the
// validation that rejects malformed configuration before any page is processed.
package config

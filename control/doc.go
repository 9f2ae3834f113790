// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, runtime metrics and debug introspection for fork/join pools.
//
// Provides:
//   - YAML configuration with defaults and whole-file validation
//   - Metric values and HdrHistogram latency summaries
//   - Pool statistics publishing and named debug probes
//
// This package is cross-platform and build-tag-partitioned as needed.
package control

// Package factory builds pluggable modules from configuration. A module is
// named by a type string and configured by a map of raw settings that the
// registered factory decodes with Decode. Solver backends and metrics sinks
// are both created this way, e.g.
//
//	metrics:
//	  sinks:
//	    - type: influx
//	      conf: {url: "http://localhost:8086", org: clinic, bucket: roster}
package factory

// Package internaldefs holds the shared metric name table used by the
// exporter packages. It exists so exporters agree on names without
// duplicating the list.
package internaldefs

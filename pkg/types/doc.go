// Package types defines the data model shared by the larder exporter:
// scalar cell values, records, documents, database sources, per-source
// results, configuration, and the standard errors.
//
// Columns are data, never compile-time fields. A Record is an ordered
// column-to-Value mapping and a Document is an ordered table-to-records
// mapping, so the exporter can describe any schema it discovers at run time.
package types

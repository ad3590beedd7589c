// Package tasks runs bulk operations over the owner's wishlists with real-time
// progress reporting.
//
// # Bulk Export
//
// [Exporter.BulkExport] fetches each wishlist through a [WishlistSource], rate
// limited with golang.org/x/time/rate, and hands it to a pool of workers that
// write it with the formatter package:
//
//   - json     : {dir}/{id}.json
//   - csv      : {dir}/{id}_items.csv and {dir}/{id}_metadata.json
//   - markdown : {dir}/{id}/README.md, plus item images when requested
//   - txt      : {dir}/{id}_items.txt
//
// A failed fetch or write is recorded in [BulkExportResult] and the export moves
// on. Every run ends with {dir}/export_manifest.json.
//
// [Exporter.ExportAll] lists the owner's wishlists first and exports all of them.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and
// optional data. Updates use select with default so a slow reader never blocks
// an export.
package tasks

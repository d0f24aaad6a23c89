// Package export turns committed sales and seat snapshots into files.
//
// Receipts are rendered once as HTML and handed to a sink: the local data
// directory (FileExporter), an S3 bucket (S3Exporter) or several of them
// at once (Multi). Every sink satisfies services.ReceiptExporter.
package export

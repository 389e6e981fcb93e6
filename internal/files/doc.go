// Package files manages operator uploads: bytes on disk under a single
// upload directory, metadata in the store, and file_update broadcasts so
// connected observers see uploads and deletions as they happen.
//
// Stored names are derived from the original filename plus the file ID,
// so two uploads of "report.pdf" never collide on disk while the original
// name survives in metadata for display.
package files

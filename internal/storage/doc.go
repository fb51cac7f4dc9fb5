// Package storage implements the local cache tier of the thumbnail pipeline.
//
// Two backends share the Store interface: SQLiteStore keeps every encoded
// thumbnail as a row in a WAL-mode SQLite database, and DiskStore keeps one
// MD5-named file per item. A store failure is reported as an
// *asset.CacheError, which the pipeline treats as a miss.
package storage

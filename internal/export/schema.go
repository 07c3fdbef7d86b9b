package export

// schema is applied to every export database. Tables are keyed by run so
// one database can hold several exports.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started TEXT NOT NULL,
		volume TEXT NOT NULL,
		driver TEXT NOT NULL,
		driver_package TEXT NOT NULL,
		cgo INTEGER NOT NULL,
		catalogue_blake3 TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS corpora (
		run_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		tag TEXT NOT NULL,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS authors (
		run_id TEXT NOT NULL,
		corpus TEXT NOT NULL,
		author_id TEXT NOT NULL,
		name TEXT NOT NULL,
		raw_name TEXT NOT NULL,
		alphabet INTEGER NOT NULL,
		comment TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS aliases (
		run_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		alias TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS texts (
		run_id TEXT NOT NULL,
		text_id TEXT NOT NULL,
		txt_sha256 TEXT NOT NULL,
		txt_blake3 TEXT NOT NULL,
		idt_sha256 TEXT NOT NULL,
		idt_blake3 TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS works (
		run_id TEXT NOT NULL,
		text_id TEXT NOT NULL,
		author INTEGER NOT NULL,
		work INTEGER NOT NULL,
		author_name TEXT NOT NULL,
		name TEXT NOT NULL,
		citation TEXT NOT NULL,
		block INTEGER NOT NULL,
		levels TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sections (
		run_id TEXT NOT NULL,
		text_id TEXT NOT NULL,
		author INTEGER NOT NULL,
		work INTEGER NOT NULL,
		section INTEGER NOT NULL,
		block INTEGER NOT NULL,
		span INTEGER NOT NULL,
		start_id TEXT NOT NULL,
		end_id TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS lines (
		run_id TEXT NOT NULL,
		text_id TEXT NOT NULL,
		author INTEGER NOT NULL,
		work INTEGER NOT NULL,
		section INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		citation TEXT NOT NULL,
		text TEXT NOT NULL,
		plain TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS lines_citation ON lines (run_id, text_id, citation)`,
}

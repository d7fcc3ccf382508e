package logging

// Field name constants for structured logging.
const (
	// Common fields.
	FieldError      = "error"
	FieldPath       = "path"
	FieldPaths      = "paths"
	FieldFiles      = "files"
	FieldOutput     = "output"
	FieldWorkingDir = "working_dir"
	FieldConfig     = "config"

	// Configuration fields.
	FieldFormat    = "format"
	FieldJobs      = "jobs"
	FieldStrict    = "strict"
	FieldChunkSize = "chunk_size"
	FieldCache     = "cache"

	// Reader fields.
	FieldLine     = "line"
	FieldBlock    = "block"
	FieldCategory = "category"
	FieldKeyword  = "keyword"
	FieldColumn   = "column"
	FieldEncoding = "encoding"
	FieldRows     = "rows"

	// Statistics fields.
	FieldFilesDiscovered  = "files_discovered"
	FieldFilesProcessed   = "files_processed"
	FieldFilesWithIssues  = "files_with_issues"
	FieldFilesCached      = "files_cached"
	FieldDiagnosticsTotal = "diagnostics_total"
	FieldBlocksTotal      = "blocks_total"
	FieldRowsTotal        = "rows_total"
	FieldDuration         = "duration"

	// Version fields.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
	FieldGo      = "go"
)

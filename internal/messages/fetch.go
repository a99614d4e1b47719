package messages

// Template fetch and extraction messages.
const (
	// FetchCreateRequestErrFmt formats request creation errors.
	FetchCreateRequestErrFmt      = "create request for %s: %w"
	FetchDownloadFailedFmt        = "download %s: %w"
	FetchDownloadStatusFmt        = "download %s: unexpected status %s"
	FetchDownloadTooLargeFmt      = "download %s: response too large (more than %d bytes)"
	FetchDownloadTimeoutFmt       = "download %s: request timed out\n\nRemediation:\n  - Check your internet connection\n  - If behind a proxy, ensure HTTP_PROXY/HTTPS_PROXY are set\n  - Raise fetch.timeout in the scaffold config"
	FetchTemplateNotFoundFmt      = "template %s was not found at %s (HTTP 404)"
	FetchRetryBudgetExhausted     = "retry budget exhausted"
	FetchCreateTempFileFmt        = "create temp file: %w"
	FetchCloseTempFileFmt         = "close temp file: %w"
	FetchCreateCacheDirFmt        = "create cache dir %s: %w"
	FetchMoveCachedArchiveFmt     = "move archive into cache: %w"
	FetchWriteChecksumFmt         = "write checksum %s: %w"
	FetchOpenFileFmt              = "open %s: %w"
	FetchHashFileFmt              = "hash %s: %w"
	FetchOpenLockFmt              = "open lock %s: %w"
	FetchLockFmt                  = "lock %s: %w"
	FetchLockTimeoutFmt           = "timed out after %s waiting for archive cache lock"
	FetchOpenArchiveFmt           = "open archive %s: %w"
	FetchReadArchiveFmt           = "read archive %s: %w"
	FetchUnsafeEntryFmt           = "archive entry %q escapes the extraction directory"
	FetchExtractEntryFmt          = "extract %s: %w"
	FetchExtractTooLargeFmt       = "archive expands beyond %d bytes"
	FetchEmptyArchiveFmt          = "archive %s contains no files"
	FetchUnsupportedArchiveFmt    = "unsupported archive format for %s (expected .zip, .tar.gz, or .tgz)"
	FetchDestinationRequired      = "extraction destination is required"
	FetchDownloadingDebug         = "downloading template archive"
	FetchCacheHitDebug            = "using cached template archive"
	FetchCacheChecksumMismatchFmt = "cached archive %s failed checksum verification; downloading again"
)

package messages

// Release lookup messages.
const (
	// ReleaseCreateRequestErrFmt formats release request creation errors.
	ReleaseCreateRequestErrFmt  = "create release request: %w"
	ReleaseFetchLatestErrFmt    = "fetch latest release of %s/%s: %w"
	ReleaseFetchLatestStatusFmt = "fetch latest release of %s/%s: unexpected status %s"
	ReleaseNoneFmt              = "%s/%s has no published releases; use a branch template or an explicit @version"
	ReleaseDecodeErrFmt         = "decode latest release response: %w"
	ReleaseMissingTag           = "latest release response is missing tag_name"
	ReleaseInvalidTagFmt        = "latest release tag %q is not a vX.Y.Z version: %w"
	ReleaseRateLimitFmt         = "github api rate limit exceeded (%s, remaining=%s)"
)

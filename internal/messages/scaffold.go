package messages

// Scaffold workflow messages.
const (
	// FsutilDirOpErrFmt formats directory operation failures.
	FsutilDirOpErrFmt = "failed to %s directory %s: %v"

	GuardResolveDestFmt       = "resolve destination %s: %w"
	GuardResolveWorkingDirFmt = "resolve working directory: %w"
	GuardReadAnswerFmt        = "read answer: %w"
	GuardFormRequiresTerminal = "confirmation form requires an interactive terminal"

	// StageFetcherRequired indicates the stager was built without a fetcher.
	StageFetcherRequired  = "template fetcher is required"
	StageNameFailedFmt    = "generate staging directory name: %w"
	StageErrFmt           = "failed to fetch template %s: %v"
	StageCleanupJoinedFmt = "%w (staging cleanup also failed: %v)"

	// MergeCopyErrFmt formats the copy failure that stopped a merge.
	MergeCopyErrFmt    = "failed to copy %s: %v"
	MergeNotRegular    = "not a regular file"
	MergeAlreadyExists = "already exists"
	MergeParentNotDir  = "a parent path in the destination is not a directory"

	// ScaffoldGuardRequired indicates the orchestrator is missing a collaborator.
	ScaffoldGuardRequired       = "directory guard is required"
	ScaffoldStagerRequired      = "template stager is required"
	ScaffoldMergerRequired      = "merge copier is required"
	ScaffoldDestinationRequired = "destination is required"
	ScaffoldDestinationNotAbs   = "destination %s must be an absolute path"
	ScaffoldTemplateRequired    = "template is required"
	ScaffoldConfirmFailedFmt    = "confirm destination %s: %w"
)

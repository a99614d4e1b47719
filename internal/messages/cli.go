package messages

// CLI messages for user-facing commands and prompts.
const (
	// RootUse is the CLI command name.
	RootUse = "scaffold"
	// RootShort is the short description for the root command.
	RootShort       = "Create new projects from starter templates"
	RootLong        = "scaffold creates a new project by copying a starter template into a directory.\nExisting files are never overwritten."
	RootVersionFlag = "Print version and exit"
	RootFlagConfig  = "Path to a config file (default $SCAFFOLD_CONFIG or the user config dir)"
	RootFlagDebug   = "Write debug logs to stderr"

	// VersionCommitFmt formats the commit hash for version display.
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"
	VersionTemplate  = "{{.Version}}\n"

	// InitUse is the init command usage.
	InitUse   = "init [location]"
	InitShort = "Initialize a new app from a starter template"
	InitLong  = `Initialize a new app in a directory. The selected starter template is downloaded
and copied into the directory.

Re-running init on an existing directory leaves existing files alone; only files
that are missing are copied.`
	InitExample      = "  scaffold init example-app --template=minimal\n  scaffold init . --template=minimal@v1.2.0"
	InitFlagTemplate = "Starter template to use (name, name@version, or name@latest)"
	InitFlagYes      = "Continue without asking when the current directory is not empty"

	InitWelcome     = "Welcome to scaffold!"
	InitLetsGo      = "Let's initialize your app!"
	InitDeclined    = "Aborted; nothing was changed."
	InitFinishedFmt = "\nFinished! %d file(s) copied, %d skipped. You might need to install dependencies before running the app.\n"
	InitInterrupted = "Interrupted; nothing further was copied and the staging directory was removed."
	InitLatestFmt   = "resolve latest release of %s: %w"

	// InitArt is printed under the welcome line.
	InitArt = `                 __  __      _     _
   ___  ___ __ _ / _|/ _| ___ | | __| |
  / __|/ __/ _` + "`" + ` | |_| |_ / _ \| |/ _` + "`" + ` |
  \__ \ (_| (_| |  _|  _| (_) | | (_| |
  |___/\___\__,_|_| |_|  \___/|_|\__,_|`

	// TemplatesUse is the templates command name.
	TemplatesUse        = "templates"
	TemplatesShort      = "List the available starter templates"
	TemplatesDefaultFmt = "  %s (default)\n"
	TemplatesLineFmt    = "  %s\n"
	TemplatesHeaderFmt  = "Templates from %s:\n"

	// PromptNonEmptyDir asks whether to continue in a non-empty current directory.
	PromptNonEmptyDir   = "Current directory not empty, continue anyway? (y/n) "
	PromptFormTitle     = "Current directory not empty"
	PromptFormDesc      = "Existing files are kept; only missing template files are copied."
	PromptFormConfirm   = "Continue"
	PromptFormDecline   = "Cancel"
	PromptRequiresInput = "the current directory is not empty and no answer was given; re-run with --yes to continue"

	// ProgressDoneSuffix is appended to finished progress lines.
	ProgressDoneSuffix       = " - done!"
	ProgressSkippedSuffix    = " - skipped"
	ProgressFailedSuffix     = " - failed"
	ProgressDownloadFmt      = "  Downloading %s/%s starter app"
	ProgressCopyFmt          = "  Copy %s"
	ProgressExistsFmt        = "  File %s already exists"
	ProgressUnsupportedFmt   = "  File %s is not a regular file"
	ProgressSkippedReasonFmt = "  File %s: %s"
	ProgressCopyingApp       = "  Copying starter app"
)

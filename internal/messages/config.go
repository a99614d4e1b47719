package messages

// Config messages.
const (
	// ConfigMissingFileFmt formats missing config file errors.
	ConfigMissingFileFmt       = "missing config file %s: %w"
	ConfigInvalidConfigFmt     = "invalid config %s: %w"
	ConfigResolveDirFmt        = "resolve config dir: %w"
	ConfigExpandPathFmt        = "expand config path %s: %w"
	ConfigDefaultTemplateFmt   = "default_template %q is not one of templates.names (%s)"
	ConfigPromptInvalidFmt     = "prompt must be %q or %q, got %q"
	ConfigTimeoutInvalidFmt    = "fetch.timeout %q is not a valid positive duration"
	ConfigMaxBytesInvalidFmt   = "fetch.max_bytes must be positive, got %d"
	ConfigRetriesInvalidFmt    = "fetch.retries must be between 0 and %d, got %d"
	ConfigArchiveURLFmt        = "source.archive_url %q must contain {repo} and {ref}"
	ConfigAPIURLFmt            = "source.api_url %q must be an absolute http(s) URL"
	ConfigOwnerRequired        = "source.owner is required"
	ConfigDefaultRefRequired   = "source.default_ref is required"
	ConfigTemplatesRequired    = "templates.names must list at least one template"
	ConfigTemplateNameFmt      = "templates.names entry %q must not be empty or contain '@', '/', or whitespace"
	ConfigTemplateDuplicateFmt = "templates.names lists %q more than once"

	// CatalogUnknownTemplateFmt formats unknown template errors.
	CatalogUnknownTemplateFmt = "%w %q (available: %s)"
	CatalogInvalidVersionFmt  = "invalid version %q for template %s: must be vX.Y.Z or X.Y.Z"
	CatalogEmptyVersionFmt    = "template %q has an empty version after '@'"
)

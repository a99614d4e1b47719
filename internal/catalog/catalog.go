// Package catalog resolves template names to downloadable archives.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/conn-castle/scaffold/internal/messages"
)

// ErrUnknownTemplate is wrapped by Resolve when a name is not in the catalog.
var ErrUnknownTemplate = errors.New("unknown template")

// LatestVersion asks for the newest published release instead of a fixed version.
const LatestVersion = "latest"

// Source describes where template archives are published.
type Source struct {
	Owner      string
	RepoPrefix string
	DefaultRef string
	// ArchiveURL is a pattern with {owner}, {repo}, {ref}, and {name} placeholders.
	ArchiveURL string
}

// Template is a resolved template reference.
type Template struct {
	Name string
	// Version is the normalized X.Y.Z version when pinned, empty otherwise.
	Version string
	Repo    string
	Ref     string
	URL     string
}

// Pinned reports whether the template refers to an immutable release tag.
func (t Template) Pinned() bool {
	return t.Version != ""
}

func (t Template) String() string {
	if t.Version == "" {
		return t.Name
	}
	return t.Name + "@v" + t.Version
}

// Catalog is the enumerated set of known templates.
type Catalog struct {
	names       []string
	defaultName string
	source      Source
}

// New builds a catalog. names is copied and sorted.
func New(names []string, defaultName string, source Source) *Catalog {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return &Catalog{names: sorted, defaultName: defaultName, source: source}
}

// Names returns the known template names in lexical order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Default returns the template used when none is requested.
func (c *Catalog) Default() string {
	return c.defaultName
}

// Source returns the archive source the catalog resolves against.
func (c *Catalog) Source() Source {
	return c.source
}

// Has reports whether name is a known template.
func (c *Catalog) Has(name string) bool {
	i := sort.SearchStrings(c.names, name)
	return i < len(c.names) && c.names[i] == name
}

// Resolve turns "name" or "name@version" into a Template. An empty spec
// selects the default template.
func (c *Catalog) Resolve(spec string) (Template, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = c.defaultName
	}
	name, rawVersion, hasVersion := strings.Cut(spec, "@")
	name = strings.TrimSpace(name)
	if !c.Has(name) {
		return Template{}, fmt.Errorf(messages.CatalogUnknownTemplateFmt, ErrUnknownTemplate, name, strings.Join(c.names, ", "))
	}

	tmpl := Template{
		Name: name,
		Repo: c.source.RepoPrefix + name,
		Ref:  c.source.DefaultRef,
	}
	if hasVersion {
		rawVersion = strings.TrimSpace(rawVersion)
		if rawVersion == "" {
			return Template{}, fmt.Errorf(messages.CatalogEmptyVersionFmt, spec)
		}
		version, err := normalizeVersion(rawVersion)
		if err != nil {
			return Template{}, fmt.Errorf(messages.CatalogInvalidVersionFmt, rawVersion, name)
		}
		tmpl.Version = version
		tmpl.Ref = "refs/tags/v" + version
	}
	tmpl.URL = c.archiveURL(tmpl)
	return tmpl, nil
}

// SplitLatest returns the template name when spec is "name@latest".
func SplitLatest(spec string) (string, bool) {
	name, version, ok := strings.Cut(strings.TrimSpace(spec), "@")
	if !ok || !strings.EqualFold(strings.TrimSpace(version), LatestVersion) {
		return "", false
	}
	return strings.TrimSpace(name), true
}

func (c *Catalog) archiveURL(tmpl Template) string {
	r := strings.NewReplacer(
		"{owner}", c.source.Owner,
		"{repo}", tmpl.Repo,
		"{ref}", tmpl.Ref,
		"{name}", tmpl.Name,
	)
	return r.Replace(c.source.ArchiveURL)
}

// normalizeVersion accepts vX.Y.Z or X.Y.Z (with optional pre-release) and
// returns it without the leading "v".
func normalizeVersion(raw string) (string, error) {
	v, err := semver.StrictNewVersion(strings.TrimPrefix(raw, "v"))
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/conn-castle/scaffold/internal/messages"
)

// Validate checks field values and caches derived settings.
func (c *Config) Validate() error {
	if err := validateTemplateNames(c.Templates.Names); err != nil {
		return err
	}
	if !contains(c.Templates.Names, c.DefaultTemplate) {
		return fmt.Errorf(messages.ConfigDefaultTemplateFmt, c.DefaultTemplate, strings.Join(c.Templates.Names, ", "))
	}
	switch c.Prompt {
	case PromptPlain, PromptForm:
	default:
		return fmt.Errorf(messages.ConfigPromptInvalidFmt, PromptPlain, PromptForm, c.Prompt)
	}
	if strings.TrimSpace(c.Source.Owner) == "" {
		return fmt.Errorf(messages.ConfigOwnerRequired)
	}
	if strings.TrimSpace(c.Source.DefaultRef) == "" {
		return fmt.Errorf(messages.ConfigDefaultRefRequired)
	}
	if !strings.Contains(c.Source.ArchiveURL, "{repo}") || !strings.Contains(c.Source.ArchiveURL, "{ref}") {
		return fmt.Errorf(messages.ConfigArchiveURLFmt, c.Source.ArchiveURL)
	}
	if u, err := url.Parse(c.Source.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf(messages.ConfigAPIURLFmt, c.Source.APIURL)
	}
	timeout, err := time.ParseDuration(strings.TrimSpace(c.Fetch.Timeout))
	if err != nil || timeout <= 0 {
		return fmt.Errorf(messages.ConfigTimeoutInvalidFmt, c.Fetch.Timeout)
	}
	if c.Fetch.MaxBytes <= 0 {
		return fmt.Errorf(messages.ConfigMaxBytesInvalidFmt, c.Fetch.MaxBytes)
	}
	if c.Fetch.Retries < 0 || c.Fetch.Retries > MaxRetries {
		return fmt.Errorf(messages.ConfigRetriesInvalidFmt, MaxRetries, c.Fetch.Retries)
	}
	c.timeout = timeout
	return nil
}

func validateTemplateNames(names []string) error {
	if len(names) == 0 {
		return fmt.Errorf(messages.ConfigTemplatesRequired)
	}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" || strings.ContainsAny(name, "@/\\") || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
			return fmt.Errorf(messages.ConfigTemplateNameFmt, name)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf(messages.ConfigTemplateDuplicateFmt, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

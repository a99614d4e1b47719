package fetch

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"

	"github.com/conn-castle/scaffold/internal/messages"
)

type archiveFormat int

const (
	formatZip archiveFormat = iota
	formatTarGz
)

// entry is one archive member, independent of the container format.
type entry struct {
	name string
	mode fs.FileMode
	open func() (io.Reader, error)
}

// walkFunc visits every member of an archive in stored order.
type walkFunc func(visit func(entry) error) error

// detectFormat picks the archive format from the URL path suffix.
func detectFormat(rawURL string) (archiveFormat, error) {
	p := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		p = parsed.Path
	}
	lower := strings.ToLower(p)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return formatZip, nil
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return formatTarGz, nil
	default:
		return 0, fmt.Errorf(messages.FetchUnsupportedArchiveFmt, rawURL)
	}
}

// extract unpacks the archive at archivePath into dest, writing at most limit
// bytes of file content.
func extract(archivePath string, format archiveFormat, dest string, limit int64) error {
	switch format {
	case formatZip:
		reader, err := zip.OpenReader(archivePath)
		if err != nil {
			return fmt.Errorf(messages.FetchOpenArchiveFmt, archivePath, err)
		}
		defer func() { _ = reader.Close() }()
		return extractEntries(archivePath, zipWalker(reader.File), dest, limit)
	case formatTarGz:
		return extractEntries(archivePath, tarGzWalker(archivePath), dest, limit)
	default:
		return fmt.Errorf(messages.FetchUnsupportedArchiveFmt, archivePath)
	}
}

func zipWalker(files []*zip.File) walkFunc {
	return func(visit func(entry) error) error {
		for _, f := range files {
			e := entry{
				name: f.Name,
				mode: f.Mode(),
				open: func() (io.Reader, error) {
					return f.Open()
				},
			}
			if err := visit(e); err != nil {
				return err
			}
		}
		return nil
	}
}

// tarGzWalker reopens the archive on every walk since tar streams are forward-only.
func tarGzWalker(archivePath string) walkFunc {
	return func(visit func(entry) error) error {
		file, err := os.Open(archivePath)
		if err != nil {
			return fmt.Errorf(messages.FetchOpenArchiveFmt, archivePath, err)
		}
		defer func() { _ = file.Close() }()

		gz, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf(messages.FetchOpenArchiveFmt, archivePath, err)
		}
		defer func() { _ = gz.Close() }()

		tr := tar.NewReader(gz)
		for {
			hdr, err := tr.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf(messages.FetchReadArchiveFmt, archivePath, err)
			}
			// pax headers carry metadata (git archive stores the commit id there), not files.
			if hdr.Typeflag == tar.TypeXGlobalHeader || hdr.Typeflag == tar.TypeXHeader {
				continue
			}
			e := entry{
				name: hdr.Name,
				mode: hdr.FileInfo().Mode(),
				open: func() (io.Reader, error) { return tr, nil },
			}
			if err := visit(e); err != nil {
				return err
			}
		}
	}
}

func extractEntries(archivePath string, walk walkFunc, dest string, limit int64) error {
	var names []string
	if err := walk(func(e entry) error {
		names = append(names, e.name)
		return nil
	}); err != nil {
		return err
	}
	root := commonRoot(names)

	remaining := limit
	files := 0
	err := walk(func(e entry) error {
		target, err := entryPath(dest, e.name, root)
		if err != nil {
			return err
		}
		if target == "" {
			return nil
		}
		switch {
		case e.mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf(messages.FetchExtractEntryFmt, e.name, err)
			}
			return nil
		case e.mode.IsRegular():
			written, err := writeEntry(target, e, remaining)
			if err != nil {
				return err
			}
			remaining -= written
			files++
			return nil
		default:
			// Links and devices are not part of a starter app.
			return nil
		}
	})
	if err != nil {
		return err
	}
	if files == 0 {
		return fmt.Errorf(messages.FetchEmptyArchiveFmt, archivePath)
	}
	return nil
}

// writeEntry writes one regular file, failing once budget is exceeded.
func writeEntry(target string, e entry, budget int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf(messages.FetchExtractEntryFmt, e.name, err)
	}
	src, err := e.open()
	if err != nil {
		return 0, fmt.Errorf(messages.FetchExtractEntryFmt, e.name, err)
	}
	if closer, ok := src.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	perm := e.mode.Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return 0, fmt.Errorf(messages.FetchExtractEntryFmt, e.name, err)
	}
	n, copyErr := io.Copy(out, io.LimitReader(src, budget+1))
	closeErr := out.Close()
	if copyErr != nil {
		return n, fmt.Errorf(messages.FetchExtractEntryFmt, e.name, copyErr)
	}
	if closeErr != nil {
		return n, fmt.Errorf(messages.FetchExtractEntryFmt, e.name, closeErr)
	}
	if n > budget {
		return n, fmt.Errorf(messages.FetchExtractTooLargeFmt, budget)
	}
	// OpenFile perms are filtered by umask; restore the archived bits.
	if err := os.Chmod(target, perm); err != nil {
		return n, fmt.Errorf(messages.FetchExtractEntryFmt, e.name, err)
	}
	return n, nil
}

// commonRoot returns the single top-level directory shared by every name,
// or "" when the archive has no such wrapper.
func commonRoot(names []string) string {
	root := ""
	nested := false
	for _, name := range names {
		clean := strings.TrimPrefix(path.Clean(strings.TrimPrefix(name, "./")), "/")
		first, rest, found := strings.Cut(clean, "/")
		if root == "" {
			root = first
		} else if first != root {
			return ""
		}
		if found && rest != "" {
			nested = true
		} else if !strings.HasSuffix(name, "/") {
			// A top-level file means there is no wrapper directory.
			return ""
		}
	}
	if !nested {
		return ""
	}
	return root
}

// entryPath maps an archive name under dest. It returns "" for the stripped
// root itself and an error for names that would land outside dest.
func entryPath(dest string, name string, root string) (string, error) {
	slashed := strings.ReplaceAll(name, "\\", "/")
	if path.IsAbs(slashed) || !filepath.IsLocal(filepath.FromSlash(strings.TrimSuffix(slashed, "/"))) {
		return "", fmt.Errorf(messages.FetchUnsafeEntryFmt, name)
	}
	rel := path.Clean(strings.TrimPrefix(slashed, "./"))
	if root != "" {
		if rel == root {
			return "", nil
		}
		rel = strings.TrimPrefix(rel, root+"/")
	}
	if rel == "." || rel == "" {
		return "", nil
	}
	return filepath.Join(dest, filepath.FromSlash(rel)), nil
}

package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/conn-castle/scaffold/internal/catalog"
	"github.com/conn-castle/scaffold/internal/messages"
)

// cachedArchive returns the cached archive for a pinned template, downloading
// it under an exclusive lock when missing or corrupt.
func (c *Client) cachedArchive(ctx context.Context, tmpl catalog.Template) (string, error) {
	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf(messages.FetchCreateCacheDirFmt, c.cacheDir, err)
	}
	key := cacheKey(tmpl.URL)
	archivePath := filepath.Join(c.cacheDir, key+".archive")
	sumPath := archivePath + ".sha256"

	err := withCacheLock(ctx, archivePath+".lock", func() error {
		if c.cacheValid(archivePath, sumPath) {
			c.logger.Debug(messages.FetchCacheHitDebug, "template", tmpl.String(), "path", archivePath)
			return nil
		}

		tmp, err := os.CreateTemp(c.cacheDir, key+".tmp-*")
		if err != nil {
			return fmt.Errorf(messages.FetchCreateTempFileFmt, err)
		}
		tmpName := tmp.Name()
		committed := false
		defer func() {
			if !committed {
				_ = os.Remove(tmpName)
			}
		}()

		if err := c.download(ctx, tmpl, tmp); err != nil {
			_ = tmp.Close()
			return err
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf(messages.FetchCloseTempFileFmt, err)
		}
		sum, err := hashFile(tmpName)
		if err != nil {
			return err
		}
		if err := os.Rename(tmpName, archivePath); err != nil {
			return fmt.Errorf(messages.FetchMoveCachedArchiveFmt, err)
		}
		committed = true
		if err := os.WriteFile(sumPath, []byte(sum+"\n"), 0o644); err != nil {
			return fmt.Errorf(messages.FetchWriteChecksumFmt, sumPath, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return archivePath, nil
}

// cacheValid reports whether archivePath exists and matches its recorded checksum.
func (c *Client) cacheValid(archivePath string, sumPath string) bool {
	want, err := os.ReadFile(sumPath)
	if err != nil {
		return false
	}
	got, err := hashFile(archivePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Debug(err.Error())
		}
		return false
	}
	if strings.TrimSpace(string(want)) != got {
		c.logger.Warn(fmt.Sprintf(messages.FetchCacheChecksumMismatchFmt, archivePath))
		return false
	}
	return true
}

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// hashFile returns the hex SHA-256 of the file at path.
func hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf(messages.FetchOpenFileFmt, path, err)
	}
	defer func() { _ = file.Close() }()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf(messages.FetchHashFileFmt, path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

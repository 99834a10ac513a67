package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const DefaultSuffix = ".backup"

// PathFor returns the backup path of target.
func PathFor(target, suffix string) string {
	if strings.TrimSpace(suffix) == "" {
		suffix = DefaultSuffix
	}
	return target + suffix
}

// Create copies target byte-for-byte to PathFor(target, suffix), replacing
// an older backup only once the new copy is complete and synced. On failure
// the older backup, if any, is left as it was.
func Create(target, suffix string) (string, error) {
	dst := PathFor(target, suffix)
	if err := replaceFile(target, dst, ".backup-*"); err != nil {
		return "", err
	}
	return dst, nil
}

// Restore puts the backup of target back in place. The backup is kept.
func Restore(target, suffix string) (string, error) {
	src := PathFor(target, suffix)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}
	if err := replaceFile(src, target, ".restore-*"); err != nil {
		return "", err
	}
	return src, nil
}

// replaceFile copies src into a temp file next to dst and renames it over dst.
func replaceFile(src, dst, pattern string) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+pattern)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	_ = tmp.Close()
	if err := copyFile(src, tmpName); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	st, err := in.Stat()
	if err != nil {
		return err
	}
	if !st.Mode().IsRegular() {
		return fmt.Errorf("%s: not a regular file", src)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, st.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(dst)
		}
	}()

	if err := out.Chmod(st.Mode().Perm()); err != nil {
		return err
	}
	n, err := io.Copy(out, in)
	if err != nil {
		return err
	}
	if n != st.Size() {
		return fmt.Errorf("copied %d of %d bytes", n, st.Size())
	}
	if err := out.Sync(); err != nil {
		return err
	}
	return out.Close()
}

package playerdata

import (
	"crypto/md5"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ParseID accepts only the canonical 36-character hyphenated form used for
// player file names and returns it lower-cased.
func ParseID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) != 36 {
		return "", fmt.Errorf("player id %q: want 36-character hyphenated uuid", s)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("player id %q: %w", s, err)
	}
	return u.String(), nil
}

// OfflineID derives the uuid an offline-mode server assigns to a player
// name: a version 3 uuid over the MD5 of "OfflinePlayer:<name>".
func OfflineID(name string) string {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = sum[6]&0x0f | 0x30
	sum[8] = sum[8]&0x3f | 0x80
	return uuid.UUID(sum).String()
}

// FilePath returns <dir>/<id>.dat.
func FilePath(dir, id string) string {
	return filepath.Join(dir, id+".dat")
}

package audiox

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
)

// MD5File computes the hex-encoded MD5 digest of the file at path. The
// digest is a content identity for duplicate detection, not an integrity
// control, so MD5 is acceptable here.
func MD5File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

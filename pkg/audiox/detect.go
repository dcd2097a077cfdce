// Package audiox classifies uploaded audio files and fingerprints their
// contents. Detection is content-based (magic bytes) with an extension
// fallback for container formats the sniffer reports generically.
package audiox

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Sound types recognized by the platform.
const (
	TypeWav  = "wav"
	TypeAiff = "aif"
	TypeMP3  = "mp3"
	TypeFlac = "flac"
	TypeOgg  = "ogg"
	TypeM4A  = "m4a"
)

var mimeToType = map[string]string{
	"audio/wav":    TypeWav,
	"audio/x-wav":  TypeWav,
	"audio/aiff":   TypeAiff,
	"audio/x-aiff": TypeAiff,
	"audio/mpeg":   TypeMP3,
	"audio/flac":   TypeFlac,
	"audio/x-flac": TypeFlac,
	"audio/ogg":    TypeOgg,
	"audio/x-m4a":  TypeM4A,
	"audio/mp4":    TypeM4A,
}

var extToType = map[string]string{
	".wav":  TypeWav,
	".aif":  TypeAiff,
	".aiff": TypeAiff,
	".mp3":  TypeMP3,
	".flac": TypeFlac,
	".ogg":  TypeOgg,
	".oga":  TypeOgg,
	".m4a":  TypeM4A,
}

// DetectType returns the platform sound type for the file at path. The file
// contents decide; the extension is only consulted when sniffing yields no
// known audio MIME type. Unrecognized files map to the bare extension so the
// record still carries something displayable.
func DetectType(path string) (string, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}

	for m := mtype; m != nil; m = m.Parent() {
		if t, ok := mimeToType[strings.Split(m.String(), ";")[0]]; ok {
			return t, nil
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := extToType[ext]; ok {
		return t, nil
	}

	return strings.TrimPrefix(ext, "."), nil
}

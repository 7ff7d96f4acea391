package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/framewright/mediaio"
)

// ProfileExtension returns the container extension a codec profile needs
// for a file currently ending in ext, and whether it differs from ext.
func ProfileExtension(profile, ext string) (string, bool) {
	is := func(exts ...string) bool {
		for _, e := range exts {
			if strings.EqualFold(ext, e) {
				return true
			}
		}
		return false
	}
	switch {
	case strings.HasPrefix(profile, "ProRes"), profile == "HAP":
		if !is(".mov") {
			return ".mov", true
		}
	case profile == "VP9":
		if !is(".mp4", ".mkv", ".webm") {
			return ".mp4", true
		}
	case profile == "AV1":
		if !is(".mp4", ".mkv") {
			return ".mp4", true
		}
	case profile == "Cineform":
		if !is(".mkv") {
			return ".mkv", true
		}
	}
	return ext, false
}

// ResolvePath computes the file an export of file starting at startFrame
// writes to. A frame number in the name is replaced by startFrame and the
// codec profile may change the extension. A changed extension must not name
// an existing file.
func ResolvePath(file string, startFrame int64, profile string) (string, error) {
	p := mediaio.ParsePath(file)
	if p.IsSequence() {
		p = p.WithNumber(startFrame)
	}
	if ext, changed := ProfileExtension(profile, p.Extension); changed {
		logrus.WithFields(logrus.Fields{
			"function":  "ResolvePath",
			"profile":   profile,
			"extension": p.Extension,
			"new":       ext,
		}).Warn("Profile needs another movie extension, changing it")
		p = p.WithExtension(ext)
		resolved := p.String()
		if _, err := os.Stat(resolved); err == nil {
			return "", fmt.Errorf("%w: %s", ErrDestinationCollision, resolved)
		}
		return resolved, nil
	}
	return p.String(), nil
}

// samePath reports whether a and b name the same file.
func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	sa, err := os.Stat(a)
	if err != nil {
		return false
	}
	sb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(sa, sb)
}

func isReadable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

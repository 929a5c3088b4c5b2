package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ReadImage loads a file from disk for upload. The MIME type is sniffed
// from the content, not taken from the extension.
func ReadImage(path string) (Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Image{}, fmt.Errorf("stat image: %w", err)
	}
	if info.IsDir() {
		return Image{}, fmt.Errorf("%s is a directory", path)
	}
	name := filepath.Base(path)
	// Refuse to read something that will be rejected anyway, reporting
	// problems in the same order as ValidateImage.
	if err := validateImageName(name); err != nil {
		return Image{Name: name}, err
	}
	if info.Size() > MaxImageSize {
		return Image{Name: name}, validationError(ReasonSize, "file must be 5MB or smaller")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	return Image{Name: name, Type: DetectType(data), Data: data}, nil
}

// DetectType returns the bare MIME type of data, without parameters.
func DetectType(data []byte) string {
	mt := mimetype.Detect(data).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.TrimSpace(mt)
}

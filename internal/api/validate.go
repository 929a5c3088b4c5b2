package api

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// MaxImageSize is the largest upload the remote accepts.
const MaxImageSize = 5 * 1024 * 1024

var (
	imageNameRegexp = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

	allowedImageTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"}
)

// Image is a file to upload.
type Image struct {
	Name string
	Type string // MIME type
	Data []byte
}

// ValidateImage runs the local checks in order (filename, size, format) and
// reports the first one that fails.
func ValidateImage(img Image) error {
	if err := validateImageName(img.Name); err != nil {
		return err
	}
	if len(img.Data) > MaxImageSize {
		return validationError(ReasonSize, "file must be 5MB or smaller")
	}
	if !slices.Contains(allowedImageTypes, strings.ToLower(img.Type)) {
		return validationError(ReasonFormat,
			fmt.Sprintf("unsupported image type %q: use JPEG, PNG, GIF or WebP", img.Type))
	}
	return nil
}

func validateImageName(name string) error {
	if !imageNameRegexp.MatchString(name) {
		return validationError(ReasonFilename,
			"file name may only contain English letters, digits, '.', '_' and '-'")
	}
	return nil
}

func validateNewName(name string) error {
	if strings.TrimSpace(name) == "" {
		return validationError(ReasonName, "name cannot be empty")
	}
	return nil
}

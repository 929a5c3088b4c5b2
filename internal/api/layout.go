package api

import (
	"net/url"
	"strings"
)

// ImageRoute selects where uploads are posted.
type ImageRoute string

const (
	// ImageRouteTenant posts to /{tenant}/images/upload.
	ImageRouteTenant ImageRoute = "tenant"
	// ImageRouteShared posts to /images, outside any tenant.
	ImageRouteShared ImageRoute = "shared"
)

// ParseImageRoute falls back to ImageRouteTenant for unknown input.
func ParseImageRoute(s string) ImageRoute {
	if strings.EqualFold(strings.TrimSpace(s), string(ImageRouteShared)) {
		return ImageRouteShared
	}
	return ImageRouteTenant
}

// Layout builds resource paths for one tenant.
type Layout struct {
	Tenant string
	Images ImageRoute
}

func (l Layout) Items() string {
	return "/" + url.PathEscape(l.Tenant) + "/items"
}

func (l Layout) Item(id string) string {
	return l.Items() + "/" + url.PathEscape(id)
}

func (l Layout) ImageUpload() string {
	if l.Images == ImageRouteShared {
		return "/images"
	}
	return "/" + url.PathEscape(l.Tenant) + "/images/upload"
}

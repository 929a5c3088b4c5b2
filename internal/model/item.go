package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Key is the set of identifier types the remote API hands out.
// Deployments differ: some assign numeric ids, some opaque strings.
type Key interface {
	int64 | string
}

// Item is the domain model for a todo entry. The remote owns it; ID is
// assigned on create and never changes afterwards.
type Item[ID Key] struct {
	ID          ID      `json:"id"`
	TenantID    string  `json:"tenantId,omitempty"`
	Name        string  `json:"name"`
	Memo        *string `json:"memo"`
	ImageURL    *string `json:"imageUrl"`
	IsCompleted bool    `json:"isCompleted"`
}

// MemoText returns the memo or "" when unset.
func (i Item[ID]) MemoText() string {
	if i.Memo == nil {
		return ""
	}
	return *i.Memo
}

// ImageText returns the image url or "" when unset.
func (i Item[ID]) ImageText() string {
	if i.ImageURL == nil {
		return ""
	}
	return *i.ImageURL
}

// NewItem is the body of a create call. Name is required.
type NewItem struct {
	Name        string  `json:"name"`
	Memo        *string `json:"memo,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	IsCompleted *bool   `json:"isCompleted,omitempty"`
}

// Patch is a partial update. Nil fields are not sent, so the remote keeps
// their current value.
type Patch struct {
	Name        *string `json:"name,omitempty"`
	Memo        *string `json:"memo,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	IsCompleted *bool   `json:"isCompleted,omitempty"`
}

// Empty reports whether the patch carries no field at all.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Memo == nil && p.ImageURL == nil && p.IsCompleted == nil
}

// ApplyPatch returns a copy of it with the fields present in p written over.
func ApplyPatch[ID Key](it Item[ID], p Patch) Item[ID] {
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Memo != nil {
		memo := *p.Memo
		it.Memo = &memo
	}
	if p.ImageURL != nil {
		url := *p.ImageURL
		it.ImageURL = &url
	}
	if p.IsCompleted != nil {
		it.IsCompleted = *p.IsCompleted
	}
	return it
}

// ValidID reports whether id could have been assigned by the remote:
// positive for numeric ids, non-blank for string ids.
func ValidID[ID Key](id ID) bool {
	switch v := any(id).(type) {
	case int64:
		return v > 0
	case string:
		return strings.TrimSpace(v) != ""
	}
	return false
}

// ParseID converts user input (a CLI argument, a route segment) to an ID.
func ParseID[ID Key](s string) (ID, error) {
	var zero ID
	s = strings.TrimSpace(s)
	switch any(zero).(type) {
	case int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			return zero, fmt.Errorf("invalid id %q", s)
		}
		return any(n).(ID), nil
	default:
		if s == "" {
			return zero, fmt.Errorf("invalid id %q", s)
		}
		return any(s).(ID), nil
	}
}

// FormatID renders an ID for use in a URL path or on screen.
func FormatID[ID Key](id ID) string {
	switch v := any(id).(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case string:
		return v
	}
	return fmt.Sprint(id)
}

// Package models defines the content types of the magazine: the site
// index, per-issue metadata and the article summaries it lists.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SiteIndex is content/index.json. Issues are ordered oldest to newest.
type SiteIndex struct {
	Issues  []IssueSummary `json:"issues"`
	Authors []Author       `json:"authors,omitempty"`
	Support *SupportInfo   `json:"support,omitempty"`
}

// Issue returns the summary for slug.
func (s *SiteIndex) Issue(slug string) (IssueSummary, bool) {
	if s == nil {
		return IssueSummary{}, false
	}
	for _, is := range s.Issues {
		if is.Slug == slug {
			return is, true
		}
	}
	return IssueSummary{}, false
}

// IssueSummary is one entry of SiteIndex.Issues.
type IssueSummary struct {
	Slug     string `json:"slug"`
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
	Date     string `json:"date,omitempty"`
}

// SupportInfo feeds the support page. Every field is optional.
type SupportInfo struct {
	Title          string   `json:"title,omitempty"`
	Description    string   `json:"description,omitempty"`
	AdditionalInfo string   `json:"additionalInfo,omitempty"`
	Goals          []string `json:"goals,omitempty"`
	ButtonText     string   `json:"buttonText,omitempty"`
	PaypalLink     string   `json:"paypalLink,omitempty"`
}

// Empty reports whether there is nothing to render.
func (s *SupportInfo) Empty() bool {
	if s == nil {
		return true
	}
	return s.Title == "" && s.Description == "" && s.AdditionalInfo == "" &&
		len(s.Goals) == 0 && s.ButtonText == "" && s.PaypalLink == ""
}

// Author is a contributor. index.json and content.json describe authors
// differently; UnmarshalJSON folds both into this shape.
type Author struct {
	ID       string `json:"id,omitempty"`
	Initials string `json:"initials"`
	FullName string `json:"fullName"`
	Photo    string `json:"photo,omitempty"`
}

// UnmarshalJSON accepts {id, initials, fullName, photo} as well as the
// shorter {name, photo} form.
func (a *Author) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       json.RawMessage `json:"id"`
		Initials string          `json:"initials"`
		Name     string          `json:"name"`
		FullName string          `json:"fullName"`
		Photo    string          `json:"photo"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Author{
		ID:       rawID(raw.ID),
		Initials: firstNonEmpty(raw.Initials, raw.Name),
		FullName: firstNonEmpty(raw.FullName, raw.Name),
		Photo:    CleanAssetPath(raw.Photo),
	}
	return nil
}

// CleanAssetPath strips a leading "./" or "/" so asset paths stay
// relative to the site root.
func CleanAssetPath(p string) string {
	p = strings.TrimPrefix(p, "./")
	return strings.TrimPrefix(p, "/")
}

// AuthorRef points at an author either by numeric id or by inline name.
type AuthorRef struct {
	ID   string
	Name string
}

// IsZero reports whether the reference is empty.
func (r AuthorRef) IsZero() bool { return r.ID == "" && r.Name == "" }

// UnmarshalJSON treats numbers as ids and strings as names.
func (r *AuthorRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = AuthorRef{}
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		return json.Unmarshal(data, &r.Name)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		r.ID = n.String()
		return nil
	}
}

// MarshalJSON writes the reference back in the form it was read.
func (r AuthorRef) MarshalJSON() ([]byte, error) {
	if r.ID != "" {
		return []byte(r.ID), nil
	}
	if r.Name != "" {
		return json.Marshal(r.Name)
	}
	return []byte("null"), nil
}

// ArticleSummary is one listed article of an issue.
type ArticleSummary struct {
	Title       string    `json:"title"`
	Author      AuthorRef `json:"author,omitzero"`
	AuthorID    AuthorRef `json:"authorId,omitzero"`
	Category    string    `json:"category,omitempty"`
	File        string    `json:"file"`
	TeaserImage string    `json:"teaserImage,omitempty"`
	HeaderImage string    `json:"headerImage,omitempty"`
	MainImage   string    `json:"mainImage,omitempty"`
	HeaderAlt   string    `json:"headerAlt,omitempty"`
}

// AuthorRef returns authorId when set, otherwise author.
func (a ArticleSummary) AuthorRef() AuthorRef {
	if !a.AuthorID.IsZero() {
		return a.AuthorID
	}
	return a.Author
}

func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		return ""
	}
	return string(raw)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Validate checks that every issue has a slug and that slugs are unique.
func (s SiteIndex) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Issues, validation.By(uniqueSlugs)),
	)
}

// Validate requires a slug.
func (is IssueSummary) Validate() error {
	return validation.ValidateStruct(&is,
		validation.Field(&is.Slug, validation.Required),
	)
}

func uniqueSlugs(value any) error {
	issues, _ := value.([]IssueSummary)
	seen := make(map[string]struct{}, len(issues))
	for _, is := range issues {
		if _, dup := seen[is.Slug]; dup {
			return fmt.Errorf("duplicate slug %q", is.Slug)
		}
		seen[is.Slug] = struct{}{}
	}
	return nil
}

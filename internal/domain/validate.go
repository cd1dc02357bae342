package domain

import (
	_ "embed"
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed schema.yaml
var schemaYAML []byte

// fieldRule is one entry of the declarative request schema.
type fieldRule struct {
	Name             string   `yaml:"name"`
	Type             string   `yaml:"type"` // string | uri | number | boolean | date | tags
	RequiredOnCreate bool     `yaml:"required_on_create"`
	Min              *float64 `yaml:"min,omitempty"`
	Max              *float64 `yaml:"max,omitempty"`
}

type requestSchema struct {
	Fields []fieldRule `yaml:"fields"`
}

var schema = mustLoadSchema()

func mustLoadSchema() requestSchema {
	var s requestSchema
	if err := yaml.Unmarshal(schemaYAML, &s); err != nil {
		panic(fmt.Sprintf("failed to parse request schema: %v", err))
	}
	return s
}

// ValidationError carries a client-facing message for a 400 response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ValidateCreate checks a create request body against the schema,
// enforcing every field marked required_on_create.
func ValidateCreate(req *BookmarkRequest) error {
	return validate(req, true)
}

// ValidateUpdate checks an update request body against the schema.
// Only the record id is mandatory; all other fields are optional.
func ValidateUpdate(req *BookmarkRequest) error {
	if strings.TrimSpace(req.ID) == "" {
		return invalid("Field 'id' is required")
	}
	return validate(req, false)
}

func validate(req *BookmarkRequest, create bool) error {
	for _, rule := range schema.Fields {
		present, value := fieldValue(req, rule.Name)

		if create && rule.RequiredOnCreate {
			if !present || strings.TrimSpace(value) == "" {
				return invalid("Field '%s' is required", rule.Name)
			}
		}
		if !present {
			continue
		}

		switch rule.Type {
		case "uri":
			// Optional URI fields may be cleared with an empty string.
			if value == "" && !rule.RequiredOnCreate {
				continue
			}
			u, err := url.Parse(value)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return invalid("Field '%s' must be a valid URI", rule.Name)
			}
		case "number":
			n := float64(*req.Importance)
			if rule.Min != nil && n < *rule.Min {
				return invalid("Field '%s' must be at least %v", rule.Name, *rule.Min)
			}
			if rule.Max != nil && n > *rule.Max {
				return invalid("Field '%s' must be at most %v", rule.Name, *rule.Max)
			}
		case "tags":
			for _, tag := range req.Tags {
				if strings.TrimSpace(tag.Label) == "" && strings.TrimSpace(tag.Value) == "" {
					return invalid("Field 'tags' entries must carry a label or value")
				}
			}
		}
	}
	return nil
}

// fieldValue reports whether the named field is present in the request
// and its string form where the rule needs one.
func fieldValue(req *BookmarkRequest, name string) (present bool, value string) {
	switch name {
	case "url":
		if req.URL != nil {
			return true, *req.URL
		}
	case "title":
		if req.Title != nil {
			return true, *req.Title
		}
	case "category":
		if req.Category != nil {
			return true, *req.Category
		}
	case "description":
		if req.Description != nil {
			return true, *req.Description
		}
	case "author":
		if req.Author != nil {
			return true, *req.Author
		}
	case "content_text":
		if req.ContentText != nil {
			return true, *req.ContentText
		}
	case "content_html":
		if req.ContentHTML != nil {
			return true, *req.ContentHTML
		}
	case "content_type":
		if req.ContentType != nil {
			return true, *req.ContentType
		}
	case "content_published_date":
		if req.ContentPublishedDate != nil {
			return true, ""
		}
	case "note":
		if req.Note != nil {
			return true, *req.Note
		}
	case "main_image_url":
		if req.MainImageURL != nil {
			return true, *req.MainImageURL
		}
	case "icon_url":
		if req.IconURL != nil {
			return true, *req.IconURL
		}
	case "importance":
		if req.Importance != nil {
			return true, ""
		}
	case "flagged":
		if req.Flagged != nil {
			return true, ""
		}
	case "tags":
		if req.Tags != nil {
			return true, ""
		}
	}
	return false, ""
}

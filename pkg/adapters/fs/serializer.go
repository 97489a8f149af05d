package fs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/adrg/frontmatter"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/postbed/postbed/pkg/core"
)

// Front matter output formats supported by the markdown serializer.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Serializer defines how to read and write a specific file format.
type Serializer interface {
	// Parse reads from r and returns a Post (without ID; the repository fills it in).
	Parse(r io.Reader) (*core.Post, error)
	// Serialize converts the Post to bytes.
	Serialize(p core.Post) ([]byte, error)
}

// DefaultSerializers returns the standard set of serializers.
// format selects the front matter dialect written for markdown files;
// reading always auto-detects (YAML ---, TOML +++, JSON {).
func DefaultSerializers(format string) map[string]Serializer {
	return map[string]Serializer{
		".md":       NewMarkdownSerializer(format),
		".markdown": NewMarkdownSerializer(format),
		".json":     &JSONSerializer{},
		".yaml":     &YAMLSerializer{},
		".yml":      &YAMLSerializer{},
	}
}

// --- Markdown Serializer ---

// MarkdownSerializer handles posts stored as markdown with front matter.
type MarkdownSerializer struct {
	// Format is the dialect used when writing front matter (yaml or toml).
	Format string
}

// NewMarkdownSerializer creates a markdown serializer writing the given
// front matter dialect. Empty means YAML.
func NewMarkdownSerializer(format string) *MarkdownSerializer {
	if format == "" {
		format = FormatYAML
	}
	return &MarkdownSerializer{Format: format}
}

func (s *MarkdownSerializer) Parse(r io.Reader) (*core.Post, error) {
	meta := make(core.Metadata)

	// adrg/frontmatter auto-detects the delimiter dialect and hands back
	// the body with the front matter block stripped.
	body, err := frontmatter.Parse(r, &meta)
	if err != nil {
		return nil, fmt.Errorf("failed to parse front matter: %w", err)
	}

	return &core.Post{
		Body: string(body),
		Meta: meta,
	}, nil
}

func (s *MarkdownSerializer) Serialize(p core.Post) ([]byte, error) {
	var buf bytes.Buffer

	if len(p.Meta) > 0 {
		switch s.Format {
		case FormatTOML:
			buf.WriteString("+++\n")
			enc := toml.NewEncoder(&buf)
			if err := enc.Encode(map[string]any(p.Meta)); err != nil {
				return nil, fmt.Errorf("failed to encode toml front matter: %w", err)
			}
			buf.WriteString("+++\n")
		case FormatYAML, "":
			buf.WriteString("---\n")
			enc := yaml.NewEncoder(&buf)
			enc.SetIndent(2)
			if err := enc.Encode(map[string]any(p.Meta)); err != nil {
				return nil, fmt.Errorf("failed to encode yaml front matter: %w", err)
			}
			enc.Close()
			buf.WriteString("---\n")
		default:
			return nil, fmt.Errorf("unsupported front matter format: %s", s.Format)
		}
	}

	buf.WriteString(p.Body)
	return buf.Bytes(), nil
}

// --- YAML Serializer ---

// YAMLSerializer handles posts stored as plain YAML documents.
// The body lives under the "body" key; everything else is metadata.
type YAMLSerializer struct{}

func (s *YAMLSerializer) Parse(r io.Reader) (*core.Post, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}

	return splitBody(payload), nil
}

func (s *YAMLSerializer) Serialize(p core.Post) ([]byte, error) {
	return yaml.Marshal(joinBody(p))
}

// --- JSON Serializer ---

// JSONSerializer handles posts stored as JSON documents.
type JSONSerializer struct{}

func (s *JSONSerializer) Parse(r io.Reader) (*core.Post, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}

	return splitBody(payload), nil
}

func (s *JSONSerializer) Serialize(p core.Post) ([]byte, error) {
	return json.MarshalIndent(joinBody(p), "", "  ")
}

// --- Helpers ---

func splitBody(payload map[string]any) *core.Post {
	post := &core.Post{Meta: make(core.Metadata, len(payload))}
	for k, v := range payload {
		if k == "body" {
			if s, ok := v.(string); ok {
				post.Body = s
				continue
			}
		}
		post.Meta[k] = v
	}
	return post
}

func joinBody(p core.Post) map[string]any {
	payload := make(map[string]any, len(p.Meta)+1)
	for k, v := range p.Meta {
		payload[k] = v
	}
	payload["body"] = p.Body
	return payload
}

// SupportedExtensions returns the registered extensions in sorted order.
func SupportedExtensions(serializers map[string]Serializer) []string {
	exts := make([]string, 0, len(serializers))
	for ext := range serializers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

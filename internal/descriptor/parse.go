package descriptor

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies the descriptor document encoding.
type Format string

const (
	// FormatAuto infers the format from the URL extension and Content-Type.
	FormatAuto Format = "auto"
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Formats lists the accepted format names for validation and help text.
var Formats = []Format{FormatAuto, FormatXML, FormatJSON, FormatTOML, FormatYAML}

// ParseFormat validates a configured format name. The empty string means auto.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatAuto, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown descriptor format %q", s)
}

// DetectFormat guesses the document format from the URL and Content-Type.
// Defaults to XML, which is what pom-style descriptors ship as.
func DetectFormat(url, contentType string) Format {
	lower := strings.ToLower(url)
	switch {
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON
	case strings.HasSuffix(lower, ".toml"):
		return FormatTOML
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return FormatYAML
	case strings.HasSuffix(lower, ".xml"), strings.HasSuffix(lower, ".pom"):
		return FormatXML
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "json"):
		return FormatJSON
	case strings.Contains(ct, "toml"):
		return FormatTOML
	case strings.Contains(ct, "yaml"):
		return FormatYAML
	}
	return FormatXML
}

// ExtractVersion pulls the version string out of a descriptor document.
// Returns ErrParse when the document is malformed or carries no version field.
func ExtractVersion(doc []byte, format Format) (string, error) {
	var (
		version string
		err     error
	)
	switch format {
	case FormatXML:
		version, err = extractXML(doc)
	case FormatJSON:
		version, err = extractJSON(doc)
	case FormatTOML:
		version, err = extractTOML(doc)
	case FormatYAML:
		version, err = extractYAML(doc)
	default:
		return "", fmt.Errorf("%w: unknown format %q", ErrParse, format)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}
	version = strings.TrimSpace(version)
	if version == "" {
		return "", fmt.Errorf("%w: no version field in %s descriptor", ErrParse, format)
	}
	return version, nil
}

// extractXML streams the document and returns the text of the first <version>
// element, wherever it sits in the tree (a pom.xml has several; the first one
// is the project's own).
func extractXML(doc []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "version" {
			continue
		}
		var text string
		if err := dec.DecodeElement(&text, &start); err != nil {
			return "", err
		}
		return text, nil
	}
}

// extractJSON reads a top-level "version" key, falling back to the
// GitHub-release "tag_name" with its leading "v" trimmed.
func extractJSON(doc []byte) (string, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(doc, &m); err != nil {
		return "", err
	}
	return versionFromMap(m), nil
}

func extractTOML(doc []byte) (string, error) {
	var m map[string]interface{}
	if err := toml.Unmarshal(doc, &m); err != nil {
		return "", err
	}
	return versionFromMap(m), nil
}

func extractYAML(doc []byte) (string, error) {
	var m map[string]interface{}
	if err := yaml.Unmarshal(doc, &m); err != nil {
		return "", err
	}
	return versionFromMap(m), nil
}

func versionFromMap(m map[string]interface{}) string {
	if v, ok := m["version"].(string); ok && v != "" {
		return v
	}
	if tag, ok := m["tag_name"].(string); ok && tag != "" {
		return strings.TrimPrefix(tag, "v")
	}
	return ""
}

package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"solinntec-site/pkg/content"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatTS   Format = "ts"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ExportMarker precedes the content object in .ts content files.
const ExportMarker = "export const siteData ="

const tsHeader = `
/**
 * ARCHIVO DE CONFIGURACIÓN MAESTRO - SOLINNTEC
 * V2.2 - Configuración total de activos y enlaces
 * (Updated via Web Editor)
 */

`

var ErrUnsupportedFormat = errors.New("unsupported content format")

// FormatFor picks the codec from the content file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".js":
		return FormatTS, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

func Decode(format Format, data []byte) (content.Tree, error) {
	var raw map[string]interface{}
	switch format {
	case FormatTS:
		str := string(data)
		idx := strings.Index(str, ExportMarker)
		if idx < 0 {
			return nil, fmt.Errorf("decode ts: missing %q", ExportMarker)
		}
		body := strings.TrimSpace(str[idx+len(ExportMarker):])
		body = strings.TrimSuffix(body, ";")
		if err := json.Unmarshal([]byte(body), &raw); err != nil {
			return nil, fmt.Errorf("decode ts: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%s: %w", format, ErrUnsupportedFormat)
	}
	if raw == nil {
		return nil, fmt.Errorf("decode %s: empty document", format)
	}
	return content.Tree(sanitizeMap(raw)), nil
}

// Encode renders the tree in the canonical text form of the given format.
func Encode(format Format, tree content.Tree) ([]byte, error) {
	if tree == nil {
		return nil, errors.New("encode: nil tree")
	}
	root := sanitizeMap(tree)

	var buf bytes.Buffer
	switch format {
	case FormatTS:
		body, err := encodeJSON(root)
		if err != nil {
			return nil, err
		}
		buf.WriteString(tsHeader)
		buf.WriteString(ExportMarker)
		buf.WriteString(" ")
		buf.Write(body)
		buf.WriteString(";\n")
	case FormatJSON:
		body, err := encodeJSON(root)
		if err != nil {
			return nil, err
		}
		buf.Write(body)
		buf.WriteString("\n")
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(root); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
	case FormatTOML:
		enc := toml.NewEncoder(&buf)
		if err := enc.Encode(root); err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%s: %w", format, ErrUnsupportedFormat)
	}
	return buf.Bytes(), nil
}

func encodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func sanitizeMap(m map[string]interface{}) map[string]interface{} {
	sanitized := make(map[string]interface{}, len(m))
	for k, v := range m {
		sanitized[k] = sanitizeValue(v)
	}
	return sanitized
}

func sanitizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case content.Tree:
		return sanitizeMap(v)
	case map[string]interface{}:
		return sanitizeMap(v)
	case map[interface{}]interface{}:
		normalized := make(map[string]interface{}, len(v))
		for key, inner := range v {
			normalized[fmt.Sprint(key)] = sanitizeValue(inner)
		}
		return normalized
	case []interface{}:
		slice := make([]interface{}, len(v))
		for i := range v {
			slice[i] = sanitizeValue(v[i])
		}
		return slice
	case []map[string]interface{}:
		slice := make([]interface{}, len(v))
		for i := range v {
			slice[i] = sanitizeMap(v[i])
		}
		return slice
	case []string:
		slice := make([]interface{}, len(v))
		for i := range v {
			slice[i] = v[i]
		}
		return slice
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case toml.LocalDate:
		return v.String()
	case toml.LocalTime:
		return v.String()
	case toml.LocalDateTime:
		return v.String()
	default:
		return v
	}
}

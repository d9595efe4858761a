package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of a catalog extension.
type File struct {
	NodeTypes []NodeType `json:"nodeTypes" toml:"node_types" yaml:"node_types"`
	Rules     []Rule     `json:"rules" toml:"rules" yaml:"rules"`
}

type decodeFunc func(data []byte, v any) error

var decoders = map[string]decodeFunc{
	".toml": toml.Unmarshal,
	".yaml": yaml.Unmarshal,
	".yml":  yaml.Unmarshal,
	".json": json.Unmarshal,
}

// Formats returns the supported file extensions.
func Formats() []string {
	return []string{".toml", ".yaml", ".yml", ".json"}
}

// LoadFile reads a catalog extension, choosing the parser by file extension.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("reading catalog file: %w", err)
	}
	f, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return File{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// Decode parses data in the format named by ext (".toml", ".yaml", ".yml" or ".json").
func Decode(data []byte, ext string) (File, error) {
	decode, ok := decoders[strings.ToLower(ext)]
	if !ok {
		return File{}, fmt.Errorf("unsupported catalog format %q", ext)
	}
	var f File
	if err := decode(data, &f); err != nil {
		return File{}, err
	}
	return f, nil
}

package progression

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCurve []byte

type document struct {
	EndLevel int     `yaml:"end_level"`
	Levels   []Level `yaml:"levels"`
}

// Load parses a YAML level curve.
func Load(r io.Reader) (*Table, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode level curve: %w", err)
	}
	return NewTable(doc.EndLevel, doc.Levels)
}

// LoadFile parses the level curve at path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Default returns a fresh table for the built-in curve.
func Default() *Table {
	t, err := Load(bytes.NewReader(defaultCurve))
	if err != nil {
		panic(fmt.Sprintf("built-in level curve: %v", err))
	}
	return t
}

// Package sigdb loads signature databases from disk.
//
// A database is either a bare list of {name, pattern} entries or a document
// with a top-level "signatures" list. JSON and YAML are both accepted.
package sigdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/coral-mesh/sigscan/internal/constants"
	"github.com/coral-mesh/sigscan/internal/safe"
	"github.com/coral-mesh/sigscan/internal/signature"
)

// Format is the encoding of a database file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document is the object form of a database.
type Document struct {
	Signatures []signature.Signature `json:"signatures" yaml:"signatures" jsonschema:"required,description=Signatures to scan for"`
}

// Database is a loaded signature database.
type Database struct {
	Path       string
	Format     Format
	Signatures []signature.Signature
	// LoadTime covers reading and decoding the file.
	LoadTime time.Duration
}

// FormatFor picks the decoder for path by extension. Anything that is not
// .yaml or .yml is treated as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Loader reads signature databases.
type Loader struct {
	logger  zerolog.Logger
	maxSize int64
}

// NewLoader creates a Loader that refuses files larger than
// constants.MaxSignatureDBSize.
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{
		logger:  logger.With().Str("component", "sigdb").Logger(),
		maxSize: constants.MaxSignatureDBSize,
	}
}

// Load reads and decodes the database at path. Entries are returned as
// written; pattern validation happens at compile time.
func (l *Loader) Load(path string) (*Database, error) {
	start := time.Now()

	data, err := safe.ReadFile(path, &safe.ReadOptions{MaxSize: l.maxSize, AllowSymlinks: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read signature database: %w", err)
	}

	format := FormatFor(path)
	sigs, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signature database %s: %w", path, err)
	}

	db := &Database{
		Path:       path,
		Format:     format,
		Signatures: sigs,
		LoadTime:   time.Since(start),
	}

	l.logger.Debug().
		Str("path", path).
		Str("format", string(format)).
		Int("entries", len(sigs)).
		Dur("load_time", db.LoadTime).
		Msg("Loaded signature database")

	return db, nil
}

// Parse decodes a database in the given format.
func Parse(data []byte, format Format) ([]signature.Signature, error) {
	switch format {
	case FormatYAML:
		return parseYAML(data)
	case FormatJSON:
		return parseJSON(data)
	}
	return nil, fmt.Errorf("unsupported database format %q", format)
}

func parseJSON(data []byte) ([]signature.Signature, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	if trimmed[0] == '[' {
		var sigs []signature.Signature
		if err := json.Unmarshal(trimmed, &sigs); err != nil {
			return nil, err
		}
		return sigs, nil
	}

	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	if doc.Signatures == nil {
		return nil, fmt.Errorf("document has no \"signatures\" list")
	}
	return doc.Signatures, nil
}

func parseYAML(data []byte) ([]signature.Signature, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	node := root.Content[0]
	switch node.Kind {
	case yaml.SequenceNode:
		var sigs []signature.Signature
		if err := node.Decode(&sigs); err != nil {
			return nil, err
		}
		return sigs, nil
	case yaml.MappingNode:
		var doc Document
		if err := node.Decode(&doc); err != nil {
			return nil, err
		}
		if doc.Signatures == nil {
			return nil, fmt.Errorf("document has no \"signatures\" list")
		}
		return doc.Signatures, nil
	}
	return nil, fmt.Errorf("expected a list or a mapping at the top level")
}

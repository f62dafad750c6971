// Package expect loads expected comparison outcomes and reconciles them
// with actual results.
package expect

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/emenda-labs/stubcheck/core/compare"
	"github.com/emenda-labs/stubcheck/core/stuberr"
)

// Table maps a qualified symbol name to the outcome it is expected to
// have. Symbols absent from the table are expected to match.
type Table map[string]compare.MatchResult

// Parse validates raw outcome strings into a Table.
func Parse(raw map[string]string) (Table, error) {
	t := make(Table, len(raw))
	for name, value := range raw {
		r, err := compare.ParseMismatch(value)
		if err != nil {
			return nil, err
		}
		t[name] = r
	}
	return t, nil
}

// Load reads an expectations file. JSON is assumed unless the file has a
// .yaml or .yml extension. An empty path yields an empty table; a
// missing file is logged as a warning and also yields an empty table.
func Load(path string, logger *slog.Logger) (Table, error) {
	if path == "" {
		return Table{}, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("provided file for expected mismatches not found", "path", path)
		return Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading expectations: %w", err)
	}

	raw, err := decode(path, data)
	if err != nil {
		return nil, stuberr.Wrap(stuberr.InvalidExpectation, err, "parsing %s", path)
	}

	t, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded expectations", "path", path, "entries", len(t))
	return t, nil
}

func decode(path string, data []byte) (map[string]string, error) {
	raw := map[string]string{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}

	if raw == nil {
		// a literal null document
		return nil, errors.New("expected an object of symbol names")
	}
	return raw, nil
}

// JSONSchema describes the expectations file format.
func (Table) JSONSchema() *jsonschema.Schema {
	var outcomes []any
	for _, r := range compare.MatchResults {
		if r != compare.Match {
			outcomes = append(outcomes, string(r))
		}
	}
	return &jsonschema.Schema{
		Type:        "object",
		Title:       "stubcheck expected mismatches",
		Description: "Maps qualified symbol names to the comparison outcome they are expected to have.",
		AdditionalProperties: &jsonschema.Schema{
			Type: "string",
			Enum: outcomes,
		},
	}
}

// Schema returns the indented JSON schema of the expectations file.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := reflector.Reflect(Table{})
	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

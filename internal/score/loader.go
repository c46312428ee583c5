package score

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// schemaFile is the embedded schema filename.
const schemaFile = "score-schema.json"

// Loader sentinel errors.
var (
	// ErrUnsupportedFormat indicates a file extension the loader does not handle.
	ErrUnsupportedFormat = errors.New("unsupported score format")
	// ErrSchema indicates the JSON document does not match the score schema.
	ErrSchema = errors.New("score does not match schema")
)

// Load reads a score from disk, dispatching on the file extension:
// .json for the editor's score format, .mid/.midi for Standard MIDI files.
func Load(path string) (*Score, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(path)
	case ".mid", ".midi":
		return LoadMIDI(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// LoadJSON reads, schema-checks, and validates a JSON score file.
func LoadJSON(path string) (*Score, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open score: %w", err)
	}
	defer file.Close()

	s, err := DecodeJSON(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	return s, nil
}

// DecodeJSON decodes a JSON score from r, checking the raw document against
// the embedded schema before unmarshalling and the resulting model against
// the domain invariants after.
func DecodeJSON(r io.Reader) (*Score, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read score: %w", err)
	}

	err = ValidateSchema(data)
	if err != nil {
		return nil, err
	}

	var s Score

	err = json.Unmarshal(data, &s)
	if err != nil {
		return nil, fmt.Errorf("unmarshal score: %w", err)
	}

	err = s.Validate()
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// SchemaResult runs the embedded schema over raw JSON bytes and returns the
// detailed result for callers that report per-field findings.
func SchemaResult(data []byte) (*gojsonschema.Result, error) {
	schemaBytes, err := SchemaFS.ReadFile(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("read embedded schema: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	return result, nil
}

// ValidateSchema checks raw JSON bytes against the embedded score schema
// and folds any findings into a single ErrSchema-wrapped error.
func ValidateSchema(data []byte) error {
	result, err := SchemaResult(data)
	if err != nil {
		return err
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
	}

	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
}

// EncodeJSON writes the score as indented JSON, matching the editor's
// on-disk layout.
func EncodeJSON(w io.Writer, s *Score) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(s)
	if err != nil {
		return fmt.Errorf("encode score: %w", err)
	}

	return nil
}

// SaveJSON writes the score to a file via EncodeJSON.
func SaveJSON(path string, s *Score) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create score file: %w", err)
	}
	defer file.Close()

	err = EncodeJSON(file, s)
	if err != nil {
		return err
	}

	return nil
}

package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4/v4"
)

// lz4Extension marks traces stored with frame compression; the JSON stream
// is wrapped in an LZ4 frame and stays readable by the standard lz4 tools.
const lz4Extension = ".lz4"

// jsonIndent is the indentation for uncompressed trace files.
const jsonIndent = "  "

// Save writes the trace to path as indented JSON. Paths ending in .lz4
// are compressed; Load reverses both forms.
func Save(path string, tr *Trace) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trace file: %w", err)
	}
	defer file.Close()

	var w io.Writer = file

	var zw *lz4.Writer

	if strings.HasSuffix(path, lz4Extension) {
		zw = lz4.NewWriter(file)
		w = zw
	}

	encoder := json.NewEncoder(w)
	if zw == nil {
		encoder.SetIndent("", jsonIndent)
	}

	err = encoder.Encode(tr)
	if err != nil {
		return fmt.Errorf("encode trace: %w", err)
	}

	if zw != nil {
		err = zw.Close()
		if err != nil {
			return fmt.Errorf("flush compressed trace: %w", err)
		}
	}

	return nil
}

// Load reads a trace written by Save, transparently decompressing .lz4
// paths.
func Load(path string) (*Trace, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	defer file.Close()

	var r io.Reader = file

	if strings.HasSuffix(path, lz4Extension) {
		r = lz4.NewReader(file)
	}

	var tr Trace

	err = json.NewDecoder(r).Decode(&tr)
	if err != nil {
		return nil, fmt.Errorf("decode trace: %w", err)
	}

	return &tr, nil
}

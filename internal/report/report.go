// Package report renders extraction results for files and terminals.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/a3tai/process-extractor/internal/config"
	"github.com/a3tai/process-extractor/internal/model"
)

// Write encodes res to w in the given format.
func Write(w io.Writer, res *model.Result, format string) error {
	switch format {
	case config.FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(res)
	case config.FormatYAML:
		return writeYAML(w, res)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// writeYAML goes through JSON so the YAML keys are the JSON field names.
// JSON is valid YAML; the decoded node tree is re-emitted in block style.
func writeYAML(w io.Writer, res *model.Result) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(buf.Bytes(), &node); err != nil {
		return fmt.Errorf("failed to convert result: %w", err)
	}
	blockStyle(&node)

	ye := yaml.NewEncoder(w)
	ye.SetIndent(2)
	if err := ye.Encode(&node); err != nil {
		return fmt.Errorf("failed to write yaml: %w", err)
	}
	return ye.Close()
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// Extension returns the file extension for format.
func Extension(format string) string {
	if format == config.FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// OutputPath is where the result for input is written inside dir.
func OutputPath(dir, input, format string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, base+Extension(format))
}

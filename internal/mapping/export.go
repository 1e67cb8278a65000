package mapping

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const exportHeader = "LLM Form Filler Mappings:"

// WriteText writes a human readable listing of the matched entries of m with their resolved values.
func WriteText(w io.Writer, m FieldMapping, plan FillPlan) error {
	if _, err := fmt.Fprintf(w, "%s\n\n", exportHeader); err != nil {
		return err
	}

	for _, e := range m {
		if !e.Target.Matched() {
			continue
		}
		if _, err := fmt.Fprintf(w, "%q: %q (from profile key: %s)\n", e.Label, plan[e.Label], e.Target); err != nil {
			return err
		}
	}

	return nil
}

// ExportText returns the listing produced by WriteText.
func ExportText(m FieldMapping, plan FillPlan) string {
	var sb strings.Builder
	_ = WriteText(&sb, m, plan)
	return sb.String()
}

// ExportTextFile writes the listing to path.
func ExportTextFile(path string, m FieldMapping, plan FillPlan) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	if err := WriteText(f, m, plan); err != nil {
		f.Close()
		return fmt.Errorf("failed to write export file: %w", err)
	}

	return f.Close()
}

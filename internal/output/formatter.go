// Package output renders lint and code path reports as text, tables, JSON,
// YAML or TOON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	toon "github.com/toon-format/toon-go"
	"gopkg.in/yaml.v3"

	"github.com/panbanda/jsflow/pkg/linter"
)

// Format represents an output format.
type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTOON  Format = "toon"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatTable, FormatJSON, FormatYAML, FormatTOON}

// ParseFormat converts a string to a Format. The empty string is text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text", "stylish":
		return FormatText, nil
	case "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toon":
		return FormatTOON, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Renderable is data that knows its human-readable layouts. Machine formats
// serialize RenderData.
type Renderable interface {
	RenderText(w io.Writer, colored bool) error
	RenderTable(w io.Writer, colored bool) error
	RenderData() any
}

// Formatter writes Renderables in one format.
type Formatter struct {
	format  Format
	writer  io.Writer
	file    *os.File
	colored bool
}

// NewFormatter writes to stdout, or to the file at output when it is set.
// File output is never colored.
func NewFormatter(format Format, output string, colored bool) (*Formatter, error) {
	if output == "" {
		return New(format, os.Stdout, colored), nil
	}
	f, err := os.Create(output)
	if err != nil {
		return nil, err
	}
	fm := New(format, f, false)
	fm.file = f
	return fm, nil
}

// New creates a formatter over w.
func New(format Format, w io.Writer, colored bool) *Formatter {
	return &Formatter{format: format, writer: w, colored: colored}
}

// Close closes the output file, if any.
func (f *Formatter) Close() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}

// Writer returns the underlying writer.
func (f *Formatter) Writer() io.Writer {
	return f.writer
}

// Format returns the configured format.
func (f *Formatter) Format() Format {
	return f.format
}

// Colored reports whether output is colored.
func (f *Formatter) Colored() bool {
	return f.colored
}

// Output renders r.
func (f *Formatter) Output(r Renderable) error {
	switch f.format {
	case FormatTable:
		return r.RenderTable(f.writer, f.colored)
	case FormatJSON:
		return f.outputJSON(r.RenderData())
	case FormatYAML:
		return f.outputYAML(r.RenderData())
	case FormatTOON:
		return f.outputTOON(r.RenderData())
	default:
		return r.RenderText(f.writer, f.colored)
	}
}

func (f *Formatter) outputJSON(data any) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (f *Formatter) outputYAML(data any) error {
	enc := yaml.NewEncoder(f.writer)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

func (f *Formatter) outputTOON(data any) error {
	out, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f.writer, string(out))
	return err
}

// Success prints a green message.
func (f *Formatter) Success(format string, args ...any) {
	if f.colored {
		color.New(color.FgGreen).Fprintf(f.writer, format+"\n", args...)
		return
	}
	fmt.Fprintf(f.writer, format+"\n", args...)
}

// Warning prints a yellow message.
func (f *Formatter) Warning(format string, args ...any) {
	if f.colored {
		color.New(color.FgYellow).Fprintf(f.writer, format+"\n", args...)
		return
	}
	fmt.Fprintf(f.writer, "WARNING: "+format+"\n", args...)
}

// SeverityColor colors text by lint severity.
func SeverityColor(sev linter.Severity, text string) string {
	switch sev {
	case linter.SeverityError:
		return color.RedString(text)
	case linter.SeverityWarn:
		return color.YellowString(text)
	default:
		return text
	}
}

// newTable builds a borderless, left-aligned table.
func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
			Footer: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{
				Left:   tw.Off,
				Right:  tw.Off,
				Top:    tw.Off,
				Bottom: tw.Off,
			},
			Settings: tw.Settings{
				Separators: tw.Separators{
					BetweenColumns: tw.Off,
				},
			},
		}),
	)
}

// Table is a plain Renderable table.
type Table struct {
	Title   string     `json:"-" yaml:"-"`
	Headers []string   `json:"-" yaml:"-"`
	Rows    [][]string `json:"-" yaml:"-"`
	Footer  []string   `json:"-" yaml:"-"`
	Data    any        `json:"data,omitempty" yaml:"data,omitempty"`
}

// RenderData returns Data, or the rows keyed by header.
func (t *Table) RenderData() any {
	if t.Data != nil {
		return t.Data
	}
	out := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]string, len(t.Headers))
		for j, h := range t.Headers {
			if j < len(row) {
				m[h] = row[j]
			}
		}
		out[i] = m
	}
	return out
}

// RenderText renders the table; text and table layouts coincide.
func (t *Table) RenderText(w io.Writer, colored bool) error {
	return t.RenderTable(w, colored)
}

// RenderTable writes the title and the table.
func (t *Table) RenderTable(w io.Writer, colored bool) error {
	if t.Title != "" {
		if colored {
			color.New(color.Bold).Fprintln(w, t.Title)
		} else {
			fmt.Fprintln(w, t.Title)
		}
		fmt.Fprintln(w, strings.Repeat("=", len(t.Title)))
		fmt.Fprintln(w)
	}

	table := newTable(w)
	table.Header(t.Headers)
	for _, row := range t.Rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if len(t.Footer) > 0 {
		footer := make([]any, len(t.Footer))
		for i, v := range t.Footer {
			footer[i] = v
		}
		table.Footer(footer...)
	}
	return table.Render()
}

// Data wraps a value with no layout of its own. Text and table output fall
// back to YAML.
type Data struct {
	Value any
}

func (d Data) RenderData() any {
	return d.Value
}

func (d Data) RenderText(w io.Writer, _ bool) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d.Value); err != nil {
		return err
	}
	return enc.Close()
}

func (d Data) RenderTable(w io.Writer, colored bool) error {
	return d.RenderText(w, colored)
}

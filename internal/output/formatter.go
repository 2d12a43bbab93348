package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/muesli/termenv"
)

// Formatter is the interface for output formatting
type Formatter interface {
	Print(data any) error
	PrintList(items any, columns []Column) error
	PrintSuccess(msg string)
	PrintError(err error)
	PrintHint(msg string)
}

// Column defines a column for table/list output
type Column struct {
	Name  string // Display name
	Key   string // Struct field name or map key
	Width int    // Width for rich mode (0 = auto)
}

// New creates a formatter for the specified mode writing to stdout/stderr
func New(mode string) Formatter {
	return NewWriter(mode, os.Stdout, os.Stderr)
}

// NewWriter creates a formatter for the specified mode writing to out and errOut
func NewWriter(mode string, out, errOut io.Writer) Formatter {
	switch mode {
	case "json":
		return &jsonFormatter{out: out, errOut: errOut}
	case "rich":
		return &richFormatter{out: out, errOut: errOut, profile: termenv.ColorProfile()}
	default:
		return &plainFormatter{out: out, errOut: errOut}
	}
}

// jsonFormatter outputs JSON
type jsonFormatter struct {
	out, errOut io.Writer
}

func (f *jsonFormatter) encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (f *jsonFormatter) Print(data any) error {
	return f.encode(f.out, data)
}

func (f *jsonFormatter) PrintList(items any, columns []Column) error {
	v := indirect(reflect.ValueOf(items))
	count := 0
	if v.Kind() == reflect.Slice {
		count = v.Len()
	}
	return f.Print(map[string]any{
		"data":  items,
		"count": count,
	})
}

func (f *jsonFormatter) PrintSuccess(msg string) {
	f.encode(f.out, map[string]string{"status": "ok", "message": msg})
}

func (f *jsonFormatter) PrintError(err error) {
	f.encode(f.errOut, map[string]string{"error": err.Error()})
}

func (f *jsonFormatter) PrintHint(msg string) {
	// Hints are for humans; JSON consumers get the error only
}

// plainFormatter outputs tab-separated values
type plainFormatter struct {
	out, errOut io.Writer
}

func (f *plainFormatter) Print(data any) error {
	v := indirect(reflect.ValueOf(data))
	if v.Kind() != reflect.Struct {
		fmt.Fprintf(f.out, "%v\n", data)
		return nil
	}
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fmt.Fprintf(f.out, "%s\t%v\n", t.Field(i).Name, v.Field(i).Interface())
	}
	return nil
}

func (f *plainFormatter) PrintList(items any, columns []Column) error {
	rows, err := rowsOf(items, columns)
	if err != nil {
		return err
	}
	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Name
	}
	fmt.Fprintln(f.out, strings.Join(headers, "\t"))
	for _, row := range rows {
		values := make([]string, len(columns))
		for i, col := range columns {
			values[i] = row[col.Key]
		}
		fmt.Fprintln(f.out, strings.Join(values, "\t"))
	}
	return nil
}

func (f *plainFormatter) PrintSuccess(msg string) {
	fmt.Fprintln(f.out, msg)
}

func (f *plainFormatter) PrintError(err error) {
	fmt.Fprintf(f.errOut, "error: %v\n", err)
}

func (f *plainFormatter) PrintHint(msg string) {
	fmt.Fprintf(f.errOut, "hint: %v\n", msg)
}

// richFormatter outputs styled content for terminal
type richFormatter struct {
	out, errOut io.Writer
	profile     termenv.Profile
}

var (
	keyStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	hintStyle    = lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("8"))
)

func (f *richFormatter) render(s lipgloss.Style, text string) string {
	if f.profile == termenv.Ascii {
		return text
	}
	return s.Render(text)
}

func (f *richFormatter) Print(data any) error {
	v := indirect(reflect.ValueOf(data))
	if v.Kind() != reflect.Struct {
		fmt.Fprintf(f.out, "%v\n", data)
		return nil
	}
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fmt.Fprintf(f.out, "%s: %s\n",
			f.render(keyStyle, t.Field(i).Name),
			f.render(valueStyle, fmt.Sprintf("%v", v.Field(i).Interface())),
		)
	}
	return nil
}

func (f *richFormatter) PrintList(items any, columns []Column) error {
	rows, err := rowsOf(items, columns)
	if err != nil {
		return err
	}
	RenderTable(f.out, columns, rows)
	return nil
}

func (f *richFormatter) PrintSuccess(msg string) {
	fmt.Fprintln(f.out, f.render(successStyle, msg))
}

func (f *richFormatter) PrintError(err error) {
	fmt.Fprintln(f.errOut, f.render(errorStyle, "error: "+err.Error()))
}

func (f *richFormatter) PrintHint(msg string) {
	fmt.Fprintln(f.errOut, f.render(hintStyle, "hint: "+msg))
}

func indirect(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Ptr {
		return v.Elem()
	}
	return v
}

// rowsOf flattens a slice of structs or maps into column-keyed rows
func rowsOf(items any, columns []Column) ([]map[string]string, error) {
	v := indirect(reflect.ValueOf(items))
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("PrintList requires a slice")
	}

	rows := make([]map[string]string, v.Len())
	for i := 0; i < v.Len(); i++ {
		item := indirect(v.Index(i))
		row := make(map[string]string, len(columns))
		for _, col := range columns {
			var field reflect.Value
			switch item.Kind() {
			case reflect.Map:
				field = item.MapIndex(reflect.ValueOf(col.Key))
			case reflect.Struct:
				field = item.FieldByName(col.Key)
			}
			if field.IsValid() {
				row[col.Key] = fmt.Sprintf("%v", field.Interface())
			}
		}
		rows[i] = row
	}
	return rows, nil
}

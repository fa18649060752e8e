package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Formatter renders run events and results.
type Formatter interface {
	Format(event Event, result *Result) error
	Summary(result *Result) error
}

// FormatHandler prints events through a Formatter as they arrive.
type FormatHandler struct {
	formatter Formatter
}

func NewFormatHandler(f Formatter) *FormatHandler {
	return &FormatHandler{formatter: f}
}

// Event formats the event.
func (h *FormatHandler) Event(_ context.Context, event Event, result *Result) error {
	return h.formatter.Format(event, result)
}

// Summary renders the final summary.
func (h *FormatHandler) Summary(result *Result) error {
	return h.formatter.Summary(result)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}

	return fmt.Sprintf("%d %ss", n, word)
}

func summaryLine(result *Result) string {
	var parts []string

	if result.Planned > 0 {
		parts = append(parts, plural(result.Planned, "pending change"))
	}

	if result.Changed > 0 {
		parts = append(parts, plural(result.Changed, "target")+" set up")
	}

	if result.Unchanged > 0 {
		parts = append(parts, fmt.Sprintf("%d unchanged", result.Unchanged))
	}

	if result.Applied > 0 {
		parts = append(parts,
			plural(result.Applied, "file")+" applied",
			plural(result.Upserts, "upsert"),
			plural(result.Deletes, "delete"))
	}

	if result.Errors > 0 {
		parts = append(parts, plural(result.Errors, "error"))
	}

	if len(parts) == 0 {
		return "nothing to do"
	}

	return strings.Join(parts, ", ")
}

// -----------------------------------------------------------------------------
// Dots Formatter
// -----------------------------------------------------------------------------

// DotsFormatter is a minimal formatter that prints dots for progress.
type DotsFormatter struct {
	w     io.Writer
	count int
}

// NewDotsFormatter creates a dots formatter.
func NewDotsFormatter(w io.Writer) *DotsFormatter {
	return &DotsFormatter{w: w}
}

const lineWidth = 80

// Format prints a single character per terminal event.
func (d *DotsFormatter) Format(event Event, _ *Result) error {
	var char string

	switch event.Action {
	case ActionUnchanged, ActionApply:
		char = "."
	case ActionSetup:
		char = "+"
	case ActionPlan:
		char = "~"
	case ActionError:
		char = "E"
	case ActionRun:
		return nil
	}

	if char == "" {
		return nil
	}

	_, err := fmt.Fprint(d.w, char)
	d.count++

	if d.count%lineWidth == 0 {
		_, _ = fmt.Fprintln(d.w)
	}

	return err
}

// Summary prints the final results.
func (d *DotsFormatter) Summary(result *Result) error {
	if d.count > 0 && d.count%lineWidth != 0 {
		_, _ = fmt.Fprintln(d.w)
	}

	_, _ = fmt.Fprintln(d.w)

	for _, ir := range result.Failed() {
		_, _ = fmt.Fprintf(d.w, "ERROR %s: %v\n\n", ir.Name, ir.Error)
	}

	status := "OK"
	if !result.Ok() {
		status = "FAIL"
	}

	_, _ = fmt.Fprintf(d.w, "%s %s in %s\n", status, summaryLine(result), result.Elapsed().Round(time.Millisecond))

	return nil
}

// -----------------------------------------------------------------------------
// Verbose Formatter
// -----------------------------------------------------------------------------

// VerboseFormatter prints every event and the setup changes it carries.
// Output is coloured only when w is a terminal.
type VerboseFormatter struct {
	w     io.Writer
	color bool

	okStyle     lipgloss.Style
	changeStyle lipgloss.Style
	errorStyle  lipgloss.Style
	dimStyle    lipgloss.Style
}

// NewVerboseFormatter creates a verbose formatter.
func NewVerboseFormatter(w io.Writer) *VerboseFormatter {
	r := lipgloss.NewRenderer(w)

	return &VerboseFormatter{
		w:           w,
		color:       isTerminal(w),
		okStyle:     r.NewStyle().Foreground(lipgloss.Color("#04B575")),
		changeStyle: r.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true),
		errorStyle:  r.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true),
		dimStyle:    r.NewStyle().Foreground(lipgloss.Color("#626262")),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func (v *VerboseFormatter) render(s lipgloss.Style, text string) string {
	if !v.color {
		return text
	}

	return s.Render(text)
}

// Format prints each event as it occurs.
func (v *VerboseFormatter) Format(event Event, _ *Result) error {
	name := event.Name()

	switch event.Action {
	case ActionRun:
		verb := "SETUP"
		if event.File != "" {
			verb = "APPLY"
		}

		_, _ = fmt.Fprintf(v.w, "=== %-6s%s\n", verb, name)
	case ActionPlan:
		_, _ = fmt.Fprintf(v.w, "--- %s %s (%s)\n", v.render(v.changeStyle, "PLAN:"), name, event.Change)
		v.changes(event.Changes)
	case ActionSetup:
		_, _ = fmt.Fprintf(v.w, "--- %s %s (%s) (%s)\n", v.render(v.changeStyle, "SETUP:"), name, event.Change, event.Elapsed)
		v.changes(event.Changes)
	case ActionUnchanged:
		_, _ = fmt.Fprintf(v.w, "--- %s %s (unchanged)\n", v.render(v.okStyle, "OK:"), name)
	case ActionApply:
		_, _ = fmt.Fprintf(v.w, "--- %s %s (%s, %s) (%s)\n", v.render(v.okStyle, "APPLY:"), name,
			plural(event.Upserts(), "upsert"), plural(event.Deletes(), "delete"), event.Elapsed)

		for _, b := range event.Batches {
			_, _ = fmt.Fprintf(v.w, "    %s\n", v.render(v.dimStyle,
				fmt.Sprintf("%s: %s, %s", b.Target, plural(b.Upserts, "upsert"), plural(b.Deletes, "delete"))))
		}
	case ActionError:
		_, _ = fmt.Fprintf(v.w, "--- %s %s (%s)\n", v.render(v.errorStyle, "ERROR:"), name, event.Elapsed)
		_, _ = fmt.Fprintf(v.w, "    %v\n", event.Error)
	}

	return nil
}

func (v *VerboseFormatter) changes(changes []string) {
	for _, c := range changes {
		_, _ = fmt.Fprintf(v.w, "    %s\n", c)
	}
}

// Summary prints the final results.
func (v *VerboseFormatter) Summary(result *Result) error {
	_, _ = fmt.Fprintln(v.w)

	status := v.render(v.okStyle, "OK")
	if !result.Ok() {
		status = v.render(v.errorStyle, "FAIL")
	}

	_, _ = fmt.Fprintf(v.w, "%s\n", status)
	_, _ = fmt.Fprintf(v.w, "  %s\n", summaryLine(result))
	_, _ = fmt.Fprintf(v.w, "  elapsed: %s\n", result.Elapsed().Round(time.Millisecond))

	return nil
}

// -----------------------------------------------------------------------------
// JSON Formatter
// -----------------------------------------------------------------------------

// JSONFormatter outputs newline-delimited JSON events.
type JSONFormatter struct {
	enc *json.Encoder
}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{enc: json.NewEncoder(w)}
}

type jsonEvent struct {
	Time    string       `json:"time"`
	Action  string       `json:"action"`
	Target  string       `json:"target,omitempty"`
	File    string       `json:"file,omitempty"`
	Change  string       `json:"change,omitempty"`
	Changes []string     `json:"changes,omitempty"`
	Batches []BatchCount `json:"batches,omitempty"`
	Elapsed float64      `json:"elapsed,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// Format outputs a JSON event.
func (j *JSONFormatter) Format(event Event, _ *Result) error {
	je := jsonEvent{
		Time:    event.Time.Format(time.RFC3339Nano),
		Action:  string(event.Action),
		Target:  event.Target,
		File:    event.File,
		Changes: event.Changes,
		Batches: event.Batches,
	}

	if event.Action == ActionPlan || event.Action == ActionSetup {
		je.Change = event.Change.String()
	}

	if event.Action.IsTerminal() {
		je.Elapsed = event.Elapsed.Seconds()
	}

	if event.Error != nil {
		je.Error = event.Error.Error()
	}

	return j.enc.Encode(je)
}

type jsonSummary struct {
	Action    string  `json:"action"`
	Total     int     `json:"total"`
	Planned   int     `json:"planned"`
	Changed   int     `json:"changed"`
	Unchanged int     `json:"unchanged"`
	Applied   int     `json:"applied"`
	Upserts   int     `json:"upserts"`
	Deletes   int     `json:"deletes"`
	Errors    int     `json:"errors"`
	Elapsed   float64 `json:"elapsed"`
	Ok        bool    `json:"ok"`
}

// Summary outputs the final JSON summary.
func (j *JSONFormatter) Summary(result *Result) error {
	return j.enc.Encode(jsonSummary{
		Action:    "summary",
		Total:     result.Total,
		Planned:   result.Planned,
		Changed:   result.Changed,
		Unchanged: result.Unchanged,
		Applied:   result.Applied,
		Upserts:   result.Upserts,
		Deletes:   result.Deletes,
		Errors:    result.Errors,
		Elapsed:   result.Elapsed().Seconds(),
		Ok:        result.Ok(),
	})
}

// NewFormatter creates a formatter by name: "verbose", "json" or "dots".
func NewFormatter(name string, w io.Writer) Formatter {
	switch name {
	case "verbose":
		return NewVerboseFormatter(w)
	case "json":
		return NewJSONFormatter(w)
	default:
		return NewDotsFormatter(w)
	}
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"golang.org/x/term"
	"gopkg.in/yaml.v2"

	"github.com/staranto/schedcache/internal/config"
)

// Row is one record of a result set, keyed by column key.
type Row map[string]interface{}

// Column is a displayed attribute of a result set.
type Column struct {
	Key   string
	Title string
}

// Options controls how a result set is rendered.
type Options struct {
	// Format is one of text, json or yaml.
	Format string
	Titles bool
	Color  bool
	Filter string
	Sort   string
}

// Formats are the accepted values of Options.Format.
var Formats = []string{"text", "json", "yaml"}

// Emit filters, sorts and renders rows to w.
func Emit(w io.Writer, rows []Row, columns []Column, opts Options) error {
	if w == nil {
		w = os.Stdout
	}

	rows = FilterRows(rows, columns, opts.Filter)
	SortRows(rows, opts.Sort)

	switch opts.Format {
	case "json":
		// Project onto the columns so json and text show the same data.
		out := make([]map[string]interface{}, 0, len(rows))
		for _, r := range rows {
			m := make(map[string]interface{}, len(columns))
			for _, c := range columns {
				m[c.Key] = r[c.Key]
			}
			out = append(out, m)
		}
		b, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		out := make([]yaml.MapSlice, 0, len(rows))
		for _, r := range rows {
			var m yaml.MapSlice
			for _, c := range columns {
				m = append(m, yaml.MapItem{Key: c.Key, Value: r[c.Key]})
			}
			out = append(out, m)
		}
		b, err := yaml.Marshal(out)
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(b)
		return err
	case "", "text":
		TableWriter(w, rows, columns, opts.Titles, opts.Color && isTerminal(w))
		return nil
	default:
		return fmt.Errorf("unknown output format %q", opts.Format)
	}
}

// isTerminal reports whether w is a terminal. Color codes are never written
// into pipes or files.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TableWriter renders the result set in a tabular form honoring color,
// titles and padding options.
func TableWriter(w io.Writer, rows []Row, columns []Column, titles bool, color bool) {
	if len(rows) == 0 {
		return
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if color {
		headerColor, evenColor, oddColor := getColors("colors")

		headerStyle = headerStyle.Foreground(lipgloss.Color(headerColor))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(evenColor))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(oddColor))
	}

	pad, _ := config.GetInt("padding", 1)
	log.Debugf("padding: %v", pad)

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		row := make([]string, 0, len(columns))
		for _, c := range columns {
			row = append(row, InterfaceToString(r[c.Key], "-"))
		}
		cells = append(cells, row)
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(pad)
			}

			return style
		}).
		Headers().
		Rows(cells...)

	if titles {
		headers := make([]string, 0, len(columns))
		for _, c := range columns {
			title := c.Title
			if title == "" {
				title = c.Key
			}
			headers = append(headers, title)
		}

		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}
	fmt.Fprintln(w, t)
}

// getColors returns configured color values for table rendering.
func getColors(key string) (header string, even string, odd string) {
	header, _ = config.GetString(fmt.Sprintf("%s.title", key), "#f6be00")
	even, _ = config.GetString(fmt.Sprintf("%s.even", key), "#ffffff")
	odd, _ = config.GetString(fmt.Sprintf("%s.odd", key), "#00c8f0")
	return
}

// InterfaceToString converts supported primitive or composite values to a
// string. A custom empty value may be provided.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	if len(emptyValue) == 0 {
		emptyValue = []string{""}
	}

	if value == nil || reflect.ValueOf(value).IsZero() {
		return emptyValue[0]
	}

	switch value := value.(type) {
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		// Nothing we print is fractional.
		return fmt.Sprintf("%.0f", value)
	case bool:
		return strconv.FormatBool(value)
	case fmt.Stringer:
		return value.String()
	default:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(jsonBytes)
	}
}

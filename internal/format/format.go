// Package format renders timer values and the saved history for terminals
// and exports.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/SoarinFerret/StudyTimer/internal/history"
)

const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"

	topicWidth = 24
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Clock renders d as HH:MM:SS, flooring to whole seconds. Hours are not
// capped at 24.
func Clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// Topic truncates s to w terminal cells.
func Topic(s string, w int) string {
	return runewidth.Truncate(s, w, "…")
}

// Ago renders how long before now t was, e.g. "3 hours ago".
func Ago(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// Rows turns records into table rows: number, date, start, end, study,
// rest, topic, id.
func Rows(records []history.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for i, r := range records {
		start := r.CreatedAt.Local()
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			start.Format("2006-01-02"),
			start.Format("15:04:05"),
			r.EndedAt.Local().Format("15:04:05"),
			Clock(r.StudyDuration),
			Clock(r.RestDuration),
			Topic(r.Topic, topicWidth),
			r.ID.String(),
		})
	}
	return rows
}

// Headers matches Rows.
var Headers = []string{"No", "Date", "Start", "End", "Study", "Rest", "Topic", "ID"}

// Table renders the history as a bordered terminal table.
func Table(records []history.Record, now time.Time) string {
	if len(records) == 0 {
		return "No saved sessions"
	}

	rows := Rows(records)
	for i, r := range records {
		rows[i] = append(rows[i], Ago(r.EndedAt, now))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(append(append([]string{}, Headers...), "Saved")...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

// Write renders records to w in the requested output format.
func Write(w io.Writer, output string, records []history.Record, now time.Time) error {
	if records == nil {
		records = []history.Record{}
	}

	switch output {
	case OutputTable, "":
		_, err := fmt.Fprintln(w, Table(records, now))
		return err
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(records)
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", output)
	}
}

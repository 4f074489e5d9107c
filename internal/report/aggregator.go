package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/hours-proxy/internal/common"
	"github.com/Veraticus/hours-proxy/internal/model"
)

const headerDateFormat = "Monday, January 2, 2006"

// DecodeEntries parses a JSON array of time-log objects. Missing or
// non-numeric amounts decode to zero; only a payload that is not an array of
// objects is rejected.
func DecodeEntries(data []byte) ([]model.TimeLogEntry, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, common.InvalidInput("entries must be a JSON array of objects")
	}
	if raw == nil {
		return nil, common.InvalidInput("entries must be a JSON array of objects")
	}

	entries := make([]model.TimeLogEntry, 0, len(raw))
	for i, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, common.InvalidInput("entry %d is not an object", i)
		}
		var entry model.TimeLogEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			return nil, common.InvalidInput("entry %d is malformed: %v", i, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// BuildLayout groups entries by calendar date in ascending order and lays
// them out as header, details, ..., total. Entries sharing a date keep their
// input order. The result depends only on the input.
func BuildLayout(entries []model.TimeLogEntry) Layout {
	type dated struct {
		key   string
		label string
		entry model.TimeLogEntry
	}

	sorted := make([]dated, len(entries))
	for i, e := range entries {
		key, label := dateKey(e.Date)
		sorted[i] = dated{key: key, label: label, entry: e}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].key < sorted[j].key
	})

	var groups []DateGroup
	for _, d := range sorted {
		if n := len(groups); n == 0 || groups[n-1].Key != d.key {
			groups = append(groups, DateGroup{Key: d.key, Label: d.label})
		}
		g := &groups[len(groups)-1]
		g.Entries = append(g.Entries, d.entry)
		g.Totals = g.Totals.AddEntry(d.entry)
	}

	layout := Layout{
		Rows:       make([]Row, 0, len(entries)+len(groups)+1),
		Groups:     groups,
		HeaderRows: make([]int, 0, len(groups)),
	}

	for _, g := range groups {
		layout.HeaderRows = append(layout.HeaderRows, len(layout.Rows))
		layout.Rows = append(layout.Rows, Row{
			Kind:           RowHeader,
			Date:           g.Label,
			BillableAmount: g.Totals.BillableAmount,
			LaborHours:     g.Totals.LaborHours,
			BillableHours:  g.Totals.BillableHours,
		})
		for _, e := range g.Entries {
			layout.Rows = append(layout.Rows, detailRow(g.Key, e))
		}
		layout.Totals = layout.Totals.Add(g.Totals)
	}

	layout.TotalRow = len(layout.Rows)
	layout.Rows = append(layout.Rows, Row{
		Kind:           RowTotal,
		Date:           TotalLabel,
		BillableAmount: layout.Totals.BillableAmount,
		LaborHours:     layout.Totals.LaborHours,
		BillableHours:  layout.Totals.BillableHours,
	})

	return layout
}

func detailRow(key string, e model.TimeLogEntry) Row {
	billable := "No"
	if e.Billable {
		billable = "Yes"
	}
	return Row{
		Kind:           RowDetail,
		Date:           key,
		User:           e.UserName,
		Client:         e.ClientName,
		Project:        e.ProjectName,
		Task:           taskCell(e.TaskName, e.Note),
		Billable:       billable,
		BillableAmount: e.BillableAmount,
		StartFinish:    e.StartFinish,
		LaborHours:     e.LaborHours,
		BillableHours:  e.BillableHours,
	}
}

func taskCell(task, note string) string {
	task = strings.TrimSpace(task)
	note = strings.TrimSpace(note)
	switch {
	case note == "":
		return task
	case task == "":
		return note
	default:
		return fmt.Sprintf("%s (%s)", task, note)
	}
}

// dateKey returns the grouping key and header label for a raw date. Values
// starting with YYYY-MM-DD group by that calendar day; anything else groups
// by its trimmed text.
func dateKey(raw string) (key, label string) {
	s := strings.TrimSpace(raw)
	if len(s) >= len(time.DateOnly) {
		if day, err := time.Parse(time.DateOnly, s[:len(time.DateOnly)]); err == nil {
			return s[:len(time.DateOnly)], day.Format(headerDateFormat)
		}
	}
	return s, s
}

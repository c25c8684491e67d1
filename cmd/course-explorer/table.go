package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Sternrassler/course-explorer/pkg/catalog"
	"github.com/Sternrassler/course-explorer/pkg/export"
)

var tableHeader = []string{"S.No.", "Course Name", "University", "Degree Type", "Language"}

// printTable writes courses as aligned columns. limit 0 prints all rows.
func printTable(w io.Writer, courses []catalog.Course, limit int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(tableHeader, "\t"))

	shown := courses
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for i, c := range shown {
		fmt.Fprintln(tw, strings.Join(export.Row(i+1, c), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if hidden := len(courses) - len(shown); hidden > 0 {
		fmt.Fprintf(w, "... %d more\n", hidden)
	}
	return nil
}

// Package export writes the displayed course list to a CSV file.
package export

import (
	"crypto/subtle"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Sternrassler/course-explorer/pkg/catalog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrBadPassword is returned when an export password is configured and
	// the supplied one does not match.
	ErrBadPassword = errors.New("incorrect export password")

	// ErrNothingToExport is returned for an empty course list.
	ErrNothingToExport = errors.New("no data to export")
)

// Missing replaces empty values in exported rows.
const Missing = "N/A"

// Keep header order exact.
var header = []string{
	"S.No.",
	"Course Name",
	"University",
	"Degree Type",
	"Language",
}

// Exporter writes course lists, optionally behind a password.
type Exporter struct {
	password string
}

// New creates an exporter. An empty password disables the check.
func New(password string) *Exporter {
	return &Exporter{password: password}
}

// Authorize checks supplied against the configured password.
func (e *Exporter) Authorize(supplied string) error {
	if e.password == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(e.password), []byte(supplied)) != 1 {
		return ErrBadPassword
	}
	return nil
}

// Write authorizes the caller and writes courses as CSV to w.
func (e *Exporter) Write(w io.Writer, courses []catalog.Course, supplied string) error {
	if err := e.Authorize(supplied); err != nil {
		return err
	}
	if len(courses) == 0 {
		return ErrNothingToExport
	}
	return WriteCSV(w, courses)
}

// WriteFile writes courses to path. The file is only created once the
// password and the course list have been checked.
func (e *Exporter) WriteFile(path string, courses []catalog.Course, supplied string) error {
	if err := e.Authorize(supplied); err != nil {
		return err
	}
	if len(courses) == 0 {
		return ErrNothingToExport
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := WriteCSV(f, courses); err != nil {
		f.Close()
		return fmt.Errorf("write export file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}

	log.Info().
		Str("path", path).
		Int("rows", len(courses)).
		Msg("Export complete")
	return nil
}

// WriteCSV writes the header and one row per course, numbered from 1.
func WriteCSV(w io.Writer, courses []catalog.Course) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return err
	}
	for i, c := range courses {
		if err := cw.Write(Row(i+1, c)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row renders one course with serial number n.
func Row(n int, c catalog.Course) []string {
	return []string{
		strconv.Itoa(n),
		orMissing(c.NameEn),
		orMissing(c.University),
		orMissing(c.DegreeDescription()),
		orMissing(c.Language),
	}
}

func orMissing(s string) string {
	if s == "" {
		return Missing
	}
	return s
}

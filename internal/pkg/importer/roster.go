package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/taekup/taekup-server/app/models"
)

// ErrEmptyFile is returned when the CSV contains no data rows.
var ErrEmptyFile = errors.New("roster file contains no rows")

// ColumnMapping holds the detected column index per field; -1 means the
// column was not found in the header.
type ColumnMapping struct {
	FullName  int
	FirstName int
	LastName  int
	Email     int
	Phone     int
	BeltRank  int
	BirthDate int
	JoinedAt  int
}

// RowError describes a single rejected row.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Report summarizes one import run.
type Report struct {
	Total    int        `json:"total"`
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors,omitempty"`
	Students []models.Student
}

// date layouts accepted for birth/joined columns, most specific first
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"02.01.2006",
	"Jan 2, 2006",
}

// DetectColumns maps the header row to student fields using substring
// heuristics, so "Student Email", "E-Mail" and "email_address" all resolve
// to the email column.
func DetectColumns(header []string) ColumnMapping {
	m := ColumnMapping{FullName: -1, FirstName: -1, LastName: -1, Email: -1, Phone: -1, BeltRank: -1, BirthDate: -1, JoinedAt: -1}
	for i, raw := range header {
		col := strings.ToLower(strings.TrimSpace(raw))
		col = strings.ReplaceAll(col, "-", "")
		col = strings.ReplaceAll(col, "_", " ")
		switch {
		case contains(col, "first name", "firstname", "vorname", "given"):
			if m.FirstName == -1 {
				m.FirstName = i
			}
		case contains(col, "last name", "lastname", "surname", "family", "nachname"):
			if m.LastName == -1 {
				m.LastName = i
			}
		case contains(col, "email", "e mail", "mail"):
			if m.Email == -1 {
				m.Email = i
			}
		case contains(col, "phone", "mobile", "tel"):
			if m.Phone == -1 {
				m.Phone = i
			}
		case contains(col, "belt", "rank", "grade", "gurt"):
			if m.BeltRank == -1 {
				m.BeltRank = i
			}
		case contains(col, "birth", "dob", "geburt"):
			if m.BirthDate == -1 {
				m.BirthDate = i
			}
		case contains(col, "joined", "start", "member since", "enrolled"):
			if m.JoinedAt == -1 {
				m.JoinedAt = i
			}
		case contains(col, "name", "student"):
			if m.FullName == -1 {
				m.FullName = i
			}
		}
	}
	return m
}

func contains(col string, candidates ...string) bool {
	for _, c := range candidates {
		if strings.Contains(col, c) {
			return true
		}
	}
	return false
}

// HasNameColumn reports whether the mapping can produce a student name.
func (m ColumnMapping) HasNameColumn() bool {
	return m.FullName >= 0 || m.FirstName >= 0
}

// ParseRoster reads a CSV stream and maps rows to students for the given
// club. Rows without a name are rejected; duplicate emails within the file
// are skipped. The caller persists the returned students.
func ParseRoster(r io.Reader, clubID uint) (*Report, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read roster header: %w", err)
	}

	mapping := DetectColumns(header)
	if !mapping.HasNameColumn() {
		return nil, fmt.Errorf("could not detect a name column in header: %v", header)
	}

	report := &Report{}
	seenEmails := map[string]bool{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			report.Total++
			report.Skipped++
			report.Errors = append(report.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}
		report.Total++

		student, rowErr := mapRow(record, mapping, clubID)
		if rowErr != "" {
			report.Skipped++
			report.Errors = append(report.Errors, RowError{Line: line, Message: rowErr})
			continue
		}
		if student.Email != "" {
			key := strings.ToLower(student.Email)
			if seenEmails[key] {
				report.Skipped++
				report.Errors = append(report.Errors, RowError{Line: line, Message: fmt.Sprintf("duplicate email %s in file", student.Email)})
				continue
			}
			seenEmails[key] = true
		}

		report.Students = append(report.Students, *student)
		report.Imported++
	}

	if report.Total == 0 {
		return nil, ErrEmptyFile
	}
	return report, nil
}

func mapRow(record []string, m ColumnMapping, clubID uint) (*models.Student, string) {
	first, last := splitName(record, m)
	if first == "" {
		return nil, "missing student name"
	}

	student := &models.Student{
		ClubID:    clubID,
		FirstName: first,
		LastName:  last,
		Email:     strings.ToLower(field(record, m.Email)),
		Phone:     field(record, m.Phone),
		BeltRank:  field(record, m.BeltRank),
	}
	if student.Email != "" && !strings.Contains(student.Email, "@") {
		return nil, fmt.Sprintf("invalid email %q", student.Email)
	}
	student.BirthDate = parseDate(field(record, m.BirthDate))
	student.JoinedAt = parseDate(field(record, m.JoinedAt))
	return student, ""
}

func splitName(record []string, m ColumnMapping) (string, string) {
	if m.FirstName >= 0 {
		return field(record, m.FirstName), field(record, m.LastName)
	}
	full := field(record, m.FullName)
	if full == "" {
		return "", ""
	}
	parts := strings.Fields(full)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

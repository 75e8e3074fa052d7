package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectColumnsCommonHeaders(t *testing.T) {
	m := DetectColumns([]string{"First Name", "Last Name", "Email", "Phone", "Belt Rank", "Birth Date", "Joined"})
	assert.Equal(t, 0, m.FirstName)
	assert.Equal(t, 1, m.LastName)
	assert.Equal(t, 2, m.Email)
	assert.Equal(t, 3, m.Phone)
	assert.Equal(t, 4, m.BeltRank)
	assert.Equal(t, 5, m.BirthDate)
	assert.Equal(t, 6, m.JoinedAt)
	assert.True(t, m.HasNameColumn())
}

func TestDetectColumnsVariants(t *testing.T) {
	m := DetectColumns([]string{"Student Name", "E-Mail Address", "Mobile", "Grade"})
	assert.Equal(t, 0, m.FullName)
	assert.Equal(t, 1, m.Email)
	assert.Equal(t, 2, m.Phone)
	assert.Equal(t, 3, m.BeltRank)

	m = DetectColumns([]string{"vorname", "nachname", "gurt", "geburtsdatum"})
	assert.Equal(t, 0, m.FirstName)
	assert.Equal(t, 1, m.LastName)
	assert.Equal(t, 2, m.BeltRank)
	assert.Equal(t, 3, m.BirthDate)
}

func TestDetectColumnsNoNameColumn(t *testing.T) {
	m := DetectColumns([]string{"Email", "Phone"})
	assert.False(t, m.HasNameColumn())
}

func TestParseRosterFullFlow(t *testing.T) {
	csv := strings.Join([]string{
		"Name,Email,Belt,Joined",
		"Alice Johnson,alice@example.com,Yellow,2024-01-15",
		"Bob Lee Smith,bob@example.com,Green,01/20/2024",
		"Charlie,, White,",
		"Alice Johnson,ALICE@example.com,Yellow,2024-01-15",
		",missing@example.com,Red,",
	}, "\n")

	report, err := ParseRoster(strings.NewReader(csv), 42)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 3, report.Imported)
	assert.Equal(t, 2, report.Skipped)
	require.Len(t, report.Errors, 2)
	assert.Contains(t, report.Errors[0].Message, "duplicate email")
	assert.Contains(t, report.Errors[1].Message, "missing student name")

	require.Len(t, report.Students, 3)
	alice := report.Students[0]
	assert.Equal(t, uint(42), alice.ClubID)
	assert.Equal(t, "Alice", alice.FirstName)
	assert.Equal(t, "Johnson", alice.LastName)
	assert.Equal(t, "alice@example.com", alice.Email)
	assert.Equal(t, "Yellow", alice.BeltRank)
	require.NotNil(t, alice.JoinedAt)
	assert.Equal(t, 2024, alice.JoinedAt.Year())

	bob := report.Students[1]
	assert.Equal(t, "Bob", bob.FirstName)
	assert.Equal(t, "Lee Smith", bob.LastName)
	require.NotNil(t, bob.JoinedAt)

	charlie := report.Students[2]
	assert.Equal(t, "Charlie", charlie.FirstName)
	assert.Equal(t, "", charlie.LastName)
	assert.Equal(t, "", charlie.Email)
}

func TestParseRosterSplitFirstLastColumns(t *testing.T) {
	csv := "First Name,Last Name,Email\nAna,Park,ana@example.com\n"
	report, err := ParseRoster(strings.NewReader(csv), 1)
	require.NoError(t, err)
	require.Len(t, report.Students, 1)
	assert.Equal(t, "Ana", report.Students[0].FirstName)
	assert.Equal(t, "Park", report.Students[0].LastName)
}

func TestParseRosterRejectsInvalidEmail(t *testing.T) {
	csv := "Name,Email\nAna Park,not-an-email\n"
	report, err := ParseRoster(strings.NewReader(csv), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Message, "invalid email")
}

func TestParseRosterEmptyFile(t *testing.T) {
	_, err := ParseRoster(strings.NewReader(""), 1)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = ParseRoster(strings.NewReader("Name,Email\n"), 1)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestParseRosterUnknownHeaderFails(t *testing.T) {
	_, err := ParseRoster(strings.NewReader("foo,bar\n1,2\n"), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name column")
}

package timetable

import (
	"context"
	"errors"
	"strings"
	"testing"

	"reservo/pkg/logger"
	"reservo/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
source: registrar
time_zone: Europe/Berlin
entries:
  - resource_id: lab-1
    external_ref: CS101-A
    title: Intro to CS
    weekday: monday
    start_of_day: "09:00"
    end_of_day: "10:30"
  - resource_id: lab-2
    external_ref: CS102-B
    weekday: thursday
    start_of_day: "14:00"
    end_of_day: "16:00"
    time_zone: UTC
    valid_from: 2026-02-01T00:00:00Z
`

func TestParse(t *testing.T) {
	entries, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "registrar", entries[0].Source)
	assert.Equal(t, "Europe/Berlin", entries[0].TimeZone)
	assert.Equal(t, "Intro to CS", entries[0].Title)
	assert.Equal(t, "UTC", entries[1].TimeZone)
	require.NotNil(t, entries[1].ValidFrom)
	assert.Equal(t, 2026, entries[1].ValidFrom.Year())
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(strings.NewReader("entries:\n  - resource_id: x\n    colour: red\n"))
	assert.Error(t, err, "unknown fields are rejected")

	entries, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type fakeUpserter struct {
	fail map[string]bool
	got  []string
}

func (f *fakeUpserter) UpsertTimetableEntry(ctx context.Context, e *model.TimetableEntry, _ model.Requester) error {
	if f.fail[e.ExternalRef] {
		return errors.New("rejected")
	}
	f.got = append(f.got, e.ExternalRef)
	return nil
}

func TestImport(t *testing.T) {
	entries, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	u := &fakeUpserter{fail: map[string]bool{"CS102-B": true}}
	res, err := Import(context.Background(), u, entries, model.Requester{UserID: "importer", IsAdmin: true}, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 1, Failed: 1}, res)
	assert.Equal(t, []string{"CS101-A"}, u.got)
}

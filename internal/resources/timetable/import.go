// Package timetable reads weekly timetable files exported from an external
// schedule and loads them into the resource catalog.
package timetable

import (
	"context"
	"errors"
	"fmt"
	"io"

	"reservo/pkg/logger"
	"reservo/pkg/model"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout:
//
//	source: registrar
//	time_zone: Europe/Berlin
//	entries:
//	  - resource_id: lab-1
//	    external_ref: CS101-A
//	    weekday: monday
//	    start_of_day: "09:00"
//	    end_of_day: "10:30"
//
// source and time_zone apply to entries that do not set their own.
type File struct {
	Source   string                  `yaml:"source"`
	TimeZone string                  `yaml:"time_zone"`
	Entries  []*model.TimetableEntry `yaml:"entries"`
}

func Parse(r io.Reader) ([]*model.TimetableEntry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse timetable file: %w", err)
	}

	for i, e := range f.Entries {
		if e == nil {
			return nil, fmt.Errorf("entry %d is empty", i)
		}
		if e.Source == "" {
			e.Source = f.Source
		}
		if e.TimeZone == "" {
			e.TimeZone = f.TimeZone
		}
	}
	return f.Entries, nil
}

type Upserter interface {
	UpsertTimetableEntry(ctx context.Context, entry *model.TimetableEntry, requester model.Requester) error
}

type Result struct {
	Imported int
	Failed   int
}

// Import upserts each entry, logging and counting the ones that fail.
func Import(ctx context.Context, u Upserter, entries []*model.TimetableEntry, requester model.Requester, log *logger.Logger) (Result, error) {
	var res Result
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := u.UpsertTimetableEntry(ctx, e, requester); err != nil {
			res.Failed++
			log.Warn("Skipping timetable entry",
				"resource_id", e.ResourceID,
				"external_ref", e.ExternalRef,
				"error", err,
			)
			continue
		}
		res.Imported++
	}
	return res, nil
}

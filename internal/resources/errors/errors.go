package errors

import "errors"

var (
	ErrNotFound = errors.New("resource not found")

	ErrIssueNotFound = errors.New("resource issue not found")

	ErrTimetableEntryNotFound = errors.New("timetable entry not found")

	ErrDuplicateResource = errors.New("resource already exists")

	ErrKeyAlreadyBound = errors.New("key is already bound to another resource")
)

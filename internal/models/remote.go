// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package models

import (
	"fmt"
	"time"
)

// Wire DTOs for the external classroom platform. Field names follow the
// platform's JSON payloads; timestamps arrive as RFC3339 strings and are
// parsed lazily because some deployments omit them.

// RemoteCourse is one course as listed by the external platform.
type RemoteCourse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Section            string `json:"section,omitempty"`
	DescriptionHeading string `json:"descriptionHeading,omitempty"`
	Description        string `json:"description,omitempty"`
	OwnerID            string `json:"ownerId"`
	CourseState        string `json:"courseState"`
	CreationTime       string `json:"creationTime,omitempty"`
	UpdateTime         string `json:"updateTime,omitempty"`
	TeacherName        string `json:"teacherName,omitempty"`
}

// CreatedAt parses the remote creation timestamp. The second return value
// is false when the field is missing or unparseable.
func (c *RemoteCourse) CreatedAt() (time.Time, bool) {
	if c.CreationTime == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, c.CreationTime)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// RemoteDate is a calendar date in the platform's split date format.
type RemoteDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// RemoteTimeOfDay is a wall-clock time in the platform's split time format.
type RemoteTimeOfDay struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// RemoteCoursework is one coursework (assignment) item as listed by the
// external platform.
type RemoteCoursework struct {
	ID           string           `json:"id"`
	CourseID     string           `json:"courseId"`
	Title        string           `json:"title"`
	Description  string           `json:"description,omitempty"`
	State        string           `json:"state"`
	DueDate      *RemoteDate      `json:"dueDate,omitempty"`
	DueTime      *RemoteTimeOfDay `json:"dueTime,omitempty"`
	CreationTime string           `json:"creationTime,omitempty"`
}

// DueAt combines the split due date and time into a single UTC instant.
// Returns nil when the coursework has no due date. A due date without a
// time component defaults to end of day, matching the platform's own
// "due by end of day" semantics.
func (w *RemoteCoursework) DueAt() *time.Time {
	if w.DueDate == nil {
		return nil
	}
	hours, minutes := 23, 59
	if w.DueTime != nil {
		hours, minutes = w.DueTime.Hours, w.DueTime.Minutes
	}
	t := time.Date(w.DueDate.Year, time.Month(w.DueDate.Month), w.DueDate.Day,
		hours, minutes, 0, 0, time.UTC)
	return &t
}

// RemoteSubmission is one student submission's state for a coursework item.
type RemoteSubmission struct {
	ID     string          `json:"id"`
	UserID string          `json:"userId"`
	State  SubmissionState `json:"state"`
	Late   bool            `json:"late,omitempty"`
}

// Profile is the platform profile of an owner.
type Profile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	EmailAddress string `json:"emailAddress,omitempty"`
	PhotoURL     string `json:"photoUrl,omitempty"`
}

// String implements fmt.Stringer without exposing the email address.
func (p Profile) String() string {
	return fmt.Sprintf("Profile(%s)", p.ID)
}

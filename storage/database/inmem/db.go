// Package inmemdb keeps every table in process memory. It backs the "memory" storage engine and the tests.
package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/campus/core/academic"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/marks"
	"github.com/trezcool/campus/core/material"
	"github.com/trezcool/campus/core/news"
	"github.com/trezcool/campus/core/user"
)

type (
	DB struct {
		user       *userTable
		academic   *academicTables
		marks      *marksTable
		attendance *attendanceTables
		news       *newsTable
		material   *materialTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	// academic entities reference each other, so they share one lock
	academicTables struct {
		sync.RWMutex
		branches  map[string]*academic.Branch
		semesters map[string]*academic.Semester
		subjects  map[string]*academic.Subject
		courses   map[string]*academic.Course
	}

	marksTable struct {
		sync.RWMutex
		table map[string]*marks.Record
	}

	attendanceTables struct {
		sync.RWMutex
		summaries map[string]*attendance.Summary
		records   []attendance.Record
	}

	newsTable struct {
		sync.RWMutex
		table map[string]*news.News
	}

	materialTable struct {
		sync.RWMutex
		table map[string]*material.Material
	}
)

func Open() *DB {
	return &DB{
		user: &userTable{table: make(map[string]*user.User)},
		academic: &academicTables{
			branches:  make(map[string]*academic.Branch),
			semesters: make(map[string]*academic.Semester),
			subjects:  make(map[string]*academic.Subject),
			courses:   make(map[string]*academic.Course),
		},
		marks:      &marksTable{table: make(map[string]*marks.Record)},
		attendance: &attendanceTables{summaries: make(map[string]*attendance.Summary)},
		news:       &newsTable{table: make(map[string]*news.News)},
		material:   &materialTable{table: make(map[string]*material.Material)},
	}
}

func newID() string {
	return uuid.New().String()
}

func copyStrings(s []string) []string {
	c := make([]string, len(s))
	copy(c, s)
	return c
}

func containsString(slice []string, s string) bool {
	for _, item := range slice {
		if item == s {
			return true
		}
	}
	return false
}

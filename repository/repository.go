// Package repository persists history entries and quizzes with gorm.
// Caps (retained history, pinned entries) are enforced with read-check-write
// and can be exceeded briefly by concurrent writers.
package repository

import (
	"errors"
	"time"
)

const (
	MaxHistoryKept = 15
	MaxPinned      = 5
)

var (
	ErrNotFound = errors.New("record not found")
	ErrPinLimit = errors.New("pinned history limit reached")
)

// Clock lets tests control timestamps.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

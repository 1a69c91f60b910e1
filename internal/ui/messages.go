package ui

import (
	"github.com/levelwise/levelwise/internal/media"
)

// ProgressMsg represents a progress update from the normaliser
type ProgressMsg struct {
	Pass     int     // 1 or 2
	PassName string  // "Measuring" or "Normalising"
	Progress float64 // 0.0 to 1.0
}

// FileStartMsg indicates a new file has started processing
type FileStartMsg struct {
	FileIndex int
	FileName  string
}

// FileCompleteMsg indicates a file has finished processing
type FileCompleteMsg struct {
	FileIndex int
	Result    *media.Result
	Error     error
}

// AllCompleteMsg indicates all files have been processed
type AllCompleteMsg struct{}

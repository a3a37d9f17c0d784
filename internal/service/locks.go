package service

import "sync"

// SheetLocks serializes operations that touch the same spreadsheet.
type SheetLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSheetLocks() *SheetLocks {
	return &SheetLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock blocks until the sheet is free and returns the unlock func.
func (l *SheetLocks) Lock(sheetID string) func() {
	l.mu.Lock()
	m, ok := l.locks[sheetID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sheetID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

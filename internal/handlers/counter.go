package handlers

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"insurez/internal/logger"
)

type counterData struct {
	Quotes int64 `json:"quotes"`
}

var (
	counterMu       sync.Mutex
	counterValue    int64
	pendingWrites   int
	counterFilePath = "counter.json"
	flushTicker     *time.Ticker
)

const flushEveryN = 10
const flushInterval = 30 * time.Second

// InitCounter loads the quote counter from path and starts the periodic
// flush. A missing or unreadable file starts the count at zero.
func InitCounter(path string) {
	counterMu.Lock()
	defer counterMu.Unlock()

	if path != "" {
		counterFilePath = path
	}

	data, err := os.ReadFile(counterFilePath)
	if err != nil {
		counterValue = 0
		logger.Info("counter: no state file, starting at zero", logger.Fields{"path": counterFilePath})
	} else {
		var cd counterData
		if err := json.Unmarshal(data, &cd); err != nil {
			counterValue = 0
			logger.Warn("counter: state file unreadable, starting at zero", logger.Fields{"path": counterFilePath, "error": err.Error()})
		} else {
			counterValue = cd.Quotes
			logger.Info("counter: loaded", logger.Fields{"quotes": counterValue})
		}
	}

	if flushTicker != nil {
		return
	}
	flushTicker = time.NewTicker(flushInterval)
	go func() {
		for range flushTicker.C {
			flushCounter()
		}
	}()
}

// IncrementCounter counts one served quote and returns the new total.
func IncrementCounter() int64 {
	counterMu.Lock()
	counterValue++
	val := counterValue
	pendingWrites++
	shouldFlush := pendingWrites >= flushEveryN
	counterMu.Unlock()

	if shouldFlush {
		flushCounter()
	}
	return val
}

func GetCounter() int64 {
	counterMu.Lock()
	defer counterMu.Unlock()
	return counterValue
}

// FlushCounter writes any pending count to disk. Called on shutdown.
func FlushCounter() {
	flushCounter()
}

func flushCounter() {
	counterMu.Lock()
	if pendingWrites == 0 {
		counterMu.Unlock()
		return
	}
	val := counterValue
	path := counterFilePath
	pendingWrites = 0
	counterMu.Unlock()

	data, err := json.Marshal(counterData{Quotes: val})
	if err != nil {
		logger.Error("counter: marshal failed", logger.Fields{"error": err.Error()})
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		logger.Error("counter: write failed", logger.Fields{"path": path, "error": err.Error()})
	}
}

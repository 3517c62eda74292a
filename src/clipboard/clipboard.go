package clipboard

import (
	"log"
	"sync"

	"golang.design/x/clipboard"
)

var (
	writeMu sync.Mutex
)

func Init() error {
	return clipboard.Init()
}

// Write performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func Write(text string) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// Sink is the fire-and-forget clipboard the capture results go to.
type Sink struct{}

func (Sink) Write(text string) {
	if err := Write(text); err != nil {
		log.Printf("clipboard: write failed: %v", err)
	}
}

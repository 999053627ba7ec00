// Package progress implements the line-delimited protocol used to stream
// structured progress events to a supervising process.
package progress

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"

	"training-orchestrator/core/models"
)

// LinePrefix marks each progress record on the output stream. A consumer
// splits on newlines and strips the prefix to get one complete JSON object.
const LinePrefix = "PROGRESS_UPDATE:"

// Emitter receives each progress event as the run produces it. Emit must
// never fail the run: implementations handle their own errors locally.
type Emitter interface {
	Emit(event models.ProgressEvent)
}

// EmitterFunc adapts a function to the Emitter interface
type EmitterFunc func(event models.ProgressEvent)

// Emit calls f(event)
func (f EmitterFunc) Emit(event models.ProgressEvent) { f(event) }

// Encoder serializes progress events onto an output stream, one
// self-delimited line per event. Encoding or write failures are logged and
// swallowed; progress reporting is best-effort.
type Encoder struct {
	mu sync.Mutex
	w  io.Writer
}

// NewEncoder creates an encoder writing to w
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Emit writes one progress line for the event
func (e *Encoder) Emit(event models.ProgressEvent) {
	blob, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to encode progress event %s: %v", event.Type, err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := fmt.Fprintf(e.w, "%s%s\n", LinePrefix, blob); err != nil {
		log.Printf("Failed to write progress event %s: %v", event.Type, err)
	}
}

// MultiEmitter fans one event out to several emitters in order
type MultiEmitter []Emitter

// Emit forwards the event to every registered emitter
func (m MultiEmitter) Emit(event models.ProgressEvent) {
	for _, e := range m {
		e.Emit(event)
	}
}

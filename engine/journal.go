package engine

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// Journal is an EventSink that appends CBOR-encoded events to a writer,
// one record per event. The journal is an observability artifact, not a
// recovery log: the in-memory store stays authoritative.
type Journal struct {
	mu  sync.Mutex
	enc *cbor.Encoder
}

func NewJournal(w io.Writer) *Journal {
	return &Journal{enc: cbor.NewEncoder(w)}
}

func (j *Journal) Emit(ev Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(ev); err != nil {
		// Journaling failures must not fail the operation that emitted
		// the event; the event stays observable through other sinks.
		log.Printf("ERROR: Failed to journal event seq=%d kind=%s: %v", ev.Seq, ev.Kind, err)
	}
}

// ReadJournal decodes every event record from r, in order.
func ReadJournal(r io.Reader) ([]Event, error) {
	dec := cbor.NewDecoder(r)
	var events []Event
	for {
		var ev Event
		err := dec.Decode(&ev)
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode journal record %d: %w", len(events), err)
		}
		events = append(events, ev)
	}
}

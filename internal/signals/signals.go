// Package signals implements the named synchronous hook bus the pipeline
// emits at documented points. Receivers run in registration order; a
// receiver returning an error propagates and aborts the current phase.
package signals

import (
	"fmt"
	"sync"

	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/settings"
)

// Name identifies a signal.
type Name string

// Canonical signal names.
const (
	PipelineInitialized Name = "pipeline_initialized"
	PipelineFinalized   Name = "pipeline_finalized"

	ArticleGeneratorInit      Name = "article_generator_init"
	ArticleGeneratorFinalized Name = "article_generator_finalized"
	PageGeneratorInit         Name = "page_generator_init"
	PageGeneratorFinalized    Name = "page_generator_finalized"
	StaticGeneratorInit       Name = "static_generator_init"
	StaticGeneratorFinalized  Name = "static_generator_finalized"

	ContentPreread Name = "content_preread"
	ContentContext Name = "content_context"
	ContentWritten Name = "content_written"
	FeedGenerated  Name = "feed_generated"
	FeedWritten    Name = "feed_written"
)

// Payload carries the signal arguments. Fields are populated per signal:
// preread/context signals carry Path and Metadata, write signals carry Path,
// feed signals carry Path and Data.
type Payload struct {
	Settings *settings.Settings
	Context  *content.Context
	Content  *content.Content
	Metadata map[string]any
	Path     string
	Data     []byte
}

// Receiver is an in-process hook.
type Receiver func(p *Payload) error

// Bus dispatches signals to connected receivers.
type Bus struct {
	mu        sync.RWMutex
	receivers map[Name][]Receiver
}

// NewBus creates an empty signal bus.
func NewBus() *Bus {
	return &Bus{receivers: map[Name][]Receiver{}}
}

// Connect registers a receiver for the named signal.
func (b *Bus) Connect(name Name, r Receiver) {
	if r == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receivers[name] = append(b.receivers[name], r)
}

// Send invokes every receiver connected to name in registration order.
// The first error aborts dispatch and propagates to the caller.
func (b *Bus) Send(name Name, p *Payload) error {
	b.mu.RLock()
	receivers := b.receivers[name]
	b.mu.RUnlock()
	for i, r := range receivers {
		if err := r(p); err != nil {
			return fmt.Errorf("signal %s receiver %d: %w", name, i, err)
		}
	}
	return nil
}

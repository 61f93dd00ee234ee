package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/zer0thgear/zer0-novel-utillities/internal/generation"
	"github.com/zer0thgear/zer0-novel-utillities/internal/objects"
	"github.com/zer0thgear/zer0-novel-utillities/internal/session"
)

// progressPrinter writes generation state changes as plain lines.
type progressPrinter struct {
	mu  sync.Mutex
	out io.Writer

	previews    int
	lastPreview objects.DisplayRef
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out}
}

func (p *progressPrinter) OnState(_ context.Context, state generation.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch state {
	case generation.StateAwaitingResponse:
		fmt.Fprintln(p.out, "Waiting for NovelAI...")
	case generation.StateStreamingReceive:
		fmt.Fprintln(p.out, "Receiving preview frames...")
	case generation.StateFailed:
		fmt.Fprintln(p.out, "Generation failed.")
	default:
	}
}

func (p *progressPrinter) OnProgress(_ context.Context, progress session.BatchProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if progress.Total > 1 {
		fmt.Fprintf(p.out, "Batch %d/%d\n", progress.Current, progress.Total)
	}
}

// watch counts preview frames published to the session.
func (p *progressPrinter) watch(store *session.Store) {
	store.Subscribe(func(st session.State) {
		p.mu.Lock()
		defer p.mu.Unlock()

		if st.Preview == "" || st.Preview == p.lastPreview {
			return
		}

		p.lastPreview = st.Preview
		p.previews++

		fmt.Fprintf(p.out, "Preview frame %d\n", p.previews)
	})
}

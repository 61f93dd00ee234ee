// Package generation drives image generation requests end to end: it assembles the request,
// sends it through a Transport, reads the buffered archive or the event stream, and hands the
// produced images to the session.
package generation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/zer0thgear/zer0-novel-utillities/internal/imagestream"
	"github.com/zer0thgear/zer0-novel-utillities/internal/log"
	"github.com/zer0thgear/zer0-novel-utillities/internal/novelai"
	"github.com/zer0thgear/zer0-novel-utillities/internal/objects"
	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/xcontext"
	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/xtime"
	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/xzip"
	"github.com/zer0thgear/zer0-novel-utillities/internal/prompt"
	"github.com/zer0thgear/zer0-novel-utillities/internal/session"
)

const persistTimeout = 30 * time.Second

type State string

const (
	StateIdle              State = "idle"
	StateBuilding          State = "building"
	StateAwaitingResponse  State = "awaiting-response"
	StateStreamingReceive  State = "streaming-receive"
	StateBufferingComplete State = "buffering-complete"
	StateSucceeded         State = "succeeded"
	StateFailed            State = "failed"
)

// Persister stores produced images beyond the session.
type Persister interface {
	Save(ctx context.Context, image objects.GeneratedImage) error
}

// Listener observes state changes and batch progress.
type Listener interface {
	OnState(ctx context.Context, state State)
	OnProgress(ctx context.Context, progress session.BatchProgress)
}

// ListenerFuncs adapts functions to Listener. Nil functions are skipped.
type ListenerFuncs struct {
	State    func(ctx context.Context, state State)
	Progress func(ctx context.Context, progress session.BatchProgress)
}

func (f ListenerFuncs) OnState(ctx context.Context, state State) {
	if f.State != nil {
		f.State(ctx, state)
	}
}

func (f ListenerFuncs) OnProgress(ctx context.Context, progress session.BatchProgress) {
	if f.Progress != nil {
		f.Progress(ctx, progress)
	}
}

type Options struct {
	Transport Transport
	Session   *session.Store

	// Persister is optional.
	Persister Persister

	// Random returns seeds. Defaults to a uniform uint32.
	Random func() uint32

	Clock xtime.Clock

	// NewID returns image ids. Defaults to uuid.
	NewID func() string
}

// Result describes a finished Submit or Enhance call.
type Result struct {
	Images []objects.GeneratedImage

	Progress session.BatchProgress

	// FailedAt is the 1-based index of the request that failed, 0 when none did.
	FailedAt int
}

// Generator runs at most one generation at a time.
type Generator struct {
	transport Transport
	session   *session.Store
	persister Persister
	random    func() uint32
	clock     xtime.Clock
	newID     func() string

	inflight *semaphore.Weighted

	mu        sync.RWMutex
	state     State
	listeners []Listener
}

func New(opts Options) *Generator {
	g := &Generator{
		transport: opts.Transport,
		session:   opts.Session,
		persister: opts.Persister,
		random:    opts.Random,
		clock:     opts.Clock,
		newID:     opts.NewID,
		inflight:  semaphore.NewWeighted(1),
		state:     StateIdle,
	}

	if g.random == nil {
		g.random = rand.Uint32
	}

	if g.clock == nil {
		g.clock = xtime.Now
	}

	if g.newID == nil {
		g.newID = uuid.NewString
	}

	return g
}

func (g *Generator) AddListener(l Listener) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.listeners = append(g.listeners, l)
}

func (g *Generator) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.state
}

func (g *Generator) setState(ctx context.Context, state State) {
	g.mu.Lock()
	g.state = state
	listeners := g.listeners
	g.mu.Unlock()

	log.Debug(ctx, "generation state changed", log.String("state", string(state)))

	for _, l := range listeners {
		l.OnState(ctx, state)
	}
}

func (g *Generator) reportProgress(ctx context.Context, progress session.BatchProgress) {
	g.mu.RLock()
	listeners := g.listeners
	g.mu.RUnlock()

	for _, l := range listeners {
		l.OnProgress(ctx, progress)
	}
}

// begin takes the in-flight slot and checks the api key.
func (g *Generator) begin() (string, func(), error) {
	if !g.inflight.TryAcquire(1) {
		return "", nil, ErrBusy
	}

	apiKey := g.session.APIKey()
	if apiKey == "" {
		g.inflight.Release(1)
		g.session.SetLastError(ErrMissingKey.Message)

		return "", nil, ErrMissingKey
	}

	return apiKey, func() { g.inflight.Release(1) }, nil
}

// Submit generates one image set per prompt text of the settings: the selected prompt in
// single mode, every selected prompt in batch mode. Batch requests run one after another
// and stop at the first failure.
func (g *Generator) Submit(ctx context.Context, settings objects.FormSettings) (Result, error) {
	apiKey, release, err := g.begin()
	if err != nil {
		return Result{}, err
	}
	defer release()

	texts := prompt.PromptTexts(settings)
	if len(texts) == 0 {
		return Result{}, ErrNoPrompt
	}

	batch := settings.PromptMode == objects.PromptModeBatch
	result := Result{Progress: session.BatchProgress{Total: len(texts)}}

	g.session.ClearError()
	g.session.SetLoading(true)

	if batch {
		g.session.SetBatch(&session.BatchProgress{Total: len(texts)})
	}

	defer func() {
		g.session.SetLoading(false)

		if batch {
			g.session.SetBatch(nil)
		}
	}()

	for i, text := range texts {
		g.setState(ctx, StateBuilding)

		seed := prompt.ResolveSeed(settings.Seed, g.random)
		req := prompt.BuildRequest(settings, text, seed)

		images, err := g.execute(ctx, apiKey, req, settings.StreamingMode, nil)

		result.Progress.Current = i + 1
		if batch {
			g.session.SetBatch(&session.BatchProgress{Current: i + 1, Total: len(texts)})
		}

		g.reportProgress(ctx, result.Progress)

		if err != nil {
			result.FailedAt = i + 1

			log.Warn(ctx, "generation failed",
				log.Int("request", i+1),
				log.Int("total", len(texts)),
				log.Cause(err))

			return result, err
		}

		result.Images = append(result.Images, images...)
	}

	return result, nil
}

// Enhance runs an img2img pass over a session image.
func (g *Generator) Enhance(ctx context.Context, settings objects.FormSettings, imageID string, level int, upscale bool) (Result, error) {
	apiKey, release, err := g.begin()
	if err != nil {
		return Result{}, err
	}
	defer release()

	source, ok := g.session.Image(imageID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", session.ErrImageNotFound, imageID)
	}

	g.setState(ctx, StateBuilding)

	req, err := prompt.BuildEnhanceRequest(settings, prompt.EnhanceInput{
		Source:         source,
		Level:          level,
		Upscale:        upscale,
		Seed:           int64(g.random()),
		ExtraNoiseSeed: int64(g.random()),
	})
	if err != nil {
		g.setState(ctx, StateIdle)
		return Result{}, err
	}

	g.session.ClearError()
	g.session.SetLoading(true)
	defer g.session.SetLoading(false)

	result := Result{Progress: session.BatchProgress{Total: 1}}

	images, err := g.execute(ctx, apiKey, req, settings.StreamingMode, &source)

	result.Progress.Current = 1
	g.reportProgress(ctx, result.Progress)

	if err != nil {
		result.FailedAt = 1
		log.Warn(ctx, "enhancement failed", log.String("source", source.ID), log.Cause(err))

		return result, err
	}

	result.Images = images

	return result, nil
}

// execute sends one request and publishes its images. source is set for enhancements.
func (g *Generator) execute(
	ctx context.Context,
	apiKey string,
	req novelai.GenerationRequest,
	streaming bool,
	source *objects.GeneratedImage,
) ([]objects.GeneratedImage, error) {
	g.setState(ctx, StateAwaitingResponse)

	var (
		images []objects.GeneratedImage
		err    error
	)

	if streaming {
		images, err = g.receiveStream(ctx, apiKey, req)
	} else {
		images, err = g.receiveBuffered(ctx, apiKey, req)
	}

	if err != nil {
		g.session.SetLastError(err.Error())
		g.setState(ctx, StateFailed)

		return nil, err
	}

	if source != nil {
		for i := range images {
			images[i].SourceImageID = source.ID
			images[i].SourceDisplay = g.session.Resources().Acquire(source.Data)
		}
	}

	g.session.AddImages(images...)
	g.persist(ctx, images)
	g.setState(ctx, StateSucceeded)

	return images, nil
}

func (g *Generator) receiveBuffered(ctx context.Context, apiKey string, req novelai.GenerationRequest) ([]objects.GeneratedImage, error) {
	archive, err := g.transport.Generate(ctx, apiKey, req)
	if err != nil {
		return nil, fromResponse(err)
	}

	g.setState(ctx, StateBufferingComplete)

	entries, err := xzip.ExtractPNGs(archive)
	if err != nil {
		return nil, decodeError(err)
	}

	now := g.clock.UnixMilli()
	images := make([]objects.GeneratedImage, len(entries))

	for i, entry := range entries {
		images[i] = g.newImage(req, entry.Data, now, i)
	}

	return images, nil
}

func (g *Generator) receiveStream(ctx context.Context, apiKey string, req novelai.GenerationRequest) ([]objects.GeneratedImage, error) {
	stream, err := g.transport.GenerateStream(ctx, apiKey, req)
	if err != nil {
		return nil, fromResponse(err)
	}

	g.setState(ctx, StateStreamingReceive)

	// The preview never outlives the stream, whatever the outcome.
	defer g.session.ClearPreview()

	frames := 0

	final, err := imagestream.Read(ctx, stream, imagestream.HandlerFunc(func(ctx context.Context, img imagestream.Image) {
		frames++
		g.session.SetPreview(img.Bytes)
	}))
	if err != nil {
		return nil, fromStream(err)
	}

	log.Debug(ctx, "stream finished", log.Int("preview_frames", frames), log.String("format", string(final.Format)))

	return []objects.GeneratedImage{g.newImage(req, final.Bytes, g.clock.UnixMilli(), 0)}, nil
}

// newImage records the request that produced data. Seed and timestamp are offset by the entry index.
func (g *Generator) newImage(req novelai.GenerationRequest, data []byte, now int64, index int) objects.GeneratedImage {
	return objects.GeneratedImage{
		ID:             g.newID(),
		Data:           data,
		Prompt:         req.Input,
		NegativePrompt: req.Parameters.NegativePrompt,
		Model:          req.Model,
		Parameters:     req.Parameters,
		Timestamp:      now + int64(index),
		Seed:           req.Parameters.Seed + int64(index),
	}
}

func (g *Generator) persist(ctx context.Context, images []objects.GeneratedImage) {
	if g.persister == nil {
		return
	}

	// Images already reached the session, keep them even if the caller gave up.
	ctx, cancel := xcontext.DetachWithTimeout(ctx, persistTimeout)
	defer cancel()

	for _, img := range images {
		if err := g.persister.Save(ctx, img); err != nil {
			log.Warn(ctx, "failed to persist generated image", log.String("id", img.ID), log.Cause(err))
		}
	}
}

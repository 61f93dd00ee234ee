package simulator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
	"github.com/tmaxmax/go-sse"

	"github.com/zer0thgear/zer0-novel-utillities/internal/log"
	"github.com/zer0thgear/zer0-novel-utillities/internal/pkg/xzip"
	"github.com/zer0thgear/zer0-novel-utillities/internal/server/middleware"
)

const (
	GeneratePath = "/ai/generate-image"
	StreamPath   = "/ai/generate-image-stream"

	maxSamples = 4
)

// Simulator serves fake image generation endpoints with solid colour images.
type Simulator struct {
	*gin.Engine

	Config Config
	server *http.Server
}

func New(config Config) *Simulator {
	engine := gin.New()
	engine.Use(middleware.Recovery(), middleware.AccessLog())

	sim := &Simulator{
		Config: config,
		Engine: engine,
	}

	engine.POST(GeneratePath, sim.authorize, sim.generate)
	engine.POST(StreamPath, sim.authorize, sim.generateStream)

	return sim
}

func (sim *Simulator) Run() error {
	addr := fmt.Sprintf("%s:%d", sim.Config.Host, sim.Config.Port)

	log.Info(context.Background(), "run simulator", log.String("addr", addr))

	sim.server = &http.Server{
		Addr:              addr,
		Handler:           sim.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	err := sim.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (sim *Simulator) Shutdown(ctx context.Context) error {
	if sim.server == nil {
		return nil
	}

	return sim.server.Shutdown(ctx)
}

type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func abort(c *gin.Context, status int, message string) {
	_ = c.Error(errors.New(message))
	c.AbortWithStatusJSON(status, errorBody{StatusCode: status, Message: message})
}

func (sim *Simulator) authorize(c *gin.Context) {
	token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		abort(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if sim.Config.APIKey != "" && token != sim.Config.APIKey {
		abort(c, http.StatusUnauthorized, "Invalid accessToken.")
		return
	}

	c.Next()
}

// job is the part of a generation request the simulator looks at.
type job struct {
	width   int
	height  int
	seed    int64
	samples int
}

func parseJob(c *gin.Context) (job, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || !gjson.ValidBytes(body) {
		abort(c, http.StatusBadRequest, "Invalid request body")
		return job{}, false
	}

	parsed := gjson.ParseBytes(body)
	if strings.TrimSpace(parsed.Get("input").String()) == "" {
		abort(c, http.StatusBadRequest, "input must not be empty")
		return job{}, false
	}

	params := parsed.Get("parameters")

	j := job{
		width:   int(params.Get("width").Int()),
		height:  int(params.Get("height").Int()),
		seed:    params.Get("seed").Int(),
		samples: int(params.Get("n_samples").Int()),
	}

	if j.width <= 0 || j.height <= 0 || j.width%64 != 0 || j.height%64 != 0 {
		abort(c, http.StatusBadRequest, "width and height must be positive multiples of 64")
		return job{}, false
	}

	j.samples = min(max(j.samples, 1), maxSamples)

	return j, true
}

func (sim *Simulator) generate(c *gin.Context) {
	j, ok := parseJob(c)
	if !ok {
		return
	}

	entries := make([]xzip.Entry, 0, j.samples)

	for i := range j.samples {
		data, err := renderPNG(j.width, j.height, colorFor(j.seed, i))
		if err != nil {
			abort(c, http.StatusInternalServerError, err.Error())
			return
		}

		entries = append(entries, xzip.Entry{Name: fmt.Sprintf("image_%d.png", i), Data: data})
	}

	archive, err := xzip.Bundle(entries)
	if err != nil {
		abort(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.Data(http.StatusOK, "application/x-zip-compressed", archive)
}

// frame is the JSON payload of one stream event.
type frame struct {
	EventType string `json:"event_type"`
	SampleIdx int    `json:"samp_ix"`
	StepIdx   int    `json:"step_ix"`
	GenID     string `json:"gen_id"`
	Image     string `json:"image"`
}

func (sim *Simulator) generateStream(c *gin.Context) {
	ctx := c.Request.Context()

	j, ok := parseJob(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)

	genID := fmt.Sprintf("sim-%d", j.seed)
	target := colorFor(j.seed, 0)

	for step := range sim.Config.Steps {
		preview, err := renderJPEG(j.width, j.height, dim(target, step, sim.Config.Steps))
		if err != nil {
			sim.sendError(c, err)
			return
		}

		err = sim.send(c, frame{EventType: "intermediate", StepIdx: step, GenID: genID, Image: base64.StdEncoding.EncodeToString(preview)})
		if err != nil {
			log.Debug(ctx, "stream client went away", log.Cause(err))
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(sim.Config.StepDelay):
		}
	}

	final, err := renderPNG(j.width, j.height, target)
	if err != nil {
		sim.sendError(c, err)
		return
	}

	err = sim.send(c, frame{EventType: "final", StepIdx: sim.Config.Steps, GenID: genID, Image: base64.StdEncoding.EncodeToString(final)})
	if err != nil {
		log.Debug(ctx, "stream client went away", log.Cause(err))
	}
}

func (sim *Simulator) send(c *gin.Context, f frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}

	msg := &sse.Message{Type: sse.Type(f.EventType)}
	msg.AppendData(string(data))

	_, err = msg.WriteTo(c.Writer)
	if err != nil {
		return err
	}

	c.Writer.Flush()

	return nil
}

func (sim *Simulator) sendError(c *gin.Context, cause error) {
	log.Error(c.Request.Context(), "simulator failed to render frame", log.Cause(cause))

	data, err := json.Marshal(errorBody{StatusCode: http.StatusInternalServerError, Message: cause.Error()})
	if err != nil {
		return
	}

	msg := &sse.Message{Type: sse.Type("error")}
	msg.AppendData(string(data))

	_, _ = msg.WriteTo(c.Writer)
	c.Writer.Flush()
}

package server

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/reifyhq/reify/internals/agent"
	"github.com/reifyhq/reify/internals/assert"
	"github.com/reifyhq/reify/internals/llm"
	"github.com/reifyhq/reify/internals/platform"
	"github.com/reifyhq/reify/internals/registry"
	"github.com/reifyhq/reify/internals/tasks"
	"github.com/reifyhq/reify/internals/tools"
	"github.com/reifyhq/reify/reifyd/baseserver"
	"github.com/reifyhq/reify/sdk"
)

type Server struct {
	Base       *baseserver.BaseServer
	registry   *registry.Registry
	driver     *agent.Driver
	tasks      *tasks.Manager
	platform   *platform.Client
	httpServer *http.Server
}

type deps struct {
	llm      llm.Client
	platform *platform.Client
}

// Option overrides a collaborator, primarily so tests can inject fakes.
type Option func(*deps)

func WithLLMClient(client llm.Client) Option {
	return func(d *deps) {
		d.llm = client
	}
}

func WithPlatformClient(client *platform.Client) Option {
	return func(d *deps) {
		d.platform = client
	}
}

func New(opts ...Option) *Server {
	base := baseserver.New()
	config := base.Config

	var d deps
	for _, opt := range opts {
		opt(&d)
	}

	if d.platform == nil {
		d.platform = platform.NewClient(
			config.Platform.BaseURL,
			time.Duration(config.Platform.TimeoutSeconds)*time.Second,
		)
	}
	if d.llm == nil {
		client, err := llm.NewOpenAIClient(
			base.Env.OPENAI_API_KEY,
			config.Model.Name,
			time.Duration(config.Model.TimeoutSeconds)*time.Second,
		)
		assert.Nil(err, "[SERVER] Failed to initialize reasoning client")
		d.llm = client
	}

	reg := registry.New()
	tools.RegisterAll(reg, d.platform)

	manager := tasks.NewManager(
		time.Duration(config.Tasks.TTLHours)*time.Hour,
		time.Duration(config.Tasks.SweepIntervalHours)*time.Hour,
		base.Logger,
	)

	return &Server{
		Base:     base,
		registry: reg,
		driver:   agent.NewDriver(d.llm, reg, config.Model.MaxIterations, base.Logger),
		tasks:    manager,
		platform: d.platform,
	}
}

func (s *Server) SafeStart() error {
	if sdk.IsRunning(s.Base.Env.BASE_URL) {
		return nil
	}

	go func() {
		s.Base.Logger.Info("starting server")
		err := s.Start()
		if err != nil {
			log.Fatal("[Reify] Failed to start server: " + err.Error())
		}
	}()

	if sdk.WaitForStart(s.Base.Env.BASE_URL, s.Base.Logger) {
		return nil
	}

	return errors.New("Couldn't start server")
}

func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.Base.Env.LISTEN_ADDR)
	if err != nil {
		return err
	}
	server := &http.Server{
		Handler: s.Router(),
	}
	s.httpServer = server
	err = server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, then drains in-flight realization runs.
func (s *Server) Shutdown() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if s.httpServer == nil {
			s.Base.Logger.Error("shutdown failed", "error", errors.New("server not initialized"))
			return
		}
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.Base.Logger.Error("shutdown failed", "error", err)
		}
		s.tasks.Close()
	}()
}

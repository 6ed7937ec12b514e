// Package server exposes the visualizer over HTTP: the control channel and
// level feed as websockets, the image folder and logo endpoints, and
// prometheus metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iburimskiy/audio-reactive/internal/control"
	"github.com/iburimskiy/audio-reactive/internal/levels"
	"github.com/iburimskiy/audio-reactive/internal/media"
)

// Server routes HTTP requests to the shared visualizer state.
type Server struct {
	hub    *control.Hub
	store  *levels.Store
	folder *media.Folder
	logo   *media.LogoFile
	log    zerolog.Logger

	// push period of /ws/levels
	levelsEvery time.Duration

	router *gin.Engine
}

type Options struct {
	Hub         *control.Hub
	Store       *levels.Store
	Folder      *media.Folder
	Logo        *media.LogoFile
	LevelsEvery time.Duration
	Logger      zerolog.Logger
}

func New(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		hub:         opts.Hub,
		store:       opts.Store,
		folder:      opts.Folder,
		logo:        opts.Logo,
		log:         opts.Logger,
		levelsEvery: opts.LevelsEvery,
		router:      gin.New(),
	}
	if s.levelsEvery <= 0 {
		s.levelsEvery = time.Second / 30
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/ws/"+s.hub.Name(), s.handleControl)
	r.GET("/ws/levels", s.handleLevels)

	images := r.Group("/images")
	images.POST("/set_dir", s.handleSetDir)
	images.GET("/random", s.handleRandomImage)
	images.GET("/random_meta", s.handleRandomMeta)

	r.POST("/logo/path", s.handleSetLogo)
	r.GET("/logo", s.handleLogo)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx ends.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	}
}

type pathRequest struct {
	Path string `json:"path"`
}

func fail(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"detail": err.Error()})
}

func (s *Server) handleSetDir(c *gin.Context) {
	var req pathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	n, err := s.folder.Set(req.Path)
	switch {
	case errors.Is(err, media.ErrNoImages):
		fail(c, http.StatusNotFound, err)
		return
	case err != nil:
		fail(c, http.StatusBadRequest, err)
		return
	}
	s.log.Info().Str("dir", s.folder.Dir()).Int("images", n).Msg("image folder set over http")
	c.JSON(http.StatusOK, gin.H{"count": n, "dir": s.folder.Dir()})
}

func (s *Server) handleRandomImage(c *gin.Context) {
	path, err := s.folder.Random()
	if err != nil {
		fail(c, http.StatusNotFound, err)
		return
	}
	c.File(path)
}

func (s *Server) handleRandomMeta(c *gin.Context) {
	path, err := s.folder.Random()
	if err != nil {
		fail(c, http.StatusNotFound, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"filename": filepath.Base(path), "path": path, "url": "/images/random"})
}

func (s *Server) handleSetLogo(c *gin.Context) {
	var req pathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	if err := s.logo.Set(req.Path); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": s.logo.Path()})
}

func (s *Server) handleLogo(c *gin.Context) {
	path := s.logo.Path()
	if path == "" {
		fail(c, http.StatusNotFound, errors.New("no logo set"))
		return
	}
	c.File(path)
}

// Package devserver serves a build directory locally and rebuilds the site
// when source files change.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

const (
	DefaultDebounce = 500 * time.Millisecond
	shutdownTimeout = 5 * time.Second
)

var (
	ErrOutputDirRequired = errors.New("devserver: output directory is required")
	ErrRebuildRequired   = errors.New("devserver: rebuild function is required")
)

// RebuildFunc regenerates the site into the served directory.
type RebuildFunc func(ctx context.Context) error

// Options configures a Server.
type Options struct {
	Addr      string
	OutputDir string
	// WatchDirs are watched recursively. Missing directories are skipped.
	WatchDirs []string
	Debounce  time.Duration
	Rebuild   RebuildFunc
	Logger    interfaces.Logger
}

// Server pairs a no-cache file server with a debounced rebuild loop.
type Server struct {
	addr      string
	outputDir string
	watchDirs []string
	debounce  time.Duration
	rebuild   RebuildFunc
	logger    interfaces.Logger
}

func New(opts Options) (*Server, error) {
	if strings.TrimSpace(opts.OutputDir) == "" {
		return nil, ErrOutputDirRequired
	}
	if opts.Rebuild == nil {
		return nil, ErrRebuildRequired
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Server{
		addr:      opts.Addr,
		outputDir: filepath.Clean(opts.OutputDir),
		watchDirs: append([]string(nil), opts.WatchDirs...),
		debounce:  debounce,
		rebuild:   opts.Rebuild,
		logger:    logger,
	}, nil
}

// Run performs an initial build, then serves the output directory and
// rebuilds on change until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.rebuild(ctx); err != nil {
		return fmt.Errorf("devserver: initial build: %w", err)
	}

	watcher, err := s.newWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("devserver: listen %s: %w", s.addr, err)
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	watchCtx, stopWatch := context.WithCancel(ctx)
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		s.watch(watchCtx, watcher)
	}()
	defer func() {
		stopWatch()
		<-watchDone
	}()

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("serving site", "addr", "http://"+listener.Addr().String(), "dir", s.outputDir)
		serveErr <- srv.Serve(listener)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("devserver: serve: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("server shutdown", "error", err)
	}
	return nil
}

// Handler serves the output directory with caching disabled. Directories
// without an index.html are reported as not found instead of listed.
func (s *Server) Handler() http.Handler {
	files := http.FileServer(http.Dir(s.outputDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clean := path.Clean("/" + r.URL.Path)
		info, err := os.Stat(filepath.Join(s.outputDir, filepath.FromSlash(clean)))
		if err == nil && info.IsDir() {
			if _, err := os.Stat(filepath.Join(s.outputDir, filepath.FromSlash(clean), "index.html")); err != nil {
				http.NotFound(w, r)
				return
			}
		}
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		files.ServeHTTP(w, r)
	})
}

// watch runs the rebuild loop on the calling goroutine so rebuilds never
// overlap. Events arriving during a rebuild restart the debounce window.
func (s *Server) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !s.relevant(event) {
				continue
			}
			s.logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
			if event.Has(fsnotify.Create) && isDir(event.Name) {
				s.addTree(watcher, event.Name)
			}
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			s.logger.Info("rebuilding site")
			if err := s.rebuild(ctx); err != nil {
				s.logger.Error("rebuild failed", "error", err)
				continue
			}
			s.logger.Info("site rebuilt")
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watcher error", "error", err)
		}
	}
}

func (s *Server) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if within(s.outputDir, event.Name) {
		return false
	}
	base := filepath.Base(event.Name)
	return !strings.HasSuffix(base, "~") && !strings.HasSuffix(base, ".swp")
}

func (s *Server) newWatcher() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("devserver: create watcher: %w", err)
	}
	for _, dir := range s.watchDirs {
		if !isDir(dir) {
			s.logger.Debug("watch directory missing", "dir", dir)
			continue
		}
		s.addTree(watcher, dir)
	}
	return watcher, nil
}

func (s *Server) addTree(watcher *fsnotify.Watcher, root string) {
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("watch walk", "path", p, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if within(s.outputDir, p) {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			s.logger.Warn("watch add", "path", p, "error", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("watch walk", "path", root, "error", err)
	}
}

func within(root, target string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absTarget)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

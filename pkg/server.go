package pkg

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kubesail/desk-controller/touch"
)

// reloadDelay coalesces the burst of events an editor save produces.
const reloadDelay = 250 * time.Millisecond

// Listen opens the control socket, replacing a stale one.
func Listen(socket string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(socket), 0o755); err != nil {
		return nil, err
	}
	os.Remove(socket)
	listener, err := net.Listen("unix", socket)
	if err != nil {
		return nil, fmt.Errorf("could not listen on %s: %w", socket, err)
	}
	os.Chmod(socket, 0o777)
	return listener, nil
}

// Run shows the splash, then the dashboard, and serves touches, config
// changes and the control API until ctx is done or /exit is requested.
func (b *KioskFrameBuffer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	b.mu.Lock()
	b.stop = cancel
	b.mu.Unlock()
	defer b.Exit()

	if err := b.Splash("starting"); err != nil {
		b.logger.Warn("splash", "err", err)
	}

	listener, err := Listen(b.config.Socket)
	if err != nil {
		return err
	}
	b.logger.Info("listening", "socket", b.config.Socket)
	srv := &http.Server{Handler: b.Handler()}
	errc := make(chan error, 2)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("could not start HTTP server: %w", err)
		}
	}()
	defer func() {
		shutdown, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		srv.Shutdown(shutdown)
	}()

	taps := make(chan touch.Tap, 16)
	if b.touchPath != "" {
		reader, err := touch.Open(b.touchPath, b.config.Width, b.config.Height, b.rotation, b.logger)
		if err != nil {
			b.logger.Warn("touch disabled", "err", err)
		} else {
			go func() {
				if err := reader.Run(ctx, taps); err != nil {
					b.logger.Error("touch reader stopped", "err", err)
				}
			}()
		}
	}

	go func() {
		if err := b.Watch(ctx); err != nil {
			b.logger.Warn("config watch disabled", "err", err)
		}
	}()

	b.Dashboard()
	ticker := time.NewTicker(b.config.StatsEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case tap := <-taps:
			b.HandleTap(ctx, tap)
		case now := <-ticker.C:
			b.Tick(now)
		}
	}
}

// Watch reloads the dashboard when its document changes. The directory is
// watched so that editors that replace the file are followed.
func (b *KioskFrameBuffer) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	path := filepath.Clean(b.config.ConfigPath)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(reloadDelay)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.logger.Warn("config watch", "err", err)
		case <-pending:
			pending = nil
			b.Reload()
		}
	}
}

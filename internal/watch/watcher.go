// Package watch runs the pipeline over transcripts dropped into a directory.
//
// Each created or modified *.txt file is processed once its writes settle
// (debounced), and the run is saved next to it as <name>.tasks.json.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/actiond/internal/metrics"
	"github.com/fyrsmithlabs/actiond/internal/output"
	"github.com/fyrsmithlabs/actiond/internal/pipeline"
	"github.com/fyrsmithlabs/actiond/internal/tasks"
	"github.com/fyrsmithlabs/actiond/internal/transcript"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

const (
	defaultDebounce = 500 * time.Millisecond
	outputSuffix    = ".tasks.json"
	resultBuffer    = 16
)

// Processor runs one transcript through the pipeline.
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (*pipeline.Run, error)
}

// Result is the outcome for one transcript file.
type Result struct {
	Path      string
	Output    string
	Run       *pipeline.Run
	Err       error
	Timestamp time.Time
}

// Watcher watches a directory for transcripts.
type Watcher struct {
	dir       string
	roster    tasks.Roster
	processor Processor
	debounce  time.Duration
	logger    *zap.Logger
	metrics   *metrics.Metrics

	watcher *fsnotify.Watcher
	results chan Result
	stop    chan struct{}

	mu       sync.Mutex
	timers   map[string]*time.Timer
	stopped  bool
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a file must be quiet before it is processed.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithPrometheus counts processed files on m.
func WithPrometheus(m *metrics.Metrics) Option {
	return func(w *Watcher) {
		w.metrics = m
	}
}

// NewWatcher creates a watcher over dir that assigns tasks from roster.
func NewWatcher(dir string, roster tasks.Roster, p Processor, opts ...Option) (*Watcher, error) {
	if p == nil {
		return nil, fmt.Errorf("processor is required")
	}
	if err := roster.Validate(); err != nil {
		return nil, fmt.Errorf("watch roster: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}

	w := &Watcher{
		dir:       dir,
		roster:    roster,
		processor: p,
		debounce:  defaultDebounce,
		logger:    zap.NewNop(),
		watcher:   fw,
		results:   make(chan Result, resultBuffer),
		stop:      make(chan struct{}),
		timers:    make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. Events are handled in a background goroutine until
// ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.logger.Info("watching for transcripts", zap.String("dir", w.dir))

	go w.processEvents(ctx)
	return nil
}

// Stop stops the watcher, waits for in-flight files and closes Results.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		for path, t := range w.timers {
			t.Stop()
			delete(w.timers, path)
		}
		w.mu.Unlock()

		close(w.stop)
		_ = w.watcher.Close() // Best-effort cleanup, ignore error
		w.wg.Wait()
		close(w.results)
	})
}

// Results returns the channel of processed files. It is closed by Stop.
// When nobody reads it, results beyond its buffer are dropped.
func (w *Watcher) Results() <-chan Result {
	return w.results
}

// processEvents schedules transcripts as filesystem events arrive.
func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && IsTranscript(event.Name) {
				w.schedule(ctx, event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("filesystem watcher error", zap.Error(err))
		}
	}
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scheduleLocked(ctx, path)
}

// scheduleLocked arms or pushes back the timer for path. w.mu must be held.
// A timer that already fired may have a callback waiting on w.mu, so it is
// replaced rather than reset.
func (w *Watcher) scheduleLocked(ctx context.Context, path string) {
	if w.stopped {
		return
	}
	if t, ok := w.timers[path]; ok && t.Stop() {
		t.Reset(w.debounce)
		return
	}

	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.stopped {
			w.mu.Unlock()
			return
		}
		if w.timers[path] == t {
			delete(w.timers, path)
		}
		w.wg.Add(1)
		w.mu.Unlock()

		defer w.wg.Done()
		w.emit(w.processFile(ctx, path))
	})
	w.timers[path] = t
}

// processFile runs the pipeline over path and saves the run beside it.
func (w *Watcher) processFile(ctx context.Context, path string) Result {
	res := Result{Path: path, Output: OutputPath(path), Timestamp: time.Now()}

	text, err := transcript.Load(path)
	if err != nil {
		res.Err = err
		return res
	}

	run, err := w.processor.Process(ctx, pipeline.Request{
		Transcript: &text,
		Roster:     w.roster,
		Source:     path,
	})
	if err != nil {
		res.Err = err
		return res
	}
	res.Run = run

	if err := output.SaveJSON(res.Output, run); err != nil {
		res.Err = err
	}
	return res
}

func (w *Watcher) emit(res Result) {
	status := "ok"
	if res.Err != nil {
		status = "error"
		w.logger.Error("failed to process transcript", zap.String("path", res.Path), zap.Error(res.Err))
	} else {
		w.logger.Info("processed transcript",
			zap.String("path", res.Path),
			zap.String("output", res.Output),
			zap.Int("tasks", res.Run.TaskCount))
	}
	if w.metrics != nil {
		w.metrics.WatchEvents.WithLabelValues(status).Inc()
	}

	select {
	case w.results <- res:
	default:
		w.logger.Warn("result channel full, dropping result", zap.String("path", res.Path))
	}
}

// IsTranscript reports whether path is a transcript the watcher handles:
// a visible *.txt file.
func IsTranscript(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".txt")
}

// OutputPath returns where the run for transcript path is saved.
func OutputPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + outputSuffix
}

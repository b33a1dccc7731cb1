// Package live keeps a subscriber supplied with freshly rebuilt values, either
// when session files change on disk or on a fixed polling interval.
package live

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

const (
	DefaultDebounce     = 300 * time.Millisecond
	DefaultPollInterval = 5 * time.Second
)

// Mode selects the delivery strategy.
type Mode string

const (
	ModeWatch Mode = "watch"
	ModePoll  Mode = "poll"
)

func ParseMode(s string) Mode {
	if Mode(s) == ModePoll {
		return ModePoll
	}
	return ModeWatch
}

// Options configures Start.
type Options struct {
	Mode         Mode
	Debounce     time.Duration
	PollInterval time.Duration
}

func DefaultOptions() Options {
	return Options{
		Mode:         ModeWatch,
		Debounce:     DefaultDebounce,
		PollInterval: DefaultPollInterval,
	}
}

// BuildFunc produces one complete value from scratch.
type BuildFunc[T any] func(context.Context) (T, error)

// Subscription delivers built values. The channel holds at most one value;
// a newer value replaces one the consumer has not read yet.
type Subscription[T any] struct {
	ctx     context.Context
	cancel  context.CancelFunc
	updates chan T
	done    chan struct{}
	once    sync.Once
}

func newSubscription[T any](ctx context.Context) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	return &Subscription[T]{
		ctx:     ctx,
		cancel:  cancel,
		updates: make(chan T, 1),
		done:    make(chan struct{}),
	}
}

// Updates is closed once the subscription stops.
func (s *Subscription[T]) Updates() <-chan T {
	return s.updates
}

// Done is closed after the scheduler goroutine has released its resources.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Stop halts further deliveries and waits for the scheduler to exit. It is
// safe to call more than once and from several goroutines.
func (s *Subscription[T]) Stop() {
	s.once.Do(s.cancel)
	<-s.done
}

// publish must only be called from the scheduler goroutine.
func (s *Subscription[T]) publish(v T) {
	for {
		select {
		case s.updates <- v:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}

func (s *Subscription[T]) finish() {
	close(s.updates)
	close(s.done)
}

// rebuild runs build and publishes its value. Failures are logged and
// swallowed so the caller's loop keeps going.
func (s *Subscription[T]) rebuild(build BuildFunc[T]) {
	v, err := safeBuild(s.ctx, build)
	if err != nil {
		if s.ctx.Err() == nil {
			log.Printf("[live] rebuild failed: %v", err)
		}
		return
	}
	if s.ctx.Err() != nil {
		return
	}
	s.publish(v)
}

func safeBuild[T any](ctx context.Context, build BuildFunc[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("build panicked: %v", r)
		}
	}()
	return build(ctx)
}

// Start picks the strategy named by opts. dirs is only used in watch mode.
func Start[T any](ctx context.Context, opts Options, dirs []string, build BuildFunc[T]) (*Subscription[T], error) {
	if opts.Mode == ModePoll {
		return Poll(ctx, opts.PollInterval, build), nil
	}
	return Watch(ctx, dirs, opts.Debounce, build)
}

// Poll delivers one value immediately and then one per interval tick.
func Poll[T any](ctx context.Context, interval time.Duration, build BuildFunc[T]) *Subscription[T] {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	sub := newSubscription[T](ctx)
	sub.rebuild(build)

	go func() {
		ticker := time.NewTicker(interval)
		defer sub.finish()
		defer ticker.Stop()
		for {
			select {
			case <-sub.ctx.Done():
				return
			case <-ticker.C:
				sub.rebuild(build)
			}
		}
	}()
	return sub
}

// Deliver calls fn for every value until the subscription stops. A panic in
// fn only loses that one delivery.
func Deliver[T any](sub *Subscription[T], fn func(T)) {
	for v := range sub.Updates() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[live] subscriber panicked: %v", r)
				}
			}()
			fn(v)
		}()
	}
}

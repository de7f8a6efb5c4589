package live

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

// Subscriber maintains a client connection to a live stream and invokes
// the handler for every event. The connection is re-dialed with
// exponential backoff after any failure; events may be missed while
// reconnecting, which is safe because handlers must treat any event as
// a "re-fetch everything" signal, not as state.
type Subscriber struct {
	url       string
	baseDelay time.Duration
	maxDelay  time.Duration
	logger    *logging.Logger
	dialer    *websocket.Dialer
}

// NewSubscriber creates a reconnecting subscriber for the given ws URL.
func NewSubscriber(url string, baseDelay, maxDelay time.Duration, logger *logging.Logger) *Subscriber {
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if maxDelay < baseDelay {
		maxDelay = time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Subscriber{
		url:       url,
		baseDelay: baseDelay,
		maxDelay:  maxDelay,
		logger:    logger.Component("live-subscriber"),
		dialer:    websocket.DefaultDialer,
	}
}

// Run blocks until ctx is cancelled, delivering events to handle.
func (s *Subscriber) Run(ctx context.Context, handle func(Event)) {
	delay := s.baseDelay
	for {
		if ctx.Err() != nil {
			return
		}

		if err := s.consumeOnce(ctx, handle); err != nil {
			s.logger.Warn("live: connection lost, reconnecting", "url", s.url, "delay", delay.String(), "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > s.maxDelay {
			delay = s.maxDelay
		}
	}
}

func (s *Subscriber) consumeOnce(ctx context.Context, handle func(Event)) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	// Drop the connection promptly on cancellation.
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-connCtx.Done()
		_ = conn.Close()
	}()

	s.logger.Info("live: connected", "url", s.url)

	for {
		var evt Event
		if err := conn.ReadJSON(&evt); err != nil {
			return err
		}
		handle(evt)
	}
}

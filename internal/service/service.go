// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/redis/go-redis/v9"
	"github.com/vorlif/spreak"
	"golang.org/x/text/language"

	"github.com/domashka/domashka/internal/address"
	"github.com/domashka/domashka/internal/config"
	"github.com/domashka/domashka/internal/geocode"
	"github.com/domashka/domashka/internal/i18n"
	"github.com/domashka/domashka/internal/logger"
	"github.com/domashka/domashka/internal/menu"
	"github.com/domashka/domashka/internal/presenter"
)

const cachePurgeJob = "geocode_cache_purge_job"

type Service struct {
	config    *config.Config
	logger    *logger.Logger
	t         *spreak.Localizer
	lang      language.Tag
	scheduler gocron.Scheduler
	signals   signalSource

	geocoder  geocode.Geocoder
	cache     *geocode.CachedGeocoder
	redis     redis.UniversalClient
	manager   *address.Manager
	presenter *presenter.Presenter
	catalog   *menu.Catalog

	input     io.Reader
	outLock   sync.Mutex
	output    io.Writer
	forwarder sync.WaitGroup

	sessionLock sync.RWMutex
	session     *address.Session
	results     []geocode.Place
}

// Option configures a Service.
type Option func(*Service)

// WithIO replaces stdin and stdout as the command source and the view sink.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(s *Service) {
		s.input = in
		s.output = out
	}
}

func New(conf *config.Config, log *logger.Logger, t *spreak.Localizer, opts ...Option) (*Service, error) {
	service := &Service{
		config:  conf,
		logger:  log,
		t:       t,
		lang:    i18n.Language(conf.Locale),
		signals: stdLibSignalSource{},
		input:   os.Stdin,
		output:  os.Stdout,
	}
	for _, opt := range opts {
		opt(service)
	}

	provider, err := service.selectGeocodeProvider(conf, log, service.lang)
	if err != nil {
		return nil, err
	}
	service.geocoder = service.wrapGeocoder(provider)

	service.presenter, err = presenter.New(t, service.lang, conf.Presenter.AddressWidth,
		presenter.WithText(conf.Presenter.Text))
	if err != nil {
		return nil, fmt.Errorf("failed to create presenter: %w", err)
	}

	service.manager, err = address.NewManager(service.geocoder, log, address.Options{
		Start:        conf.DefaultCoordinate(),
		DefaultLabel: conf.Session.DefaultAddress,
		Placeholder:  service.presenter.Placeholder(),
		Regions:      conf.SupportedRegions(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create address session manager: %w", err)
	}

	service.catalog, err = menu.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load menu catalog: %w", err)
	}

	return service, nil
}

// Run opens the first address session and processes commands until the input ends or the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	s.scheduler = scheduler
	if err = s.createScheduledJob(ctx, s.config.Intervals.CachePurge, s.purgeGeocodeCache,
		cachePurgeJob); err != nil {
		return errors.Join(err, s.scheduler.Shutdown())
	}
	s.scheduler.Start()

	sigChan := make(chan os.Signal, 1)
	s.signals.Notify(sigChan, syscall.SIGUSR1)
	go s.HandleRefreshSignal(ctx, sigChan)

	if err = s.openSession(ctx); err != nil {
		return s.shutdown(sigChan, err)
	}

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go s.readCommands(ctx, lines, readErr)

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line := <-lines:
			if err := s.handleCommand(ctx, line); err != nil {
				s.logger.Warn("failed to process command", logger.Err(err))
				s.writeError(err)
			}
		case err := <-readErr:
			if err != nil {
				runErr = fmt.Errorf("failed to read commands: %w", err)
			}
			break loop
		}
	}

	return s.shutdown(sigChan, runErr)
}

func (s *Service) shutdown(sigChan chan os.Signal, runErr error) error {
	s.signals.Stop(sigChan)
	s.manager.CloseAll()
	s.forwarder.Wait()

	errs := []error{runErr}
	if err := s.scheduler.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("failed to shut down scheduler: %w", err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) createScheduledJob(ctx context.Context, interval time.Duration, task func(context.Context),
	jobName string,
) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(jobName),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	return nil
}

// purgeGeocodeCache drops expired entries from the in-memory geocode cache.
func (s *Service) purgeGeocodeCache(context.Context) {
	if s.cache == nil {
		return
	}
	if purged := s.cache.Purge(); purged > 0 {
		s.logger.Debug("purged expired geocode cache entries", slog.Int("purged", purged),
			slog.Int("remaining", s.cache.Len()))
	}
}

// openSession starts a new address session and forwards its states as rendered views.
func (s *Service) openSession(ctx context.Context) error {
	sess, err := s.manager.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open address session: %w", err)
	}

	s.sessionLock.Lock()
	s.session = sess
	s.results = nil
	s.sessionLock.Unlock()

	updates, _ := sess.Subscribe(s.config.Session.UpdateBuffer)
	s.forwarder.Add(1)
	go func() {
		defer s.forwarder.Done()
		for state := range updates {
			s.writeView(state)
		}
	}()
	return nil
}

func (s *Service) currentSession() *address.Session {
	s.sessionLock.RLock()
	defer s.sessionLock.RUnlock()
	return s.session
}

// HandleRefreshSignal prints the view of the current session again when a signal is received.
func (s *Service) HandleRefreshSignal(ctx context.Context, sigChan chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-sigChan:
			if !ok {
				return
			}
			s.purgeGeocodeCache(ctx)
			if sess := s.currentSession(); sess != nil {
				s.writeView(sess.State())
			}
		}
	}
}

type signalSource interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

type stdLibSignalSource struct{}

func (stdLibSignalSource) Notify(c chan<- os.Signal, sig ...os.Signal) {
	signal.Notify(c, sig...)
}

func (stdLibSignalSource) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}

package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/buildsignals/buildsignals/app/cfg"
	"github.com/buildsignals/buildsignals/app/database"
	"github.com/buildsignals/buildsignals/app/llm"
	"github.com/buildsignals/buildsignals/app/source"
	"github.com/buildsignals/buildsignals/app/validator"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	configCache *source.ConfigCache
	signalRepo  database.SignalRepository
	oppRepo     database.OpportunityRepository
	scorer      *llm.Scorer
	drafter     *llm.Drafter
	validator   *validator.Validator
	httpClient  *http.Client
	creds       source.Credentials
	userAgent   string
	interval    time.Duration
	workerCount int
	batchSize   int
	topN        int
	draftTopN   int
	dataDir     string
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface

	mu        sync.Mutex
	lastFetch map[string]time.Time
}

func NewScheduler(configCache *source.ConfigCache, signalRepo database.SignalRepository,
	oppRepo database.OpportunityRepository, httpClient *http.Client,
	scorer *llm.Scorer, drafter *llm.Drafter, v *validator.Validator) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		configCache: configCache,
		signalRepo:  signalRepo,
		oppRepo:     oppRepo,
		scorer:      scorer,
		drafter:     drafter,
		validator:   v,
		httpClient:  httpClient,
		creds:       source.Credentials{ProductHuntToken: cfg.ProductHuntToken},
		userAgent:   cfg.UserAgent,
		interval:    time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		topN:        cfg.TopN,
		draftTopN:   cfg.DraftTopN,
		dataDir:     cfg.DataDir,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
		lastFetch:   make(map[string]time.Time),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueFetchSource forces an immediate fetch of one source,
// regardless of its refresh cadence. Exposed through the API.
func (s *Scheduler) EnqueueFetchSource(sourceName string) error {
	sourceConfig, err := s.configCache.GetConfig(sourceName)
	if err != nil {
		return err
	}

	fetcher, err := source.NewFetcher(sourceConfig, s.httpClient, s.creds, s.userAgent)
	if err != nil {
		return err
	}

	s.markFetched(sourceName)
	return s.EnqueueTask(NewFetchSourceTask(sourceName, sourceConfig, fetcher, s.signalRepo))
}

// EnqueueValidation runs the cross-referencing pipeline on demand.
// Validation is operator-triggered rather than scheduled: each run
// costs a model call per signal plus three evidence lookups.
func (s *Scheduler) EnqueueValidation() error {
	return s.EnqueueTask(NewValidateSignalsTask(s.signalRepo, s.oppRepo, s.validator, s.topN, s.dataDir))
}

// EnqueueDrafts generates tweet drafts for the current top scored
// signals, on demand for the same cost reasons as validation.
func (s *Scheduler) EnqueueDrafts() error {
	return s.EnqueueTask(NewDraftContentTask(s.signalRepo, s.drafter, s.draftTopN, s.dataDir))
}

func (s *Scheduler) enqueueTasks() {
	sourceConfigs := s.configCache.GetEnabledConfigs()
	if len(sourceConfigs) == 0 {
		slog.Debug("No enabled source configurations found")
	}

	now := time.Now()
	for _, sourceConfig := range sourceConfigs {
		if !s.fetchDue(sourceConfig, now) {
			slog.Debug("Source not due for refresh yet", "source", sourceConfig.Name)
			continue
		}

		fetcher, err := source.NewFetcher(sourceConfig, s.httpClient, s.creds, s.userAgent)
		if err != nil {
			slog.Warn("Failed to build fetcher, skipping", "source", sourceConfig.Name, "error", err)
			continue
		}

		task := NewFetchSourceTask(sourceConfig.Name, sourceConfig, fetcher, s.signalRepo)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue FetchSourceTask", "source", sourceConfig.Name, "error", err)
			continue
		}
		s.markFetched(sourceConfig.Name)
	}

	scoreTask := NewScoreSignalsTask(s.signalRepo, s.scorer, s.batchSize*10)
	if err := s.EnqueueTask(scoreTask); err != nil {
		slog.Warn("Failed to enqueue ScoreSignalsTask", "error", err)
	}
}

func (s *Scheduler) fetchDue(sourceConfig *source.Config, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, ok := s.lastFetch[sourceConfig.Name]
	if !ok {
		return true
	}
	return now.Sub(last) >= time.Duration(sourceConfig.Settings.RefreshInterval)*time.Second
}

func (s *Scheduler) markFetched(sourceName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFetch[sourceName] = time.Now()
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}

// Command zroj-judge runs the worker-pool daemon: it reserves submission
// IDs off the Redis queue, judges each one against its problem's taskset
// in the sandbox, and writes the resulting report back into the
// submission's own directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"zroj/internal/checker"
	"zroj/internal/config"
	"zroj/internal/judge"
	"zroj/internal/lang"
	"zroj/internal/problem"
	"zroj/internal/queue"
	"zroj/internal/sandbox"
	"zroj/internal/sandbox/engine"
	"zroj/internal/sandbox/profile"
	"zroj/internal/sandbox/runner"
	"zroj/internal/sandbox/security"
	"zroj/internal/sandbox/spec"
	"zroj/internal/store"
	"zroj/pkg/logger"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.LoggerConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := buildRepository(cfg)

	eng, err := engine.NewEngine(cfg.Sandbox, repo)
	if err != nil {
		logger.Error(ctx, "create sandbox engine", zap.Error(err))
		os.Exit(1)
	}
	svc := sandbox.NewService(
		runner.NewDefaultRunner(eng),
		eng,
		checker.AutoCmp{FloatAbsEps: 1e-6, FloatRelEps: 1e-6},
		logReporter{},
		logMetrics{},
	)
	pipeline := judge.NewPipeline(svc)

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error(ctx, "parse redis url", zap.Error(err))
		os.Exit(1)
	}
	redisClient := redis.NewClient(opts)
	defer redisClient.Close()

	q := queue.NewRedisQueue(redisClient)
	sweeper := queue.NewSweeper(q, cfg.QueueSweepEvery)
	go sweeper.Run(ctx)

	hostname, _ := os.Hostname()
	handler := newHandler(cfg, pipeline)

	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerConcurrency; i++ {
		workerID := fmt.Sprintf("%s-%d", cfg.WorkerID, i)
		hb := queue.NewHeartbeatState(workerID, hostname, 1)
		go hb.Start(ctx, redisClient)

		w := queue.NewWorker(workerID, q, handler, hb)
		w.Visibility = cfg.QueueVisibility

		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx, time.Second)
		}()
	}

	logger.Info(ctx, "zroj-judge started", zap.Int("workers", cfg.WorkerConcurrency))
	<-ctx.Done()
	logger.Info(ctx, "zroj-judge shutting down")
	wg.Wait()
}

// supportedLanguages lists every language spec this worker can compile
// and run. A real deployment would load these from configuration.
func supportedLanguages() []profile.LanguageSpec {
	return []profile.LanguageSpec{
		lang.BuiltinGnuCppO2("c++17"),
		lang.BuiltinGnuCppO2("c++20"),
		lang.BuiltinGnuC17O2("c11"),
		lang.BuiltinGnuC17O2("c17"),
		lang.BuiltinPython3(),
	}
}

// buildRepository registers every supported language and its compile/run
// task profiles, plus the empty-string isolation profile every RunSpec
// falls back to when a problem doesn't pin its own rootfs.
func buildRepository(cfg config.Config) *profile.LocalRepository {
	repo := profile.NewLocalRepository()
	repo.RegisterIsolation("", security.IsolationProfile{})

	for _, l := range supportedLanguages() {
		repo.RegisterLanguage(l)
		repo.RegisterTask(profile.TaskProfile{
			LanguageID:    l.ID,
			TaskType:      profile.TaskTypeCompile,
			DefaultLimits: cfg.DefaultLimits,
		})
		repo.RegisterTask(profile.TaskProfile{
			LanguageID:    l.ID,
			TaskType:      profile.TaskTypeRun,
			DefaultLimits: cfg.DefaultLimits,
		})
	}
	return repo
}

func languageByID(id string) profile.LanguageSpec {
	for _, l := range supportedLanguages() {
		if l.ID == id {
			return l
		}
	}
	return lang.BuiltinGnuCppO2("c++17")
}

// newHandler closes over the pipeline and storage roots to build a
// queue.Handler: load the submission record and its problem's OJData,
// run the full judge, and persist the report.
func newHandler(cfg config.Config, pipeline *judge.Pipeline) queue.Handler {
	return func(ctx context.Context, submissionID string) error {
		subHandle := store.NewHandle(filepath.Join(cfg.WorkRoot, "submissions", submissionID))
		rec, err := judge.LoadSubmissionRecord(subHandle)
		if err != nil {
			return fmt.Errorf("load submission record: %w", err)
		}

		problemHandle := store.NewHandle(filepath.Join(cfg.WorkRoot, "problems", rec.ProblemID))
		data, err := problem.Open[problem.Task, problem.Meta](problemHandle)
		if err != nil {
			return fmt.Errorf("load problem data: %w", err)
		}

		chk, err := checker.Resolve(data.Meta.Checker, problemHandle.Path())
		if err != nil {
			return fmt.Errorf("resolve checker: %w", err)
		}

		langSpec := languageByID(rec.LanguageID)
		taskProfile := profile.TaskProfile{
			LanguageID: langSpec.ID,
			DefaultLimits: spec.ResourceLimit{
				CPUTimeMs:  data.Meta.TimeLimitMs,
				WallTimeMs: data.Meta.TimeLimitMs * 3,
				MemoryMB:   data.Meta.MemoryMB,
				OutputMB:   data.Meta.OutputMB,
				StackMB:    cfg.DefaultLimits.StackMB,
				PIDs:       cfg.DefaultLimits.PIDs,
			},
		}

		sub := judge.Submission{
			ID:             submissionID,
			Language:       langSpec,
			LangOption:     lang.New(langSpec),
			SourcePath:     judge.SourcePath(subHandle),
			WorkRoot:       filepath.Join(cfg.WorkRoot, "run", submissionID),
			CompileProfile: taskProfile,
			RunProfile:     taskProfile,
			Checker:        chk,
		}

		fullReport, err := pipeline.JudgeFull(ctx, sub, data, problemHandle.Path())
		if err != nil {
			return fmt.Errorf("judge submission: %w", err)
		}
		if err := fullReport.Save(subHandle); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		return nil
	}
}

// logReporter publishes judge progress through the structured logger
// instead of a dashboard channel, the simplest StatusReporter this worker
// needs until one is wired to a real status store.
type logReporter struct{}

func (logReporter) ReportStatus(ctx context.Context, update sandbox.StatusUpdate) error {
	logger.Info(ctx, "judge status",
		zap.String("submission_id", update.SubmissionID),
		zap.String("status", string(update.Status)),
		zap.Int("done", update.DoneTests),
		zap.Int("total", update.TotalTests),
	)
	return nil
}

// logMetrics records compile/run outcomes as debug log lines rather than
// a metrics backend, matching logReporter's stopgap role.
type logMetrics struct{}

func (logMetrics) ObserveCompile(ctx context.Context, languageID string, ok bool, timeMs int64, memoryKB int64) {
	logger.Debug(ctx, "compile observed",
		zap.String("language", languageID), zap.Bool("ok", ok),
		zap.Int64("time_ms", timeMs), zap.Int64("memory_kb", memoryKB))
}

func (logMetrics) ObserveRun(ctx context.Context, languageID string, verdict string, timeMs int64, memoryKB int64, outputKB int64) {
	logger.Debug(ctx, "run observed",
		zap.String("language", languageID), zap.String("verdict", verdict),
		zap.Int64("time_ms", timeMs), zap.Int64("memory_kb", memoryKB), zap.Int64("output_kb", outputKB))
}

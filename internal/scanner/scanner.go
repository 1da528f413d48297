// Package scanner fans cookie containers out across the probe catalog on a
// bounded worker pool and aggregates the verdicts.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lunhatthanh83-boop/bottele/internal/cookie"
	"github.com/lunhatthanh83-boop/bottele/internal/metrics"
	"github.com/lunhatthanh83-boop/bottele/internal/probe"
)

// TargetAll requests a probe of every configured target.
const TargetAll = "all"

const defaultWorkerCount = 5

// Payload is one named cookie container, bytes untouched so successful
// containers can be re-exported verbatim.
type Payload struct {
	Name    string
	Content []byte
}

// Report is the complete outcome of one batch. Files holds a result per
// (file, target) pair that had matching cookies; FileErrors holds per-file
// failures (no valid cookies, unsupported target) that did not stop the
// rest of the batch.
type Report struct {
	Files      map[string]map[string]*probe.Result
	FileErrors map[string]string
	Live       map[string][]LiveEntry
	Processed  int
}

// LiveEntry is one success, carrying the original container bytes for the
// export archive.
type LiveEntry struct {
	File    string
	Content []byte
	Result  *probe.Result
}

// LiveCount sums successes across targets.
func (r *Report) LiveCount() int {
	n := 0
	for _, entries := range r.Live {
		n += len(entries)
	}
	return n
}

type Scanner struct {
	registry *probe.Registry
	workers  int
	logger   *zap.Logger
	metrics  *metrics.Collector
}

func New(registry *probe.Registry, workers int, logger *zap.Logger, collector *metrics.Collector) *Scanner {
	if workers <= 0 {
		workers = defaultWorkerCount
	}
	return &Scanner{
		registry: registry,
		workers:  workers,
		logger:   logger,
		metrics:  collector,
	}
}

type job struct {
	file     string
	content  []byte
	targetID string
	cookies  []cookie.Cookie
}

type jobResult struct {
	file     string
	targetID string
	result   *probe.Result
}

// Scan probes every payload against the selected target, or against the
// whole catalog when targetID is TargetAll. The returned report is always
// complete: every submitted job lands as a result, a per-file error, or
// nothing when no cookies matched the target. Cancelling ctx abandons
// unstarted jobs; completed results are still returned.
func (s *Scanner) Scan(ctx context.Context, payloads []Payload, targetID string) (*Report, error) {
	if targetID != TargetAll {
		if _, ok := s.registry.Target(targetID); !ok {
			return nil, fmt.Errorf("unknown target %q", targetID)
		}
	}

	report := &Report{
		Files:      make(map[string]map[string]*probe.Result),
		FileErrors: make(map[string]string),
		Live:       make(map[string][]LiveEntry),
	}

	var jobs []job
	contents := make(map[string][]byte, len(payloads))
	for _, p := range payloads {
		contents[p.Name] = p.Content
		parsed := cookie.Parse(string(p.Content))
		if len(parsed) == 0 {
			report.FileErrors[p.Name] = "No valid cookies found in file"
			continue
		}
		fileJobs := s.buildJobs(p, parsed, targetID)
		if len(fileJobs) == 0 {
			// Valid container, nothing to probe. Recorded explicitly so
			// every submitted file shows up in the report, but never
			// counted as processed: only probed containers are charged.
			if targetID == TargetAll {
				report.FileErrors[p.Name] = "No target cookies found in file"
				continue
			}
			report.Files[p.Name] = map[string]*probe.Result{targetID: {
				Status:  probe.StatusNoCookies,
				Message: fmt.Sprintf("No suitable cookies found for %s", s.registry.DisplayName(targetID)),
			}}
			continue
		}
		jobs = append(jobs, fileJobs...)
		report.Processed++
	}

	if len(jobs) > 0 {
		s.runJobs(ctx, jobs, report)
	}

	for file, byTarget := range report.Files {
		for target, res := range byTarget {
			if res.Status == probe.StatusSuccess {
				report.Live[target] = append(report.Live[target], LiveEntry{
					File:    file,
					Content: contents[file],
					Result:  res,
				})
			}
		}
	}
	return report, nil
}

// buildJobs filters cookies per target; a target with zero matching cookies
// is skipped entirely, which means "irrelevant", not "failed".
func (s *Scanner) buildJobs(p Payload, parsed []cookie.Cookie, targetID string) []job {
	ids := []string{targetID}
	if targetID == TargetAll {
		ids = s.registry.IDs()
	}

	var jobs []job
	for _, id := range ids {
		target, ok := s.registry.Target(id)
		if !ok {
			continue
		}
		filtered := cookie.FilterByDomain(parsed, target.Domains)
		if len(filtered) == 0 {
			continue
		}
		jobs = append(jobs, job{file: p.Name, content: p.Content, targetID: id, cookies: filtered})
	}
	return jobs
}

func (s *Scanner) runJobs(ctx context.Context, jobs []job, report *Report) {
	queue := make(chan job)
	results := make(chan jobResult, len(jobs))

	var wg sync.WaitGroup
	workers := s.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger := s.logger.With(zap.Int("worker_id", id))
			for j := range queue {
				results <- jobResult{file: j.file, targetID: j.targetID, result: s.runProbe(ctx, logger, j)}
			}
		}(i)
	}

	go func() {
		defer close(queue)
		for _, j := range jobs {
			select {
			case <-ctx.Done():
				return
			case queue <- j:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		if report.Files[r.file] == nil {
			report.Files[r.file] = make(map[string]*probe.Result)
		}
		report.Files[r.file][r.targetID] = r.result
	}
}

// runProbe executes one strategy with a recovery net so a misbehaving
// prober never takes down its siblings.
func (s *Scanner) runProbe(ctx context.Context, logger *zap.Logger, j job) (res *probe.Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Probe panicked",
				zap.String("file", j.file),
				zap.String("target", j.targetID),
				zap.Any("panic", r),
			)
			res = &probe.Result{
				Status:      probe.StatusError,
				Message:     fmt.Sprintf("Internal error while testing cookies: %v", r),
				CookieCount: len(j.cookies),
			}
		}
		if s.metrics != nil {
			s.metrics.RecordProbe(j.targetID, string(res.Status))
			s.metrics.ObserveProbeDuration(time.Since(start).Seconds())
		}
	}()

	prober, ok := s.registry.Prober(j.targetID)
	if !ok {
		return &probe.Result{Status: probe.StatusError, Message: fmt.Sprintf("Scan not supported for %s", j.targetID)}
	}

	logger.Debug("Probing target",
		zap.String("file", j.file),
		zap.String("target", j.targetID),
		zap.Int("cookies", len(j.cookies)),
	)

	res = prober.Probe(ctx, j.cookies)
	if res == nil {
		res = &probe.Result{Status: probe.StatusUnknown, Message: "Internal error while testing cookies"}
	}
	res.CookieCount = len(j.cookies)
	return res
}

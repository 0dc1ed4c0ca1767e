package extractor

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// WorkerPool runs per-file extraction tasks in parallel. Each image is
// processed start to finish by a single worker.
type WorkerPool struct {
	ctx            context.Context
	extractor      *ImageExtractor
	tasks          chan ExtractionTask
	results        chan ExtractionTaskResult
	progressChan   chan ProgressUpdate
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	numWorkers     int
	totalTasks     int
	completedTasks int
	mu             sync.RWMutex
}

// ExtractionTask represents a single file extraction task.
type ExtractionTask struct {
	ID       string
	Filename string
	Order    int
	Options  ExtractionOptions
}

// ExtractionTaskResult represents the result of a file extraction task.
type ExtractionTaskResult struct {
	Error  error
	Result *ExtractionResult
	Task   ExtractionTask
}

// ProgressUpdate provides progress information.
type ProgressUpdate struct {
	TaskID      string
	Filename    string
	Status      TaskStatus
	Message     string
	Completed   int
	Total       int
	ElapsedTime time.Duration
}

// TaskStatus represents the status of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// NewWorkerPool creates a pool of numWorkers workers sharing extractor.
func NewWorkerPool(ctx context.Context, extractor *ImageExtractor, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 4
	}

	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		extractor:    extractor,
		numWorkers:   numWorkers,
		tasks:        make(chan ExtractionTask, numWorkers*2),
		results:      make(chan ExtractionTaskResult, numWorkers*2),
		progressChan: make(chan ProgressUpdate, 100),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start launches the workers.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(workerID int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return
		case task, ok := <-wp.tasks:
			if !ok {
				return
			}

			wp.processTask(workerID, task)
		}
	}
}

func (wp *WorkerPool) processTask(workerID int, task ExtractionTask) {
	start := time.Now()

	wp.sendProgress(ProgressUpdate{
		TaskID:   task.ID,
		Filename: task.Filename,
		Status:   TaskStatusProcessing,
		Message:  fmt.Sprintf("Worker %d started processing", workerID),
	})

	result, err := wp.extractor.WithOptions(task.Options).ExtractFromFile(wp.ctx, task.Filename)
	elapsed := time.Since(start)

	wp.mu.Lock()
	wp.completedTasks++
	completed := wp.completedTasks
	total := wp.totalTasks
	wp.mu.Unlock()

	status := TaskStatusCompleted
	message := fmt.Sprintf("Worker %d completed in %v", workerID, elapsed)

	if err != nil {
		status = TaskStatusFailed
		message = fmt.Sprintf("Worker %d failed: %v", workerID, err)
	}

	wp.sendProgress(ProgressUpdate{
		TaskID:      task.ID,
		Filename:    task.Filename,
		Status:      status,
		Completed:   completed,
		Total:       total,
		ElapsedTime: elapsed,
		Message:     message,
	})

	select {
	case wp.results <- ExtractionTaskResult{Task: task, Result: result, Error: err}:
	case <-wp.ctx.Done():
	}
}

// sendProgress drops the update when nobody keeps up with the channel.
func (wp *WorkerPool) sendProgress(update ProgressUpdate) {
	select {
	case wp.progressChan <- update:
	default:
	}
}

// SubmitTask queues a task, blocking while the queue is full.
func (wp *WorkerPool) SubmitTask(task ExtractionTask) {
	wp.mu.Lock()
	wp.totalTasks++
	wp.mu.Unlock()

	wp.sendProgress(ProgressUpdate{
		TaskID:   task.ID,
		Filename: task.Filename,
		Status:   TaskStatusPending,
		Message:  "Task queued for processing",
	})

	select {
	case wp.tasks <- task:
	case <-wp.ctx.Done():
	}
}

// Results returns the results channel.
func (wp *WorkerPool) Results() <-chan ExtractionTaskResult {
	return wp.results
}

// Progress returns the progress channel.
func (wp *WorkerPool) Progress() <-chan ProgressUpdate {
	return wp.progressChan
}

// Wait closes the task queue, waits for the workers and closes the output channels.
func (wp *WorkerPool) Wait() {
	close(wp.tasks)
	wp.wg.Wait()
	close(wp.results)
	close(wp.progressChan)
}

// Shutdown cancels outstanding work and waits for the workers to exit.
func (wp *WorkerPool) Shutdown() {
	wp.cancel()
	wp.Wait()
}

// GetStats returns current processing statistics.
func (wp *WorkerPool) GetStats() WorkerPoolStats {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	return WorkerPoolStats{
		TotalTasks:     wp.totalTasks,
		CompletedTasks: wp.completedTasks,
		PendingTasks:   wp.totalTasks - wp.completedTasks,
		NumWorkers:     wp.numWorkers,
	}
}

// WorkerPoolStats provides statistics about the worker pool.
type WorkerPoolStats struct {
	TotalTasks     int `json:"total_tasks"`
	CompletedTasks int `json:"completed_tasks"`
	PendingTasks   int `json:"pending_tasks"`
	NumWorkers     int `json:"num_workers"`
}

// ProcessFiles extracts links from every file with numWorkers workers and
// returns the task results in input order. A failing file never stops the
// others.
func ProcessFiles(ctx context.Context, extractor *ImageExtractor, filenames []string, options ExtractionOptions, numWorkers int, onProgress func(ProgressUpdate)) []ExtractionTaskResult {
	pool := NewWorkerPool(ctx, extractor, numWorkers)
	pool.Start()

	var progressDone sync.WaitGroup
	progressDone.Add(1)
	go func() {
		defer progressDone.Done()
		for update := range pool.Progress() {
			if onProgress != nil {
				onProgress(update)
			}
		}
	}()

	var submitDone sync.WaitGroup
	submitDone.Add(1)
	go func() {
		defer submitDone.Done()
		for i, filename := range filenames {
			if ctx.Err() != nil {
				return
			}

			pool.SubmitTask(ExtractionTask{
				ID:       fmt.Sprintf("task-%d", i),
				Filename: filename,
				Order:    i,
				Options:  options,
			})
		}
	}()

	results := make([]ExtractionTaskResult, 0, len(filenames))
	for i := 0; i < len(filenames); i++ {
		select {
		case r := <-pool.Results():
			results = append(results, r)
		case <-ctx.Done():
			pool.cancel()
			submitDone.Wait()
			pool.Wait()
			progressDone.Wait()

			return orderResults(results)
		}
	}

	submitDone.Wait()
	pool.Wait()
	progressDone.Wait()

	return orderResults(results)
}

func orderResults(results []ExtractionTaskResult) []ExtractionTaskResult {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Task.Order < results[j].Task.Order
	})

	return results
}

// ProgressTracker tracks and reports progress for a batch of tasks.
type ProgressTracker struct {
	startTime    time.Time
	lastUpdate   time.Time
	taskStatuses map[string]TaskStatus
	updateCount  int
	mu           sync.RWMutex
}

// NewProgressTracker creates a new progress tracker.
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{
		startTime:    time.Now(),
		lastUpdate:   time.Now(),
		taskStatuses: make(map[string]TaskStatus),
	}
}

// Update records a progress update.
func (pt *ProgressTracker) Update(update ProgressUpdate) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.taskStatuses[update.TaskID] = update.Status
	pt.lastUpdate = time.Now()
	pt.updateCount++
}

// GetSummary returns a summary of the current progress.
func (pt *ProgressTracker) GetSummary() ProgressSummary {
	pt.mu.RLock()
	defer pt.mu.RUnlock()

	summary := ProgressSummary{
		StartTime:    pt.startTime,
		LastUpdate:   pt.lastUpdate,
		ElapsedTime:  time.Since(pt.startTime),
		UpdateCount:  pt.updateCount,
		StatusCounts: make(map[TaskStatus]int),
	}

	for _, status := range pt.taskStatuses {
		summary.StatusCounts[status]++
	}

	summary.TotalTasks = len(pt.taskStatuses)

	return summary
}

// ProgressSummary provides a summary of progress tracking.
type ProgressSummary struct {
	StartTime    time.Time          `json:"start_time"`
	LastUpdate   time.Time          `json:"last_update"`
	StatusCounts map[TaskStatus]int `json:"status_counts"`
	ElapsedTime  time.Duration      `json:"elapsed_time"`
	UpdateCount  int                `json:"update_count"`
	TotalTasks   int                `json:"total_tasks"`
}

// PrintProgress writes a one-line progress report to w, overwriting the
// previous one.
func (pt *ProgressTracker) PrintProgress(w io.Writer) {
	summary := pt.GetSummary()

	completed := summary.StatusCounts[TaskStatusCompleted]
	failed := summary.StatusCounts[TaskStatusFailed]
	done := completed + failed

	fmt.Fprintf(w, "\r🔄 Progress: %d/%d images", done, summary.TotalTasks)

	if failed > 0 {
		fmt.Fprintf(w, " (%d failed)", failed)
	}

	if summary.TotalTasks > 0 {
		percentage := float64(done) / float64(summary.TotalTasks) * 100
		fmt.Fprintf(w, " [%.1f%%]", percentage)
	}

	fmt.Fprintf(w, " [%v elapsed]", summary.ElapsedTime.Round(time.Second))
}

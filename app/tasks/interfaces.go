package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API to manage background task
// processing: queue management, worker pool control, and the on-demand
// pipeline triggers exposed to operators.
// Example usage:
//
//	scheduler := NewScheduler(configCache, signalRepo, oppRepo, httpClient, scorer, validator)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueValidation()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueFetchSource(sourceName string) error
	EnqueueValidation() error
	EnqueueDrafts() error
}

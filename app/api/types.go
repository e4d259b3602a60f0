package api

import (
	"github.com/buildsignals/buildsignals/app/database"
	"github.com/buildsignals/buildsignals/app/source"
	"github.com/buildsignals/buildsignals/app/tasks"
)

type Handler struct {
	signalRepo  database.SignalRepository
	oppRepo     database.OpportunityRepository
	configCache *source.ConfigCache
	scheduler   tasks.TaskSchedulerInterface
}

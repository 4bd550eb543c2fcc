package cli

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"task-planner/internal/config"
	"task-planner/internal/repository"
	"task-planner/internal/service"
)

// app holds the repositories and services shared by the long running
// commands.
type app struct {
	cfg       config.Config
	db        *gorm.DB
	users     *repository.UserRepository
	tasks     *service.TaskService
	lists     *service.ListService
	labels    *service.LabelService
	search    *service.SearchService
	reminders *service.ReminderService
}

func newApp(cfg config.Config) (*app, error) {
	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	loc := cfg.Location()
	taskRepo := repository.NewTaskRepository(db)
	listRepo := repository.NewListRepository(db)
	labelRepo := repository.NewLabelRepository(db)
	reminderRepo := repository.NewReminderRepository(db)

	return &app{
		cfg:   cfg,
		db:    db,
		users: repository.NewUserRepository(db),
		tasks: service.NewTaskService(
			taskRepo,
			listRepo,
			labelRepo,
			repository.NewHistoryRepository(db),
			reminderRepo,
			loc,
		),
		lists:     service.NewListService(listRepo),
		labels:    service.NewLabelService(labelRepo),
		search:    service.NewSearchService(taskRepo, loc),
		reminders: service.NewReminderService(taskRepo, reminderRepo, loc),
	}, nil
}

func (a *app) Close() {
	sqlDB, err := a.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("[warn] close database: %v", err)
	}
}

// Seed creates a demo user with a handful of tasks: go run ./cmd/seed [username] [password]
package main

import (
	"context"
	"errors"
	stdlog "log"
	"os"
	"time"

	"taskmanager/internal/app"
	"taskmanager/internal/config"
	dom "taskmanager/internal/domain"
	"taskmanager/internal/logger"
	"taskmanager/internal/service"
)

func main() {
	username, password := "demo", "demo1234"
	if len(os.Args) > 1 {
		username = os.Args[1]
	}
	if len(os.Args) > 2 {
		password = os.Args[2]
	}

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("config: %v", err)
	}
	log, err := logger.New(cfg.App.Env, cfg.Log.Level, os.Stderr)
	if err != nil {
		stdlog.Fatalf("logger: %v", err)
	}
	stores, err := app.OpenStores(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("open store")
	}
	defer stores.Close()

	ctx := context.Background()
	users := service.NewUserService(stores.Users, cfg.Auth.BcryptCost)
	user, err := users.Register(ctx, username, password)
	if errors.Is(err, service.ErrUsernameTaken) {
		log.WithField("username", username).Info("user exists, nothing to seed")
		return
	}
	if err != nil {
		log.WithError(err).Fatal("register")
	}

	tasks := service.NewTaskService(stores.Tasks, nil, log)
	now := time.Now().UTC()
	in := func(title string, status dom.Status, priority dom.Priority, dueInDays int) service.CreateInput {
		due := now.AddDate(0, 0, dueInDays)
		return service.CreateInput{Title: title, Status: &status, Priority: &priority, DueDate: &due}
	}
	for _, ci := range []service.CreateInput{
		in("Buy milk", dom.StatusTodo, dom.PriorityMedium, 1),
		in("Renew passport", dom.StatusTodo, dom.PriorityHigh, -3),
		in("Write quarterly report", dom.StatusInProgress, dom.PriorityHigh, 5),
		in("Book dentist", dom.StatusCompleted, dom.PriorityLow, -1),
		in("Clean garage", dom.StatusTodo, dom.PriorityLow, 14),
	} {
		if _, err := tasks.Create(ctx, user.ID, ci); err != nil {
			log.WithError(err).Fatal("create task")
		}
	}
	log.WithField("username", username).Info("seeded demo user")
}

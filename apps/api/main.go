package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/conversation"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/policy"
	"github.com/trezcool/darasa/core/principal"
	"github.com/trezcool/darasa/core/profile"
	"github.com/trezcool/darasa/core/questionnaire"
	"github.com/trezcool/darasa/core/wallet"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/document"
	inmemdoc "github.com/trezcool/darasa/storage/document/inmem"
	pgdoc "github.com/trezcool/darasa/storage/document/postgres"
)

func main() {
	std := log.New(os.Stdout, core.Conf.AppName+" ", log.LstdFlags|log.Lshortfile)

	var logger core.Logger
	if core.Conf.Debug || core.Conf.RollbarToken == "" {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, core.Conf)
	}

	// store: in-memory for dev/tests, postgres when a database is configured
	var store document.Store
	if core.Conf.DatabaseURL == "" {
		db, err := inmemdoc.Open()
		if err != nil {
			logger.Fatal("opening in-memory store", err)
		}
		store = db
		logger.Warn("no database configured; using the in-memory store")
	} else {
		db, err := pgdoc.Open(core.Conf.DatabaseURL)
		if err != nil {
			logger.Fatal("opening database", err)
		}
		defer db.Close()
		store = db
	}

	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	evaluator := policy.NewEvaluator(policy.NewStoreDirectory(store))
	ledger := wallet.NewEngine(store, logger)

	app := echoapi.NewServer(&echoapi.Options{
		Address:          core.Conf.Server.Addr,
		Logger:           logger,
		Resolver:         principal.NewResolver(),
		ProfileSvc:       profile.NewService(store, evaluator),
		CourseSvc:        course.NewService(store, evaluator, mailSvc, logger),
		AssignmentSvc:    assignment.NewService(store, evaluator),
		ConversationSvc:  conversation.NewService(store, evaluator),
		QuestionnaireSvc: questionnaire.NewService(store, evaluator),
		WalletSvc:        wallet.NewService(ledger, store, evaluator),
	})

	go app.Start()

	// block until a signal or a fatal store error asks us to stop
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("received signal, shutting down", sig.String())
	case <-app.Shutdown():
		logger.Error("fatal store error, shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		logger.Fatal("graceful shutdown failed", err)
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	echoapi "github.com/checkkid/checkkid/apps/api/echo"
	"github.com/checkkid/checkkid/core"
	"github.com/checkkid/checkkid/core/attendance"
	"github.com/checkkid/checkkid/core/child"
	emailsvc "github.com/checkkid/checkkid/services/email"
	guardsvc "github.com/checkkid/checkkid/services/guard"
	logsvc "github.com/checkkid/checkkid/services/logger"
	"github.com/checkkid/checkkid/storage/database"
	sqlxrepos "github.com/checkkid/checkkid/storage/database/sqlx"
)

func main() {
	// set up logger
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger = logsvc.NewRollbarLogger(std, core.Conf)
	if core.Conf.Debug {
		logger = logsvc.NewStdLogger(std)
	}
	logger.Enable(true)

	// set up DB
	db, err := database.Open()
	errAndDie(logger, err)
	defer db.Close()
	errAndDie(logger, database.Migrate(db))

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	var guard attendance.Guard
	if core.Conf.Redis.Addr != "" {
		guard = guardsvc.NewRedisGuard(core.Conf, core.Conf.CheckInDedupWindow)
	} else {
		guard = guardsvc.NewMemoryGuard(core.Conf.CheckInDedupWindow)
	}

	childRepo := sqlxrepos.NewChildRepository(db)
	childSvc := child.NewService(childRepo)
	attSvc := attendance.NewService(sqlxrepos.NewRecordRepository(db), childRepo, guard, mailSvc, logger)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Addr:          core.Conf.Server.Addr(),
			AttendanceSvc: attSvc,
			ChildSvc:      childSvc,
			Logger:        logger,
		},
	)

	go app.Start()
	logger.Info("server listening on " + core.Conf.Server.Addr())

	// block until an interrupt or an unrecoverable server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case <-app.ShutdownSignal():
	}

	logger.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Server.ShutdownTimeout)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		logger.Error("could not stop server gracefully", err)
	}
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}

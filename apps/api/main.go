package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	echoapi "github.com/kayembe/elimu/api/echo"
	"github.com/kayembe/elimu/core"
	"github.com/kayembe/elimu/core/banner"
	"github.com/kayembe/elimu/core/course"
	"github.com/kayembe/elimu/core/progress"
	"github.com/kayembe/elimu/core/user"
	emailsvc "github.com/kayembe/elimu/services/email"
	logsvc "github.com/kayembe/elimu/services/logger"
	"github.com/kayembe/elimu/storage/database"
	inmemdb "github.com/kayembe/elimu/storage/database/inmem"
	sqlxrepos "github.com/kayembe/elimu/storage/database/sqlx"
	"github.com/kayembe/elimu/storage/kv"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up repositories
	repos, cleanup, err := setUpRepos(conf)
	if err != nil {
		dbLogger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = cleanup(); err != nil {
			dbLogger.Error("failed to close database", err)
		}
	}()

	// set up the progress store
	store, err := setUpStore(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up progress store: %v", err), err)
	}
	defer func() {
		if err = store.Close(); err != nil {
			logger.Error("failed to close progress store", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}
	usrSvc := user.NewService(repos.user, mailSvc, conf)
	courseSvc := course.NewService(repos.course, repos.enrollment)
	progressSvc := progress.NewService(store)
	bannerSvc := banner.NewService(repos.banner)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:        conf,
			Logger:      logger,
			UserSvc:     usrSvc,
			CourseSvc:   courseSvc,
			ProgressSvc: progressSvc,
			BannerSvc:   bannerSvc,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

type repositories struct {
	user       user.Repository
	course     course.Repository
	enrollment course.EnrollmentRepository
	banner     banner.Repository
}

func setUpRepos(conf *core.Config) (repositories, func() error, error) {
	noop := func() error { return nil }

	switch conf.Database.Engine {
	case "memory":
		db := inmemdb.NewDB()
		return repositories{
			user:       inmemdb.NewUserRepository(db),
			course:     inmemdb.NewCourseRepository(db),
			enrollment: inmemdb.NewEnrollmentRepository(db),
			banner:     inmemdb.NewBannerRepository(db),
		}, noop, nil

	case "postgres":
		if err := database.CreateIfNotExist(conf); err != nil {
			return repositories{}, noop, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return repositories{}, noop, err
		}
		if err = database.EnsureSchema(db); err != nil {
			_ = db.Close()
			return repositories{}, noop, err
		}
		return repositories{
			user:       sqlxrepos.NewUserRepository(db),
			course:     sqlxrepos.NewCourseRepository(db),
			enrollment: sqlxrepos.NewEnrollmentRepository(db),
			banner:     sqlxrepos.NewBannerRepository(db),
		}, db.Close, nil

	default:
		return repositories{}, noop, fmt.Errorf("unknown database engine %q", conf.Database.Engine)
	}
}

func setUpStore(conf *core.Config) (core.KeyValueStore, error) {
	switch conf.Store.Engine {
	case "memory":
		return kv.NewInMemStore(), nil
	case "badger":
		return kv.NewBadgerStore(conf.Store.BadgerPath)
	case "redis":
		return kv.NewRedisStore(conf.Store), nil
	default:
		return nil, fmt.Errorf("unknown store engine %q", conf.Store.Engine)
	}
}

package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/soundsteps/apps/api/echo"
	"github.com/trezcool/soundsteps/core"
	"github.com/trezcool/soundsteps/core/reward"
	"github.com/trezcool/soundsteps/core/session"
	"github.com/trezcool/soundsteps/core/sms"
	"github.com/trezcool/soundsteps/core/voice"
	emailsvc "github.com/trezcool/soundsteps/services/email"
	logsvc "github.com/trezcool/soundsteps/services/logger"
	providersvc "github.com/trezcool/soundsteps/services/provider"
	"github.com/trezcool/soundsteps/storage/database"
	sqlxrepos "github.com/trezcool/soundsteps/storage/database/sqlx"
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

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	sessionRepo := sqlxrepos.NewSessionRepository(db)
	lessonRepo := sqlxrepos.NewLessonRepository(db)
	sessionSvc := session.NewService(sessionRepo)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	var provider core.Provider
	if conf.ProviderLive() {
		provider = providersvc.NewAfricasTalkingService(conf)
	} else {
		logger.Info("provider credentials not set; outbound actions are mocked")
		provider = providersvc.NewMockService(logger)
	}

	pipeline := reward.NewPipeline(conf, sessionRepo, provider, mailSvc, logger)
	voiceEngine := voice.NewEngine(conf, sessionSvc, lessonRepo, pipeline, logger)
	smsEngine := sms.NewEngine(conf, sessionSvc, lessonRepo, provider, pipeline, logger, sms.NewTimerDelayer())

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

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
			VoiceEngine: voiceEngine,
			SMSEngine:   smsEngine,
			SessionRepo: sessionRepo,
			Provider:    provider,
			Validate:    validate,
			Translator:  translator,
		},
	)

	go server.Start()

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

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

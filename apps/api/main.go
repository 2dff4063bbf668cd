package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/kelasi/backend/apps/api/echo"
	"github.com/kelasi/backend/core"
	"github.com/kelasi/backend/core/payment"
	"github.com/kelasi/backend/core/payment/gateway"
	"github.com/kelasi/backend/core/result"
	"github.com/kelasi/backend/core/school"
	"github.com/kelasi/backend/core/student"
	"github.com/kelasi/backend/core/user"
	emailsvc "github.com/kelasi/backend/services/email"
	logsvc "github.com/kelasi/backend/services/logger"
	mongodb "github.com/kelasi/backend/storage/database/mongo"
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
	db, err := mongodb.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = mongodb.Close(context.Background(), db); err != nil {
			logger.Error("failed to close database", err)
		}
	}()
	if err = mongodb.EnsureIndexes(context.Background(), db); err != nil {
		logger.Fatal(fmt.Sprintf("ensuring indexes: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	payment.InitValidators(validate, translator)
	gateway.InitValidators(validate, translator)
	result.InitValidators(validate, translator)

	usrRepo := mongodb.NewUserRepository(db)
	stdRepo := mongodb.NewStudentRepository(db)
	schoolRepo := mongodb.NewSchoolRepository(db)
	pmtRepo := mongodb.NewPaymentRepository(db)
	gwRepo := mongodb.NewGatewayConfigRepository(db)
	resRepo := mongodb.NewResultRepository(db)

	usrSvc := user.NewService(usrRepo, mailSvc, validate, conf)
	stdSvc := student.NewService(stdRepo)
	schoolSvc := school.NewService(schoolRepo)
	pmtSvc := payment.NewService(pmtRepo, stdRepo, schoolRepo, mailSvc, logger, conf)
	gwSvc := gateway.NewService(gwRepo, pmtSvc, stdRepo, gateway.NewClient(), logger)
	resSvc := result.NewService(resRepo, stdRepo, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
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
			Conf:       conf,
			Logger:     logger,
			UserSvc:    usrSvc,
			StudentSvc: stdSvc,
			PaymentSvc: pmtSvc,
			GatewaySvc: gwSvc,
			ResultSvc:  resSvc,
			SchoolSvc:  schoolSvc,
			Validate:   validate,
			Translator: translator,
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

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

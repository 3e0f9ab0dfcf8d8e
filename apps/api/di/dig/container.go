package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/campus/apps/api/echo"
	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/academic"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/marks"
	"github.com/trezcool/campus/core/material"
	"github.com/trezcool/campus/core/news"
	"github.com/trezcool/campus/core/user"
	emailsvc "github.com/trezcool/campus/services/email"
	logsvc "github.com/trezcool/campus/services/logger"
	"github.com/trezcool/campus/storage/database"
	inmemdb "github.com/trezcool/campus/storage/database/inmem"
	sqlxrepos "github.com/trezcool/campus/storage/database/sqlx"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Repositories are backed by postgres or by memory, depending on conf.Storage.
	Repositories struct {
		dig.Out
		UserRepo       user.Repository
		AcademicRepo   academic.Repository
		MarksRepo      marks.Repository
		AttendanceRepo attendance.Repository
		NewsRepo       news.Repository
		MaterialRepo   material.Repository
	}

	ServerParams struct {
		dig.In
		Conf          *core.Config
		Logger        core.Logger
		Validate      *validator.Validate
		Translator    ut.Translator
		UserSvc       user.Service
		AcademicSvc   academic.Service
		MarksSvc      marks.Service
		AttendanceSvc attendance.Service
		NewsSvc       news.Service
		MaterialSvc   material.Service
	}
)

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(os.Stdout, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(os.Stderr, conf)
}

// newDB returns nil when the memory storage engine is used.
func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	if conf.Storage == core.StorageMemory {
		return nil
	}

	setUp := func() (*sqlx.DB, error) {
		ctx := context.Background()
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}

		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB, "up"); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newRepositories(conf *core.Config, db *sqlx.DB) Repositories {
	if conf.Storage == core.StorageMemory {
		mem := inmemdb.Open()
		return Repositories{
			UserRepo:       inmemdb.NewUserRepository(mem),
			AcademicRepo:   inmemdb.NewAcademicRepository(mem),
			MarksRepo:      inmemdb.NewMarksRepository(mem),
			AttendanceRepo: inmemdb.NewAttendanceRepository(mem),
			NewsRepo:       inmemdb.NewNewsRepository(mem),
			MaterialRepo:   inmemdb.NewMaterialRepository(mem),
		}
	}
	return Repositories{
		UserRepo:       sqlxrepos.NewUserRepository(db),
		AcademicRepo:   sqlxrepos.NewAcademicRepository(db),
		MarksRepo:      sqlxrepos.NewMarksRepository(db),
		AttendanceRepo: sqlxrepos.NewAttendanceRepository(db),
		NewsRepo:       sqlxrepos.NewNewsRepository(db),
		MaterialRepo:   sqlxrepos.NewMaterialRepository(db),
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(os.Stdout, logger, conf)
	}
	return emailsvc.NewSendgridService(logger, conf)
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		UserSvc:       p.UserSvc,
		AcademicSvc:   p.AcademicSvc,
		MarksSvc:      p.MarksSvc,
		AttendanceSvc: p.AttendanceSvc,
		NewsSvc:       p.NewsSvc,
		MaterialSvc:   p.MaterialSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(user.NewService))
	must(c.Provide(academic.NewService))
	must(c.Provide(marks.NewService))
	must(c.Provide(attendance.NewService))
	must(c.Provide(news.NewService))
	must(c.Provide(material.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}

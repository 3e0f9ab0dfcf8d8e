// Package testutil wires the application against the in-memory storage for tests.
package testutil

import (
	"context"
	"io"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/academic"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/marks"
	"github.com/trezcool/campus/core/material"
	"github.com/trezcool/campus/core/news"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/services/email"
	"github.com/trezcool/campus/services/logger"
	"github.com/trezcool/campus/storage/database/inmem"
)

// App holds every repository and service, backed by a fresh in-memory DB.
type App struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Outbox     *emailsvc.Outbox

	UsrRepo        user.Repository
	AcademicRepo   academic.Repository
	MarksRepo      marks.Repository
	AttendanceRepo attendance.Repository
	NewsRepo       news.Repository
	MaterialRepo   material.Repository

	UserSvc       user.Service
	AcademicSvc   academic.Service
	MarksSvc      marks.Service
	AttendanceSvc attendance.Service
	NewsSvc       news.Service
	MaterialSvc   material.Service
}

func Config() *core.Config {
	conf := core.NewConfig()
	conf.TestMode = true
	conf.Storage = core.StorageMemory
	conf.Server.DisableReqLogs = true
	return conf
}

func Logger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(io.Discard, conf)
}

// NewValidator returns a validator with every custom validator registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	marks.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)
	return validate, translator
}

func NewApp() *App {
	conf := Config()
	logger := Logger(conf)
	validate, translator := NewValidator()
	mailSvc, outbox := emailsvc.NewConsoleServiceMock(logger, conf)

	db := inmemdb.Open()
	app := &App{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		Outbox:         outbox,
		UsrRepo:        inmemdb.NewUserRepository(db),
		AcademicRepo:   inmemdb.NewAcademicRepository(db),
		MarksRepo:      inmemdb.NewMarksRepository(db),
		AttendanceRepo: inmemdb.NewAttendanceRepository(db),
		NewsRepo:       inmemdb.NewNewsRepository(db),
		MaterialRepo:   inmemdb.NewMaterialRepository(db),
	}
	app.UserSvc = user.NewService(app.UsrRepo, mailSvc, conf)
	app.AcademicSvc = academic.NewService(app.AcademicRepo, app.UserSvc)
	app.MarksSvc = marks.NewService(app.MarksRepo, app.AcademicSvc, app.UserSvc)
	app.AttendanceSvc = attendance.NewService(app.AttendanceRepo, app.UserSvc, app.AcademicSvc)
	app.NewsSvc = news.NewService(app.NewsRepo)
	app.MaterialSvc = material.NewService(app.MaterialRepo)
	return app
}

// CreateUser stores a User straight through the repository, bypassing registration.
func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	role user.Role,
	status user.Status,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		Status:    status,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateStudent stores an active student of the given branch and year.
func CreateStudent(t *testing.T, repo user.Repository, name, email, branch string, year int) user.User {
	tstamp := time.Now().UTC()
	usr, err := repo.CreateUser(context.Background(), user.User{
		Name:      name,
		Email:     email,
		Role:      user.RoleStudent,
		Status:    user.StatusActive,
		Branch:    branch,
		Year:      year,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return usr
}

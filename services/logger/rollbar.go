package logsvc

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

// RollbarLogger writes logfmt lines and reports every entry to Rollbar.
type RollbarLogger struct {
	kit log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(w io.Writer, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(!conf.Debug && conf.RollbarToken != "")

	kit := log.NewLogfmtLogger(log.NewSyncWriter(w))
	kit = log.With(kit, "ts", log.DefaultTimestampUTC, "app", conf.AppName)
	allowed := level.AllowInfo()
	if conf.Debug {
		allowed = level.AllowDebug()
	}
	return &RollbarLogger{kit: level.NewFilter(kit, allowed)}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// prepare splits args into rollbar args and logfmt key/values.
// expected args: error, map[string]interface{}, user.User
// The User travels with the item as a person context; other args are only logged.
func (l *RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, []interface{}) {
	var usrSet bool
	rbArgs := make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)
	keyvals := []interface{}{"msg", msg}
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			// only set one User
			if !usrSet {
				person := &rollbar.Person{Id: a.ID, Username: a.Name, Email: a.Email}
				rbArgs = append(rbArgs, rollbar.NewPersonContext(context.Background(), person))
				keyvals = append(keyvals, "user", a.ID)
				usrSet = true
			}
		case error:
			keyvals = append(keyvals, "err", a.Error())
			rbArgs = append(rbArgs, a)
		case map[string]interface{}:
			for k, v := range a {
				keyvals = append(keyvals, k, v)
			}
			rbArgs = append(rbArgs, a)
		default:
			keyvals = append(keyvals, "extra", fmt.Sprintf("%+v", a))
		}
	}
	return rbArgs, keyvals
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	rbArgs, keyvals := l.prepare(msg, args)
	rollbar.Debug(rbArgs...)
	_ = level.Debug(l.kit).Log(keyvals...)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	rbArgs, keyvals := l.prepare(msg, args)
	rollbar.Info(rbArgs...)
	_ = level.Info(l.kit).Log(keyvals...)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	rbArgs, keyvals := l.prepare(msg, args)
	rollbar.Warning(rbArgs...)
	_ = level.Warn(l.kit).Log(keyvals...)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	rbArgs, keyvals := l.prepare(msg, args)
	rollbar.Error(rbArgs...)
	_ = level.Error(l.kit).Log(keyvals...)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	rbArgs, keyvals := l.prepare(msg, args)
	rollbar.Critical(rbArgs...)
	_ = level.Error(l.kit).Log(append(keyvals, "fatal", true)...)
	rollbar.Wait()
	os.Exit(1)
}

package logsvc

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rollbar/rollbar-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

func newTestLogger(debug bool) (*RollbarLogger, *bytes.Buffer) {
	conf := core.NewConfig()
	conf.Debug = debug
	conf.RollbarToken = ""
	buf := new(bytes.Buffer)
	return NewRollbarLogger(buf, conf), buf
}

func TestRollbarLogger_levels(t *testing.T) {
	logger, buf := newTestLogger(false)

	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.Info("server started")
	assert.Contains(t, buf.String(), "level=info")
	assert.Contains(t, buf.String(), `msg="server started"`)

	buf.Reset()
	logger.Warn("slow query")
	assert.Contains(t, buf.String(), "level=warn")

	debugLogger, debugBuf := newTestLogger(true)
	debugLogger.Debug("visible")
	assert.Contains(t, debugBuf.String(), "level=debug")
}

func TestRollbarLogger_args(t *testing.T) {
	logger, buf := newTestLogger(false)

	usr := user.User{ID: "u-1", Name: "Alice", Email: "alice@test.cd"}
	other := user.User{ID: "u-2"}
	logger.Error("boom", errors.New("db down"), map[string]interface{}{"path": "/api"}, usr, other, 42)

	line := buf.String()
	assert.Contains(t, line, "level=error")
	assert.Contains(t, line, `err="db down"`)
	assert.Contains(t, line, "path=/api")
	assert.Contains(t, line, "user=u-1")
	assert.NotContains(t, line, "u-2")
	assert.Contains(t, line, "extra=42")
}

func personOf(rbArgs []interface{}) *rollbar.Person {
	for _, arg := range rbArgs {
		if ctx, ok := arg.(context.Context); ok {
			if person, ok := rollbar.PersonFromContext(ctx); ok {
				return person
			}
		}
	}
	return nil
}

func TestRollbarLogger_prepare_person(t *testing.T) {
	logger, _ := newTestLogger(false)

	t.Run("per item", func(t *testing.T) {
		rbArgs, _ := logger.prepare("boom", []interface{}{user.User{ID: "u-1", Name: "Alice", Email: "alice@test.cd"}, user.User{ID: "u-2"}})
		person := personOf(rbArgs)
		require.NotNil(t, person)
		assert.Equal(t, rollbar.Person{Id: "u-1", Username: "Alice", Email: "alice@test.cd"}, *person)

		rbArgs, _ = logger.prepare("anonymous", nil)
		assert.Nil(t, personOf(rbArgs))
	})

	t.Run("non rollbar args are not forwarded", func(t *testing.T) {
		rbArgs, keyvals := logger.prepare("boom", []interface{}{42, errors.New("db down")})
		assert.Len(t, rbArgs, 2)
		assert.Contains(t, keyvals, "extra")
	})

	t.Run("concurrent users do not leak", func(t *testing.T) {
		var wg sync.WaitGroup
		for _, id := range []string{"u-1", "u-2", "u-3", "u-4"} {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					rbArgs, _ := logger.prepare("boom", []interface{}{user.User{ID: id}})
					person := personOf(rbArgs)
					if assert.NotNil(t, person) {
						assert.Equal(t, id, person.Id)
					}
				}
			}(id)
		}
		wg.Wait()
	})
}

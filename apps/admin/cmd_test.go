package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
	inmemdb "github.com/trezcool/campus/storage/database/inmem"
	"github.com/trezcool/campus/tests"
)

const newPwd = "N3w-Passw0rd!"

func setup(t *testing.T) *commandLine {
	conf := testutil.Config()
	return &commandLine{
		usrRepo: inmemdb.NewUserRepository(inmemdb.Open()),
		logger:  testutil.Logger(conf),
		out:     new(bytes.Buffer),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	pwd        string
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_root(t *testing.T) {
	cli := setup(t)

	assert.Equal(t, errHelp, cli.run([]string{"admin"}))
	assert.Error(t, cli.run([]string{"admin", "lol"}))
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var ran []string
	origRun := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = origRun })
	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		ran = append(ran, command)
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "course", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			checkErr(t, tt, err)
		})
	}
	assert.Len(t, ran, 11)
}

func Test_commandLine_createAdmin(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	pending := testutil.CreateUser(t, cli.usrRepo, "Pending Teacher", "pending@test.cd", "Sup3r-Secret!", user.RoleTeacher, user.StatusPending)
	testutil.CreateUser(t, cli.usrRepo, "Rejected", "rejected@test.cd", "Sup3r-Secret!", user.RoleStudent, user.StatusRejected)

	tests := []cliTest{
		{name: "no email", args: []string{"createadmin"}, pwd: newPwd, wantErr: errHelp},
		{name: "no password", args: []string{"createadmin", "--email", "boss@test.cd"}, wantErr: errHelp},
		{name: "weak password", args: []string{"createadmin", "--email", "boss@test.cd"}, pwd: "password"},
		{name: "rejected account", args: []string{"createadmin", "--email", "rejected@test.cd"}, pwd: newPwd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(tt.pwd)
			err := cli.run(append([]string{"admin"}, tt.args...))
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
	_, err := cli.usrRepo.GetUserByEmail(ctx, "boss@test.cd")
	assert.Equal(t, user.ErrNotFound, err)

	t.Run("create", func(t *testing.T) {
		mockPassword(newPwd)
		require.NoError(t, cli.run([]string{"admin", "createadmin", "--email", " BOSS@test.cd ", "--name", "The Boss"}))

		usr, err := cli.usrRepo.GetUserByEmail(ctx, "boss@test.cd")
		require.NoError(t, err)
		assert.Equal(t, "boss@test.cd", usr.Email)
		assert.Equal(t, "The Boss", usr.Name)
		assert.Equal(t, user.RoleAdmin, usr.Role)
		assert.Equal(t, user.StatusActive, usr.Status)
		assert.NoError(t, usr.CheckPassword(newPwd))
	})

	t.Run("promote pending", func(t *testing.T) {
		mockPassword(newPwd)
		require.NoError(t, cli.run([]string{"admin", "createadmin", "--email", pending.Email}))

		usr, err := cli.usrRepo.GetUserByID(ctx, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, user.RoleAdmin, usr.Role)
		assert.Equal(t, user.StatusActive, usr.Status)
		assert.Equal(t, pending.Name, usr.Name)
		assert.NoError(t, usr.CheckPassword(newPwd))
	})

	t.Run("rejected stays rejected", func(t *testing.T) {
		usr, err := cli.usrRepo.GetUserByEmail(ctx, "rejected@test.cd")
		require.NoError(t, err)
		assert.Equal(t, user.StatusRejected, usr.Status)
		assert.Equal(t, user.RoleStudent, usr.Role)
		assert.True(t, core.IsConflict(cli.createAdmin("", usr.Email, newPwd)))
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, cli.usrRepo, "User", "awe@test.cd", "Sup3r-Secret!", user.RoleStudent, user.StatusActive)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "--email", "lol@test.cd"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "--email", "lol@test.cd"}, pwd: newPwd, wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "--email", usr.Email}, pwd: newPwd},
		{name: "reset with other case", args: []string{"resetpassword", "--email", "AWE@test.cd"}, pwd: "An0ther-Passw0rd?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(tt.pwd)
			err := cli.run(append([]string{"admin"}, tt.args...))
			checkErr(t, tt, err)
			if err != nil {
				return
			}
			refreshed, err := cli.usrRepo.GetUserByID(context.Background(), usr.ID)
			require.NoError(t, err)
			assert.NoError(t, refreshed.CheckPassword(tt.pwd))
			assert.Equal(t, user.StatusActive, refreshed.Status)
		})
	}

	t.Run("weak password", func(t *testing.T) {
		mockPassword("12345678")
		err := cli.run([]string{"admin", "resetpassword", "--email", usr.Email})
		var verr *core.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

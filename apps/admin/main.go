package main

import (
	"context"
	"fmt"
	"os"

	"github.com/trezcool/campus/core"
	logsvc "github.com/trezcool/campus/services/logger"
	"github.com/trezcool/campus/storage/database"
	sqlxrepos "github.com/trezcool/campus/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(os.Stderr, conf)
	if conf.Storage == core.StorageMemory {
		logger.Fatal("admin commands require the postgres storage engine")
	}

	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	cli := commandLine{
		db:      db.DB,
		usrRepo: sqlxrepos.NewUserRepository(db),
		logger:  logger,
		out:     os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}

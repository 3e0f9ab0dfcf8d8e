package main

import (
	"github.com/trezcool/campus/storage/database"
)

var gooseRunFunc = database.Migrate // mockable

func (cli *commandLine) migrate(args []string) error {
	if err := gooseRunFunc(cli.db, args[0], args[1:]...); err != nil {
		return err
	}
	cli.logger.Info("migrate " + args[0] + ": done")
	return nil
}

package main

import (
	"fmt"

	"github.com/pressly/goose"

	"github.com/trezcool/learnhub/storage/database"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) createDB() error {
	if err := database.CreateIfNotExist(cli.conf); err != nil {
		return err
	}
	fmt.Printf("database %q is ready\n", cli.conf.Database.Name)
	return nil
}

func (cli *commandLine) migrate(args []string) error {
	command := "up"
	if len(args) > 0 {
		command = args[0]
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(command, cli.db, database.MigrationsDir(cli.conf), arguments...)
}

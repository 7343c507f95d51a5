package main

import (
	"github.com/trezcool/goose"

	appfs "github.com/trezcool/darasa/fs"
)

var gooseRunFunc = goose.RunFS // mockable

// migrate runs a goose command against the embedded migrations.
// args[0] is the goose command, the rest its arguments.
func (cli *commandLine) migrate(args []string) error {
	command, arguments := args[0], args[1:]
	return gooseRunFunc(command, cli.db, appfs.FS, "migrations", arguments...)
}

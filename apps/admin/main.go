package main

import (
	"log"
	"os"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/storage/database"
	sqlxrepos "github.com/trezcool/darasa/storage/database/sqlx"
)

var logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

func main() {
	db, err := database.Open(core.Conf)
	if err != nil {
		logger.Fatal(err)
	}
	defer db.Close()
	if err = db.Ping(); err != nil {
		logger.Fatal(err)
	}

	cli := commandLine{
		db:      db,
		usrRepo: sqlxrepos.NewUserRepository(db),
		crsRepo: sqlxrepos.NewCourseRepository(db),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		db.Close()
		os.Exit(1)
	}
}

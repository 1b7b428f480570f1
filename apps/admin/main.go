package main

import (
	"fmt"
	"log"
	"os"

	"github.com/kayembe/elimu/core"
	"github.com/kayembe/elimu/core/user"
	"github.com/kayembe/elimu/storage/database"
	inmemdb "github.com/kayembe/elimu/storage/database/inmem"
	sqlxrepos "github.com/kayembe/elimu/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	usrRepo, cleanup, err := setUpUserRepo(conf)
	errAndDie(err)
	defer func() {
		if err := cleanup(); err != nil {
			logger.Printf("failed to close database: %v", err)
		}
	}()

	// start CLI
	cli := commandLine{usrRepo: usrRepo}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func setUpUserRepo(conf *core.Config) (user.Repository, func() error, error) {
	noop := func() error { return nil }

	switch conf.Database.Engine {
	case "memory":
		return inmemdb.NewUserRepository(inmemdb.NewDB()), noop, nil
	case "postgres":
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, noop, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, noop, err
		}
		if err = database.EnsureSchema(db); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return sqlxrepos.NewUserRepository(db), db.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown database engine %q", conf.Database.Engine)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}

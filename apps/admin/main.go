package main

import (
	"context"
	"log"
	"os"

	"github.com/kelasi/backend/core"
	mongodb "github.com/kelasi/backend/storage/database/mongo"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := mongodb.Open(conf)
	errAndDie(err)
	defer mongodb.Close(context.Background(), db)

	// start CLI
	cli := commandLine{
		usrRepo: mongodb.NewUserRepository(db),
		gwRepo:  mongodb.NewGatewayConfigRepository(db),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}

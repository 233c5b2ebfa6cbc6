package main

import (
	"github.com/moontrade/hgncd/app"
	"github.com/moontrade/hgncd/logger"
)

var (
	version = "0.0.0"
	gitsha  = ""
)

func main() {
	var conf app.Config
	conf.Name = "hgncd"
	conf.Version = version
	conf.GitSHA = gitsha
	if err := app.Main(conf); err != nil {
		logger.Fatal(err, "exiting")
	}
}

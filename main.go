package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/aninishioka/craft-app/crud"
	"github.com/aninishioka/craft-app/http"
)

// main is the app's entry point.
func main() {
	// Check if the flag "-prod" has been provided. It means that we're
	// running in production.
	productionBool := flag.Bool("prod", false, "Provide this flag in production to ensure that a .config.json file is provided before the application starts.")
	flag.Parse()

	// Load configuration from a .config.json file if present, otherwise
	// use the default dev setup.
	config := LoadConfig(*productionBool)

	// Structured JSON logging.
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	if config.IsProd() {
		logrus.SetLevel(logrus.WarnLevel)
	}

	// Open a database connection, execute migrations, seed the needle
	// and hook catalogs.
	db := NewDB(config.Database.ConnectionInfo())
	err := Open(db, config.IsProd())
	must(err)
	defer Close(db)
	err = AutoMigrate(db)
	must(err)

	// Start the crud services.
	services, err := crud.NewServices(
		db.Gorm,
		crud.WithUser(config.Pepper),
		crud.WithFollow(),
		crud.WithProject(),
		crud.WithTimeLog(),
		crud.WithConversation(),
	)
	must(err)

	// Set up a webserver.
	server, err := http.NewServer(
		config.IsProd(),
		[]byte(config.SessionKey),
		[]byte(config.CSRFKey),
		services,
	)
	must(err)

	// Serve the app.
	server.Run(config.Port)
}

// must is a little helper for shortening the panic instruction.
func must(err error) {
	if err != nil {
		panic(err)
	}
}

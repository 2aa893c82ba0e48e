package main

import (
	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"benchlist/config"
	"benchlist/middleware"
	"benchlist/routes"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	if err := config.LoadConfig(); err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	if config.AppConfig.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		})
		if err != nil {
			logrus.WithError(err).Fatal("Failed to initialize Sentry")
		}
	}

	if err := config.ConnectDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	app := fiber.New()

	app.Use(middleware.CORS())

	routes.SetupRoutes(app, config.DB)

	logrus.WithField("port", config.AppConfig.ServerPort).Info("Server starting")
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logrus.WithError(err).Fatal("Failed to start server")
	}
}

// Точка входа HTTP-сервера ставок.
package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"

	"jeanbet.ru/betting-webapp/internal/app"
	"jeanbet.ru/betting-webapp/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Ошибка загрузки конфигурации")
	}

	setupLogger(cfg)

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		log.WithError(err).Fatal("Ошибка инициализации приложения")
	}

	if err := a.Run(); err != nil {
		log.WithError(err).Fatal("Сервис завершился с ошибкой")
	}
}

func setupLogger(cfg *config.Config) {
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(cfg.AppLogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.AppEnv == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// config — конфигурация auth-service и api-gateway и общая логика
// загрузки из файла/переменных окружения с предсказуемым приоритетом:
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл по умолчанию в рабочей директории;
//  4. только переменные окружения (cleanenv).
//
// Поверх YAML всегда накладываются переменные окружения.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// load заполняет cfg по приоритету источников; localFile — файл
// из рабочей директории, который читается при отсутствии явного пути.
func load(path, localFile string, cfg any) error {
	readFile := func(p string) error {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("config file does not exist: %s", p)
			}
			return fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, cfg); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(cfg); err != nil {
			return fmt.Errorf("failed to overlay env: %w", err)
		}

		return nil
	}

	// 1) --config
	if path != "" {
		return readFile(path)
	}

	// 2) CONFIG_PATH
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return readFile(envPath)
	}

	// 3) файл по умолчанию.
	if _, err := os.Stat(localFile); err == nil {
		return readFile(localFile)
	}

	// 4) только ENV
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("config not found: provide --config, CONFIG_PATH, %s or env vars: %w", localFile, err)
	}

	return nil
}

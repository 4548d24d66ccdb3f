package main

import (
	"github.com/metalagman/contentgen/internal/config"
	"github.com/spf13/viper"
)

func loadConfig(path string, required bool) (config.Config, error) {
	if path == "" {
		path = viper.GetString("config")
	}
	return config.Load(viper.GetViper(), path, required)
}

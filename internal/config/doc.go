// Package config provides configuration structures and utilities for
// plantdoc: CLI defaults, validation, and the optional .plantdoc.yaml file
// with backend, language, demo catalog, severity and notification settings.
package config

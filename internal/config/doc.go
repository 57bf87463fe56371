// Package config loads console configuration.
//
// Values are layered: built-in defaults, then a YAML file, then SCPICON_*
// environment variables, then validation.
package config

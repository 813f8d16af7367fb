// Package config provides configuration loading, validation, and defaults
// for the Skyway edge gateway.
//
// Configuration is loaded once at startup from a YAML file and treated as an
// immutable snapshot for the life of the process. Environment variables of
// the form SKYWAY_SECTION_FIELD override file values. A file watcher is
// available to detect edits made while the gateway is running; changes take
// effect on restart.
package config

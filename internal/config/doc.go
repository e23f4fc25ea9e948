// SPDX-License-Identifier: MPL-2.0

// Package config handles crosscheck configuration using Viper with CUE as the file format.
//
// Configuration is looked up, in order, from an explicit --config file,
// $XDG_CONFIG_HOME/crosscheck/config.cue (platform equivalent on macOS and
// Windows) and ./crosscheck.cue in the project directory. Every file is
// validated against the embedded config_schema.cue (#Config) before it is
// merged over the defaults. CROSSCHECK_* environment variables override
// file values (CROSSCHECK_REGRESSION_JOBS=4 sets regression.jobs).
package config

// Package config provides configuration loading, merging, and validation
// facilities for the password store library.
//
// Configuration is assembled from multiple sources in the following priority
// order (later sources only fill fields earlier sources left at their zero
// value):
//  1. Environment variables (PASSWORD_STORE_*)
//  2. Built-in defaults
//
// The main entry point is [Load]. It re-reads the environment on every call,
// so changes to PASSWORD_STORE_DIR and friends take effect immediately
// without any process-wide caching.
package config

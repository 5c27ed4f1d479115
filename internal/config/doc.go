// Package config provides 12-factor configuration for the kernel: where
// to discover apps, where to persist state (and an optional passphrase for
// encrypting it), and the logger's verbosity. It also carries a bus RPC
// timeout, a store sweep interval, and a watch flag; the kernel reads none
// of these three.
//
// Configuration loads from environment variables via envconfig; LoadFile
// additionally accepts a TOML file for callers who prefer a config file
// to env vars.
package config

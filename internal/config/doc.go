// Package config loads, normalizes, and validates safora configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SAFORA_GATEWAY_TOKEN. The Config type centralizes every knob the host daemon
// and CLI need so state directories, the SMS gateway, and the presence notice
// are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

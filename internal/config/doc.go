// Package config loads the YAML configuration this module's lifecycle
// orchestrator is started with: the gateway connection section, general
// bus parameters, the per-device-kind group address list, KNX/IP Secure
// credentials, and logging. Values are read from a file, then overridden
// by a small set of XKNX_* environment variables, then validated.
//
// This package does not implement the full `!include`/`!env_var` YAML
// resolution machinery of the XKNX config loader it is modelled on —
// that remains a concern of the caller's config pipeline. It only
// defines the shape that pipeline's output must have.
package config

// Package config defines the format-agnostic model of a pipeline definition
// and the Loader interface implemented by each file format.
//
// The `config.Model` is the single source of truth the app uses to build a
// pipeline. Concrete loaders, such as for HCL and YAML, live in separate
// packages and only translate their syntax into this model.
package config

// Package objects contains the domain objects shared by the stores, the generator and the CLI.
// JSON names follow the persisted settings record, which uses camel case.
package objects

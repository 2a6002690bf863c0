// Package cmd is the transport-agnostic command core. A command has a name,
// a description and Run; adapters decide how it is registered and what
// context it receives.
package cmd

import "context"

// Invocation carries the arguments and the adapter's context. The Discord
// adapter puts its interaction context in Data; the CLI puts its flags.
type Invocation struct {
	Args []string
	Data any
}

// Command is identity plus execution.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}

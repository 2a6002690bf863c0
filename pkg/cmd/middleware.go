package cmd

// Middleware wraps a command with cross-cutting behaviour such as permission
// checks or history logging.
type Middleware func(Command) Command

// Apply wraps c with mws in order, so the last middleware runs first.
func Apply(c Command, mws ...Middleware) Command {
	for _, mw := range mws {
		c = mw(c)
	}
	return c
}

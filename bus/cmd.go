package bus

// Cmd is a named, argument-bearing command dispatched through the bus
// (§6): "{ name: String, args: Map<DataKey, Data> }".
type Cmd struct {
	Name string
	Args Params
}

// NewCmd builds a Cmd from positional Data values, keyed "0", "1", ...
func NewCmd(name string, args ...Data) Cmd {
	p := make(Params, len(args))
	for i, a := range args {
		p[Pos(i)] = a
	}
	return Cmd{Name: name, Args: p}
}

// WithNamed returns a copy of c with a named argument set.
func (c Cmd) WithNamed(key string, v Data) Cmd {
	args := make(Params, len(c.Args)+1)
	for k, v := range c.Args {
		args[k] = v
	}
	args[key] = v
	return Cmd{Name: c.Name, Args: args}
}

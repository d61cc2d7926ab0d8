package main

import (
	"fmt"

	"github.com/fwojciec/bggcrawl"
)

// Run executes the resolve command.
func (c *ResolveCmd) Run(deps *Dependencies) error {
	for _, raw := range c.URLs {
		fmt.Fprintln(deps.Stdout, raw)
		ids := bggcrawl.ResolveURL(raw)
		if len(ids) == 0 {
			fmt.Fprintln(deps.Stdout, "  (no identifiers)")
			continue
		}
		for _, id := range ids {
			fmt.Fprintf(deps.Stdout, "  %-10s %s\n", id.Namespace, id.Value)
		}
	}
	return nil
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/bggcrawl"
)

// Run executes the game command.
func (c *GameCmd) Run(deps *Dependencies) error {
	game, err := deps.Games.FindGameByID(deps.Ctx, bggcrawl.EntityID(c.ID))
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", bggcrawl.ErrorMessage(err))
		return err
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(game)
}

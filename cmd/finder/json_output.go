package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// emitJSON writes v to stdout as indented JSON. Nil slices render as [] so
// scripts can always iterate the result.
func emitJSON[T any](cmd *cobra.Command, v []T) error {
	if v == nil {
		v = []T{}
	}
	return encodeJSON(cmd, v)
}

func encodeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

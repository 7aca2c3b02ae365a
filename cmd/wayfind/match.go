package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wayfind-dev/wayfind/pkg/pathspec"
)

func matchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <template> <path>...",
		Short: "Test paths against a route template",
		Long: `Compile a route template and test one or more paths against it.

Templates use literal segments, :name parameters, and a trailing *
catch-all:

  wayfind match /users/:id /users/42 /users/42/posts
  wayfind match "/files/*" /files/a/b/c`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			template := args[0]

			cache := pathspec.NewCache(nil)
			matcher, err := cache.Get(template)
			if err != nil {
				return err
			}

			for _, path := range args[1:] {
				params, ok := matcher.Exec(path)
				if !ok {
					fmt.Printf("%-30s no match\n", path)
					continue
				}
				if len(params) == 0 {
					fmt.Printf("%-30s match\n", path)
					continue
				}
				keys := make([]string, 0, len(params))
				for k := range params {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				fmt.Printf("%-30s match", path)
				for _, k := range keys {
					fmt.Printf("  %s=%s", k, params[k])
				}
				fmt.Println()
			}
			return nil
		},
	}
	return cmd
}

func canonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "canon <path>...",
		Short: "Canonicalize navigation paths",
		Long: `Canonicalize one or more navigation paths: collapse duplicate
slashes, resolve . and .., drop trailing slashes, and reject unsafe
input (backslashes, NUL bytes, root escapes).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, input := range args {
				path, query, changed, err := pathspec.Canonicalize(input)
				if err != nil {
					return err
				}
				out := path
				if query != "" {
					out += "?" + query
				}
				if changed {
					fmt.Printf("%-30s -> %s\n", input, out)
				} else {
					fmt.Printf("%-30s canonical\n", input)
				}
			}
			return nil
		},
	}
}

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wayfind-dev/wayfind/internal/errors"
)

func codesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "codes",
		Short: "List the engine's error codes",
		Long:  `List every structured error code the engine can produce, with its category and message.`,
		Run: func(cmd *cobra.Command, args []string) {
			codes := errors.GetAllCodes()
			sort.Strings(codes)
			for _, code := range codes {
				tmpl, ok := errors.GetTemplate(code)
				if !ok {
					continue
				}
				fmt.Printf("%s  %-12s %s\n", code, tmpl.Category, tmpl.Message)
				if tmpl.Suggestion != "" {
					fmt.Printf("      %s\n", tmpl.Suggestion)
				}
			}
		},
	}
}

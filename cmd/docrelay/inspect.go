package main

import (
	"fmt"

	"github.com/klauspost/compress/zip"
	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/docrelay/pkg/archive"
)

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "List the entries of an archive",
		ArgsUsage: "<zip>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("inspect expects exactly one archive", 2)
			}
			path := c.Args().First()

			names, err := archive.Entries(path)
			if err != nil {
				return cli.Exit(err, 1)
			}
			for _, name := range names {
				method, err := archive.Method(path, name)
				if err != nil {
					return cli.Exit(err, 1)
				}
				fmt.Fprintf(c.App.Writer, "%s\t%s\n", name, methodName(method))
			}
			return nil
		},
	}
}

func methodName(m uint16) string {
	switch m {
	case zip.Store:
		return "store"
	case zip.Deflate:
		return "deflate"
	default:
		return fmt.Sprintf("method(%d)", m)
	}
}

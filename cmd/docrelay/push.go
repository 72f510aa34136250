package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/docrelay/pkg/relay"
)

func pushCommand() *cli.Command {
	return &cli.Command{
		Name:      "push",
		Usage:     "Compress a local file and upload it once",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "name",
				Usage: "Blob name to relay the file as (defaults to the file path)",
			},
		},
		Action: push,
	}
}

func push(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("push expects exactly one file", 2)
	}
	path := c.Args().First()
	log := newLogger(c)

	f, err := os.Open(path)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return cli.Exit(err, 1)
	}
	if st.IsDir() {
		return cli.Exit(fmt.Sprintf("%s is a directory", path), 1)
	}

	name := c.String("name")
	if name == "" {
		name = filepath.ToSlash(path)
	}

	res := relay.NewService(relay.LoadConfig, nil, relay.WithLogger(log)).
		Run(c.Context, relay.Event{Name: name, Body: f, Size: st.Size()})

	if !res.OK() {
		err := res.Err
		if err == nil {
			err = errors.New(string(res.Outcome))
		}
		return cli.Exit(fmt.Sprintf("%s: %s: %v", res.Outcome, name, err), 1)
	}

	fmt.Fprintf(c.App.Writer, "%s -> %s (%d bytes, status %d)\n", name, res.ArchiveName, res.ArchiveSize, res.StatusCode)
	return nil
}

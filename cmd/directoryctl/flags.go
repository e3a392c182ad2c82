package main

import "github.com/urfave/cli"

const (
	flagFixture  = "fixture"
	flagsFixture = "fixture, f"
	flagMatch    = "match"
	flagsMatch   = "match, m"
	flagMigrate  = "migrate"
	flagOutput   = "output"
	flagsOutput  = "output, o"
	flagPageSize = "page-size"
	flagStrict   = "strict"
	flagTimeout  = "timeout"
	flagsTimeout = "timeout, t"
)

var (
	cliFlagOutput = cli.StringFlag{
		Name:  flagsOutput,
		Usage: "Return output in another format. Supported formats: table, json",
		Value: "table",
	}
	cliFlagTimeout = cli.DurationFlag{
		Name:  flagsTimeout,
		Usage: "Give up on the directory after this long",
		Value: defaultTimeout,
	}
)

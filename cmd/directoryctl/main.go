package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"
)

const defaultTimeout = 30 * time.Second

func main() {
	app := cli.NewApp()
	app.Name = "directoryctl"
	app.Usage = "Maintain and query the realm directory"
	app.Commands = []cli.Command{
		{
			Name:  "migrate",
			Usage: "Apply pending schema migrations",
			Flags: []cli.Flag{
				cliFlagTimeout,
			},
			Action: migrate,
		},
		{
			Name:      "seed",
			Usage:     "Load a realm fixture into the database",
			ArgsUsage: "FIXTURE_FILE",
			Description: "Realms, users, groups, roles and clients in the file " +
				"replace rows with the same ids.",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  flagMigrate,
					Usage: "Apply pending migrations before seeding",
				},
				cliFlagTimeout,
			},
			Action: seed,
		},
		{
			Name:  "users",
			Usage: "Query users",
			Subcommands: []cli.Command{
				{
					Name:      "query",
					Usage:     "Run a user query against a realm",
					ArgsUsage: "REALM [PARAM=VALUE ...]",
					Description: "Parameters use the admin API names, e.g. " +
						"groupId=..., roleId=..., search=..., lastName=doh%, first=0, max=10. " +
						"Repeat a parameter to pass it more than once.",
					Flags: []cli.Flag{
						cliFlagOutput,
						cliFlagTimeout,
						cli.StringFlag{
							Name:  flagsFixture,
							Usage: "Query a fixture file instead of the database",
						},
						cli.StringFlag{
							Name:  flagsMatch,
							Usage: "How repeated group and role filters combine: all, any",
							Value: "all",
						},
						cli.IntFlag{
							Name:  flagPageSize,
							Usage: "Page size when max is not given",
							Value: 100,
						},
						cli.BoolFlag{
							Name:  flagStrict,
							Usage: "Reject unsupported parameters",
						},
					},
					Action: usersQuery,
				},
			},
		},
		{
			Name:  "client-secret",
			Usage: "Generate an admin client secret and its bcrypt hash",
			Description: "Set ADMIN_CLIENT_SECRET_HASH to the printed hash. Pass SECRET " +
				"to hash an existing value instead of generating one.",
			ArgsUsage: "[SECRET]",
			Action:    clientSecret,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "\n%s\n\n", err)
		os.Exit(1)
	}
}

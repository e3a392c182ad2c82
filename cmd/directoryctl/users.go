package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BradenHooton/realmadmin/internal/query"
	"github.com/BradenHooton/realmadmin/internal/repositories"
	"github.com/BradenHooton/realmadmin/internal/services"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

func usersQuery(c *cli.Context) error {
	// Args
	if len(c.Args()) < 1 {
		return errors.New("users query requires at least one argument, the realm name")
	}
	realm := c.Args().First()
	params, err := parseQueryArgs(c.Args().Tail())
	if err != nil {
		return err
	}

	// Command-specific flags
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}
	mode, err := query.ParseMatchMode(strings.ToLower(c.String(flagMatch)))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Duration(flagTimeout))
	defer cancel()

	dir, closeDir, err := openDirectory(ctx, c.String(flagFixture))
	if err != nil {
		return err
	}
	defer closeDir()

	svc := services.NewUserQueryService(dir, mode, query.ParseOptions{
		DefaultPageSize: c.Int(flagPageSize),
		Strict:          c.Bool(flagStrict),
	}, newLogger())

	page, err := svc.QueryUsers(ctx, realm, params)
	if err != nil {
		return errors.Wrap(err, "error querying users")
	}

	return printPage(os.Stdout, page, output)
}

func openDirectory(ctx context.Context, fixturePath string) (services.Directory, func(), error) {
	if fixturePath != "" {
		fixture, err := repositories.LoadFixture(fixturePath)
		if err != nil {
			return nil, nil, err
		}
		dir := repositories.NewInMemoryDirectory()
		dir.Load(fixture)
		return dir, func() {}, nil
	}

	db, err := connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewPostgresDirectory(db), db.Close, nil
}

// parseQueryArgs turns PARAM=VALUE arguments into query parameters. A
// parameter may appear more than once.
func parseQueryArgs(args []string) (url.Values, error) {
	params := url.Values{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, errors.Errorf("query parameter %q must be PARAM=VALUE", arg)
		}
		params.Add(key, value)
	}
	return params, nil
}

func validateOutputFormat(outputFormat string) error {
	switch strings.ToLower(outputFormat) {
	case "table":
	case "json":
	default:
		return errors.Errorf("unknown output format %q", outputFormat)
	}
	return nil
}

type userRow struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Enabled   bool   `json:"enabled"`
}

func printPage(w io.Writer, page *query.Page, output string) error {
	switch strings.ToLower(output) {
	case "table":
		if len(page.Users) == 0 {
			fmt.Fprintf(w, "No users found (count %d).\n", page.Count)
			return nil
		}
		table := uitable.New()
		table.AddRow("ID", "USERNAME", "EMAIL", "NAME", "ENABLED?", "CREATED")
		for _, u := range page.Users {
			created := ""
			if !u.CreatedAt.IsZero() {
				created = u.CreatedAt.UTC().Format(time.RFC3339)
			}
			table.AddRow(
				u.ID,
				u.Username,
				u.Email,
				strings.TrimSpace(u.FirstName+" "+u.LastName),
				u.Enabled,
				created,
			)
		}
		fmt.Fprintln(w, table)
		fmt.Fprintf(w, "\nShowing %d of %d user(s).\n", len(page.Users), page.Count)

	case "json":
		rows := make([]userRow, len(page.Users))
		for i, u := range page.Users {
			rows[i] = userRow{
				ID:        u.ID,
				Username:  u.Username,
				Email:     u.Email,
				FirstName: u.FirstName,
				LastName:  u.LastName,
				Enabled:   u.Enabled,
			}
		}
		prettyJSON, err := json.MarshalIndent(struct {
			Users []userRow `json:"users"`
			Count int       `json:"count"`
		}{rows, page.Count}, "", "  ")
		if err != nil {
			return errors.Wrap(err, "error formatting output from users query")
		}
		fmt.Fprintln(w, string(prettyJSON))
	}
	return nil
}

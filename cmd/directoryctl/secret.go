package main

import (
	"fmt"

	pkgauth "github.com/BradenHooton/realmadmin/pkg/auth"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

func clientSecret(c *cli.Context) error {
	if len(c.Args()) > 1 {
		return errors.New("client-secret takes at most one argument")
	}

	secret := c.Args().First()
	generated := secret == ""
	if generated {
		var err error
		if secret, err = pkgauth.GenerateClientSecret(); err != nil {
			return errors.Wrap(err, "error generating client secret")
		}
	}

	hash, err := pkgauth.HashSecret(secret)
	if err != nil {
		return errors.Wrap(err, "error hashing client secret")
	}

	if generated {
		fmt.Printf("ADMIN_CLIENT_SECRET=%s\n", secret)
	}
	fmt.Printf("ADMIN_CLIENT_SECRET_HASH=%s\n", hash)
	return nil
}

package main

import (
	"fmt"

	"github.com/tdex-network/wager-daemon/internal/interfaces/http/permissions"
	"github.com/urfave/cli/v2"
)

var token = cli.Command{
	Name:  "token",
	Usage: "issue a jwt for the given address signed with the daemon secret",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "secret",
			Usage:    "the jwt secret of the daemon",
			EnvVars:  []string{"WAGER_JWT_SECRET"},
			Required: true,
		},
		&cli.StringFlag{
			Name:     "address",
			Usage:    "the address identifying the caller",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "role",
			Usage: "participant or operator",
			Value: permissions.RoleParticipant,
		},
		&cli.DurationFlag{
			Name:    "expiry",
			Usage:   "validity of the token",
			EnvVars: []string{"WAGER_JWT_TOKEN_EXPIRY"},
			Value:   defaultTokenExpiry,
		},
		&cli.BoolFlag{
			Name:  "save",
			Usage: "store the token in the local state",
		},
	},
	Action: tokenAction,
}

func tokenAction(ctx *cli.Context) error {
	expiry := ctx.Duration("expiry")
	if expiry <= 0 {
		expiry = defaultTokenExpiry
	}

	tokenString, err := permissions.NewToken(
		[]byte(ctx.String("secret")), ctx.String("address"), ctx.String("role"),
		expiry,
	)
	if err != nil {
		return err
	}

	if ctx.Bool("save") {
		if err := setState(map[string]string{"token": tokenString}); err != nil {
			return err
		}
	}

	fmt.Println(tokenString)
	return nil
}

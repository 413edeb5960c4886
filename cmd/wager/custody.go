package main

import (
	"net/url"

	"github.com/urfave/cli/v2"
)

var custody = cli.Command{
	Name:  "custody",
	Usage: "fund and inspect custody balances",
	Subcommands: []*cli.Command{
		{
			Name:  "credit",
			Usage: "credit the balance of a party, operator only",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "party", Usage: "the address to fund", Required: true},
				&cli.StringFlag{Name: "asset", Usage: "the asset, native if empty"},
				&cli.Uint64Flag{Name: "amount", Usage: "the amount to credit", Required: true},
			},
			Action: func(ctx *cli.Context) error {
				body := map[string]interface{}{
					"party":  ctx.String("party"),
					"asset":  ctx.String("asset"),
					"amount": ctx.Uint64("amount"),
				}
				return call(func(c *daemonClient) ([]byte, error) {
					return c.post("/v1/custody/credit", body)
				})
			},
		},
		{
			Name:  "balance",
			Usage: "get the balance of a party",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "party", Usage: "the address", Required: true},
				&cli.StringFlag{Name: "asset", Usage: "the asset, native if empty"},
			},
			Action: func(ctx *cli.Context) error {
				path := "/v1/custody/balances/" + url.PathEscape(ctx.String("party"))
				if asset := ctx.String("asset"); asset != "" {
					path += "?asset=" + url.QueryEscape(asset)
				}
				return call(func(c *daemonClient) ([]byte, error) {
					return c.get(path)
				})
			},
		},
	},
}

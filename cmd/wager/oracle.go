package main

import (
	"fmt"
	"net/url"
	"time"

	"github.com/urfave/cli/v2"
)

var conditionIDFlag = &cli.StringFlag{
	Name:     "condition",
	Usage:    "the id of the oracle condition",
	Required: true,
}

var oracle = cli.Command{
	Name:  "oracle",
	Usage: "inspect and operate the oracle adapters",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "list the registered oracles",
			Action: func(ctx *cli.Context) error {
				return call(func(c *daemonClient) ([]byte, error) {
					return c.get("/v1/oracles")
				})
			},
		},
		{
			Name:  "condition",
			Usage: "get a condition and its outcome if resolved",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "oracle",
					Usage:    "the id of the oracle",
					Required: true,
				},
				conditionIDFlag,
			},
			Action: func(ctx *cli.Context) error {
				path := fmt.Sprintf(
					"/v1/oracles/%s/conditions/%s",
					url.PathEscape(ctx.String("oracle")),
					url.PathEscape(ctx.String("condition")),
				)
				return call(func(c *daemonClient) ([]byte, error) {
					return c.get(path)
				})
			},
		},
		&priceOracle,
		&optimisticOracle,
		&manualOracle,
	},
}

var priceOracle = cli.Command{
	Name:  "price",
	Usage: "price-threshold oracle",
	Subcommands: []*cli.Command{
		{
			Name:  "add",
			Usage: "add a price condition, operator only",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "id", Usage: "the id of the condition", Required: true},
				&cli.StringFlag{Name: "ticker", Usage: "the observed ticker", Value: "XBT/USD"},
				&cli.StringFlag{Name: "target", Usage: "the target price", Required: true},
				&cli.StringFlag{Name: "comparison", Usage: ">= or <=", Value: ">="},
				&cli.DurationFlag{Name: "period", Usage: "time from now until the price is observed", Required: true},
				&cli.StringFlag{Name: "description", Usage: "what the condition is about"},
			},
			Action: func(ctx *cli.Context) error {
				body := map[string]interface{}{
					"id":          ctx.String("id"),
					"ticker":      ctx.String("ticker"),
					"target":      ctx.String("target"),
					"comparison":  ctx.String("comparison"),
					"deadline":    time.Now().Add(ctx.Duration("period")).Unix(),
					"description": ctx.String("description"),
				}
				return oraclePost("/v1/oracles/price/conditions", body)
			},
		},
		{
			Name:  "set",
			Usage: "set the price of a ticker, operator only",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "ticker", Usage: "the ticker", Value: "XBT/USD"},
				&cli.StringFlag{Name: "price", Usage: "the price", Required: true},
			},
			Action: func(ctx *cli.Context) error {
				body := map[string]interface{}{
					"ticker":      ctx.String("ticker"),
					"price":       ctx.String("price"),
					"observed_at": time.Now().Unix(),
				}
				return oraclePost("/v1/oracles/price/prices", body)
			},
		},
		{
			Name:  "resolve",
			Usage: "resolve a price condition past its deadline",
			Flags: []cli.Flag{conditionIDFlag},
			Action: func(ctx *cli.Context) error {
				return oraclePost(conditionPath("price", ctx.String("condition"), "resolve"), nil)
			},
		},
	},
}

var optimisticOracle = cli.Command{
	Name:  "optimistic",
	Usage: "optimistic-assertion oracle",
	Subcommands: []*cli.Command{
		{
			Name:  "add",
			Usage: "add an optimistic condition, operator only",
			Flags: conditionFlags(),
			Action: func(ctx *cli.Context) error {
				return oraclePost("/v1/oracles/optimistic/conditions", conditionBody(ctx))
			},
		},
		{
			Name:  "assert",
			Usage: "assert the outcome of a condition posting a bond",
			Flags: []cli.Flag{
				conditionIDFlag,
				&cli.BoolFlag{Name: "outcome", Usage: "the asserted outcome"},
				&cli.Uint64Flag{Name: "bond", Usage: "the bond of the assertion"},
			},
			Action: func(ctx *cli.Context) error {
				body := map[string]interface{}{
					"outcome": ctx.Bool("outcome"),
					"bond":    ctx.Uint64("bond"),
				}
				return oraclePost(conditionPath("optimistic", ctx.String("condition"), "assert"), body)
			},
		},
		{
			Name:  "dispute",
			Usage: "dispute the pending assertion of a condition",
			Flags: []cli.Flag{conditionIDFlag},
			Action: func(ctx *cli.Context) error {
				return oraclePost(conditionPath("optimistic", ctx.String("condition"), "dispute"), nil)
			},
		},
		{
			Name:  "settle",
			Usage: "settle an undisputed assertion after its liveness",
			Flags: []cli.Flag{conditionIDFlag},
			Action: func(ctx *cli.Context) error {
				return oraclePost(conditionPath("optimistic", ctx.String("condition"), "settle"), nil)
			},
		},
		{
			Name:  "escalation",
			Usage: "settle a disputed assertion with the escalation verdict, operator only",
			Flags: []cli.Flag{
				conditionIDFlag,
				&cli.BoolFlag{Name: "outcome", Usage: "the verdict"},
			},
			Action: func(ctx *cli.Context) error {
				body := map[string]interface{}{"outcome": ctx.Bool("outcome")}
				return oraclePost(conditionPath("optimistic", ctx.String("condition"), "escalation"), body)
			},
		},
	},
}

var manualOracle = cli.Command{
	Name:  "manual",
	Usage: "manual attestation oracle",
	Subcommands: []*cli.Command{
		{
			Name:  "add",
			Usage: "add a manual condition, operator only",
			Flags: conditionFlags(),
			Action: func(ctx *cli.Context) error {
				return oraclePost("/v1/oracles/manual/conditions", conditionBody(ctx))
			},
		},
		{
			Name:  "attest",
			Usage: "attest the outcome of a condition, attesters only",
			Flags: []cli.Flag{
				conditionIDFlag,
				&cli.BoolFlag{Name: "outcome", Usage: "the attested outcome"},
			},
			Action: func(ctx *cli.Context) error {
				body := map[string]interface{}{"outcome": ctx.Bool("outcome")}
				return oraclePost(conditionPath("manual", ctx.String("condition"), "attest"), body)
			},
		},
	},
}

func conditionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "id", Usage: "the id of the condition", Required: true},
		&cli.StringFlag{Name: "description", Usage: "what the condition is about"},
		&cli.DurationFlag{Name: "period", Usage: "expected time from now until resolution"},
	}
}

func conditionBody(ctx *cli.Context) map[string]interface{} {
	body := map[string]interface{}{
		"id":          ctx.String("id"),
		"description": ctx.String("description"),
	}
	if period := ctx.Duration("period"); period > 0 {
		body["expected_resolution_time"] = time.Now().Add(period).Unix()
	}
	return body
}

func conditionPath(oracle, conditionID, action string) string {
	return fmt.Sprintf(
		"/v1/oracles/%s/conditions/%s/%s", oracle, url.PathEscape(conditionID), action,
	)
}

func oraclePost(path string, body interface{}) error {
	return call(func(c *daemonClient) ([]byte, error) {
		return c.post(path, body)
	})
}

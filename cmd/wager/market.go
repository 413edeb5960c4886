package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

var marketIDFlag = &cli.Uint64Flag{
	Name:     "id",
	Usage:    "the id of the market",
	Required: true,
}

var market = cli.Command{
	Name:  "market",
	Usage: "create, resolve and inspect wager markets",
	Subcommands: []*cli.Command{
		marketCreateCmd, marketGetCmd, marketAcceptCmd, marketCancelCmd,
		marketProposeCmd, marketChallengeCmd, marketFinalizeCmd,
		marketAdjudicateCmd, marketPegCmd, marketSettleCmd,
	},
}

var listmarkets = cli.Command{
	Name:  "listmarkets",
	Usage: "list all markets, optionally filtered by status",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "status",
			Usage: "filter by status, can be specified multiple times",
		},
	},
	Action: listMarketsAction,
}

var (
	marketCreateCmd = &cli.Command{
		Name:  "create",
		Usage: "create a new market, the caller is the creator",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "kind",
				Usage: "BILATERAL or GROUP",
				Value: "BILATERAL",
			},
			&cli.StringSliceFlag{
				Name:     "participant",
				Usage:    "participant in the form <address>:<yes|no>, can be specified multiple times",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "policy",
				Usage: "EITHER, INITIATOR_ONLY, RECEIVER_ONLY, THIRD_PARTY or AUTO_PEGGED",
				Value: "EITHER",
			},
			&cli.StringFlag{
				Name:  "arbitrator",
				Usage: "the address adjudicating disputes of THIRD_PARTY markets",
			},
			&cli.Uint64Flag{
				Name:  "stake",
				Usage: "the stake each participant deposits on acceptance",
			},
			&cli.StringFlag{
				Name:  "asset",
				Usage: "the asset of the stake",
				Value: "lbtc",
			},
			&cli.IntFlag{
				Name:  "threshold",
				Usage: "min number of acceptances of a group market",
			},
			&cli.DurationFlag{
				Name:  "acceptance_period",
				Usage: "time from now until acceptances are allowed",
				Value: 24 * time.Hour,
			},
			&cli.DurationFlag{
				Name:  "challenge_window",
				Usage: "challenge window of proposals, daemon default if not set",
			},
			&cli.Int64Flag{
				Name:  "bond",
				Usage: "challenge bond, daemon default if negative",
				Value: -1,
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "what the market is about",
			},
		},
		Action: createMarketAction,
	}
	marketGetCmd = &cli.Command{
		Name:   "get",
		Usage:  "get a market and its escrow",
		Flags:  []cli.Flag{marketIDFlag},
		Action: getMarketAction,
	}
	marketAcceptCmd = &cli.Command{
		Name:  "accept",
		Usage: "accept a market depositing the stake",
		Flags: []cli.Flag{
			marketIDFlag,
			&cli.Uint64Flag{
				Name:     "amount",
				Usage:    "the amount to deposit, must match the stake",
				Required: true,
			},
		},
		Action: marketAmountAction("accept"),
	}
	marketCancelCmd = &cli.Command{
		Name:   "cancel",
		Usage:  "refund a market whose acceptance deadline expired",
		Flags:  []cli.Flag{marketIDFlag},
		Action: marketNoBodyAction("cancel"),
	}
	marketProposeCmd = &cli.Command{
		Name:  "propose",
		Usage: "propose the outcome of an active market",
		Flags: []cli.Flag{
			marketIDFlag,
			&cli.BoolFlag{
				Name:  "outcome",
				Usage: "the proposed outcome",
			},
		},
		Action: marketOutcomeAction("propose"),
	}
	marketChallengeCmd = &cli.Command{
		Name:  "challenge",
		Usage: "challenge the pending proposal posting the bond",
		Flags: []cli.Flag{
			marketIDFlag,
			&cli.Uint64Flag{
				Name:  "bond",
				Usage: "the bond to post, must match the market bond",
			},
		},
		Action: func(ctx *cli.Context) error {
			return marketPost(ctx, "challenge", map[string]interface{}{
				"amount": ctx.Uint64("bond"),
			})
		},
	}
	marketFinalizeCmd = &cli.Command{
		Name:   "finalize",
		Usage:  "finalize an unchallenged proposal after the challenge window",
		Flags:  []cli.Flag{marketIDFlag},
		Action: marketNoBodyAction("finalize"),
	}
	marketAdjudicateCmd = &cli.Command{
		Name:  "adjudicate",
		Usage: "resolve a challenged proposal, arbitrator only",
		Flags: []cli.Flag{
			marketIDFlag,
			&cli.BoolFlag{
				Name:  "outcome",
				Usage: "the final outcome",
			},
		},
		Action: marketOutcomeAction("adjudicate"),
	}
	marketPegCmd = &cli.Command{
		Name:  "peg",
		Usage: "peg a market to an oracle condition",
		Flags: []cli.Flag{
			marketIDFlag,
			&cli.StringFlag{
				Name:     "oracle",
				Usage:    "the id of the oracle",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "condition",
				Usage:    "the id of the oracle condition",
				Required: true,
			},
		},
		Action: func(ctx *cli.Context) error {
			return marketPost(ctx, "peg", map[string]interface{}{
				"oracle_id":    ctx.String("oracle"),
				"condition_id": ctx.String("condition"),
			})
		},
	}
	marketSettleCmd = &cli.Command{
		Name:   "settle",
		Usage:  "settle a market with the outcome of its oracle condition",
		Flags:  []cli.Flag{marketIDFlag},
		Action: marketNoBodyAction("oracle-settle"),
	}
)

var claim = cli.Command{
	Name:   "claim",
	Usage:  "withdraw the winnings of a resolved or refunded market",
	Flags:  []cli.Flag{marketIDFlag},
	Action: marketNoBodyAction("claim"),
}

func createMarketAction(ctx *cli.Context) error {
	participants := make([]map[string]interface{}, 0)
	for _, p := range ctx.StringSlice("participant") {
		address, position, err := parseParticipant(p)
		if err != nil {
			return err
		}
		participants = append(participants, map[string]interface{}{
			"address":  address,
			"position": position,
		})
	}

	body := map[string]interface{}{
		"kind":                     strings.ToUpper(ctx.String("kind")),
		"arbitrator":               ctx.String("arbitrator"),
		"participants":             participants,
		"policy":                   strings.ToUpper(ctx.String("policy")),
		"stake_amount":             ctx.Uint64("stake"),
		"stake_asset":              ctx.String("asset"),
		"acceptance_threshold":     ctx.Int("threshold"),
		"acceptance_deadline":      time.Now().Add(ctx.Duration("acceptance_period")).Unix(),
		"challenge_window_seconds": int64(ctx.Duration("challenge_window").Seconds()),
		"description":              ctx.String("description"),
	}
	if bond := ctx.Int64("bond"); bond >= 0 {
		body["challenge_bond"] = uint64(bond)
	}

	return call(func(c *daemonClient) ([]byte, error) {
		return c.post("/v1/markets", body)
	})
}

func listMarketsAction(ctx *cli.Context) error {
	path := "/v1/markets"
	if statuses := ctx.StringSlice("status"); len(statuses) > 0 {
		path = fmt.Sprintf("%s?status=%s", path, strings.ToUpper(strings.Join(statuses, ",")))
	}
	return call(func(c *daemonClient) ([]byte, error) {
		return c.get(path)
	})
}

func getMarketAction(ctx *cli.Context) error {
	return call(func(c *daemonClient) ([]byte, error) {
		return c.get(marketPath(ctx.Uint64("id"), ""))
	})
}

func marketNoBodyAction(action string) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		return marketPost(ctx, action, nil)
	}
}

func marketAmountAction(action string) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		return marketPost(ctx, action, map[string]interface{}{
			"amount": ctx.Uint64("amount"),
		})
	}
}

func marketOutcomeAction(action string) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		return marketPost(ctx, action, map[string]interface{}{
			"outcome": ctx.Bool("outcome"),
		})
	}
}

func marketPost(ctx *cli.Context, action string, body interface{}) error {
	path := marketPath(ctx.Uint64("id"), action)
	return call(func(c *daemonClient) ([]byte, error) {
		return c.post(path, body)
	})
}

func marketPath(id uint64, action string) string {
	path := "/v1/markets/" + strconv.FormatUint(id, 10)
	if action != "" {
		path += "/" + action
	}
	return path
}

// parseParticipant parses a participant in the form <address>:<yes|no>.
func parseParticipant(str string) (string, bool, error) {
	i := strings.LastIndex(str, ":")
	if i <= 0 || i == len(str)-1 {
		return "", false, fmt.Errorf("invalid participant %s, must be <address>:<yes|no>", str)
	}

	address, side := str[:i], strings.ToLower(str[i+1:])
	switch side {
	case "yes", "true":
		return address, true, nil
	case "no", "false":
		return address, false, nil
	default:
		return "", false, fmt.Errorf("invalid position %s, must be yes or no", side)
	}
}

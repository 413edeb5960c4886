package main

import (
	"net/url"

	"github.com/urfave/cli/v2"
)

var webhook = cli.Command{
	Name:  "webhook",
	Usage: "add or remove a webhook",
	Subcommands: []*cli.Command{
		{
			Name:  "add",
			Usage: "add a webhook registered for some kind of event",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "topic",
					Usage:    "the market event to notify, * for all events",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "endpoint",
					Usage:    "the endpoint to call for the event",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "secret",
					Usage: "the secret to sign the notification tokens",
				},
			},
			Action: addWebhookAction,
		},
		{
			Name:  "remove",
			Usage: "remove some webhook",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Usage:    "the id of the webhook to remove",
					Required: true,
				},
			},
			Action: removeWebhookAction,
		},
	},
}

var listwebhooks = cli.Command{
	Name:  "listwebhooks",
	Usage: "list the webhooks registered for some kind of event",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "topic",
			Usage: "the market event, * for all events",
			Value: "*",
		},
	},
	Action: listWebhooksAction,
}

func addWebhookAction(ctx *cli.Context) error {
	body := map[string]interface{}{
		"topic":    ctx.String("topic"),
		"endpoint": ctx.String("endpoint"),
		"secret":   ctx.String("secret"),
	}
	return call(func(c *daemonClient) ([]byte, error) {
		return c.post("/v1/webhooks", body)
	})
}

func removeWebhookAction(ctx *cli.Context) error {
	path := "/v1/webhooks/" + url.PathEscape(ctx.String("id"))
	return call(func(c *daemonClient) ([]byte, error) {
		return c.delete(path)
	})
}

func listWebhooksAction(ctx *cli.Context) error {
	path := "/v1/webhooks?topic=" + url.QueryEscape(ctx.String("topic"))
	return call(func(c *daemonClient) ([]byte, error) {
		return c.get(path)
	})
}

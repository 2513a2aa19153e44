package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gamevidea/tbnf/config"
	"github.com/gamevidea/tbnf/message"
	"github.com/gamevidea/tbnf/tbnf"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	app := cli.NewApp()
	app.Name = "tbnf"
	app.Usage = "LAN session host, client and discovery tooling."
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "the options file",
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:   "host",
			Usage:  "Run a discoverable host that echoes text messages",
			Action: hostCmd,
		},
		{
			Name:   "join",
			Usage:  "Connect to a host and exchange text messages from stdin",
			Action: joinCmd,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "addr",
					Aliases: []string{"a"},
					Usage:   "the host address, discovered when empty",
				},
				&cli.IntFlag{
					Name:  "discriminator",
					Usage: "tells apart several clients on one device",
				},
			},
		},
		{
			Name:   "discover",
			Usage:  "Query the local network for discoverable hosts",
			Action: discoverCmd,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "game",
					Aliases: []string{"g"},
					Usage:   "only report hosts serving this game identifier",
				},
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

// Loads the options file named by the config flag, or the defaults when the
// flag is absent.
func loadConfig(c *cli.Context) (*config.Custom, error) {
	if file := c.String("config"); file != "" {
		return config.Initialize(file)
	}

	var custom config.Custom
	custom.Endpoint.InactivityCheckInterval = 5000
	custom.Endpoint.ConnectionTimeout = 10000
	custom.Host.ListeningPort = 44815
	custom.Discovery.Name = "tbnf host"
	return &custom, nil
}

func hostCmd(c *cli.Context) error {
	custom, err := loadConfig(c)
	if err != nil {
		return err
	}

	if err := message.Register(func() message.Message { return &message.Text{} }); err != nil {
		return err
	}

	handler := tbnf.NewHandler()
	if err := handler.Ignore(&message.InactivityCheck{}); err != nil {
		return err
	}
	err = handler.Bind(&message.Text{}, func(e *tbnf.Endpoint, m message.Message) {
		text := m.(*message.Text)
		id, _ := e.NetworkIdentifier()
		fmt.Printf("[%d] %s\n", id, text.Value)
		e.Enqueue(&message.Text{Value: text.Value})
	})
	if err != nil {
		return err
	}

	authenticator := tbnf.NewEndpointAuthenticator(custom.Host.ListeningPort, handler)
	authenticator.InactivityCheckInterval = custom.InactivityCheckInterval()
	authenticator.ConnectionTimeout = custom.ConnectionTimeout()
	authenticator.OnNewClientRegistered(func(a *tbnf.EndpointAuthenticator, r *tbnf.RemoteEndpoint) {
		slog.Info("client registered", "hw", r.HardwareAddress())
	})

	if err := authenticator.Start(); err != nil {
		return err
	}
	defer authenticator.Close()

	answerer := tbnf.NewDiscoveryAnswerer(tbnf.DiscoverableEndpoint{
		Name:           custom.Discovery.Name,
		GameIdentifier: custom.Discovery.GameIdentifier,
	}, authenticator.ListeningPort())
	if custom.Discovery.Port != 0 {
		answerer.DiscoveryPort = custom.Discovery.Port
	}

	if err := answerer.Start(); err != nil {
		return err
	}
	defer answerer.Close()

	slog.Info("hosting", "port", authenticator.ListeningPort(), "name", custom.Discovery.Name)
	<-c.Context.Done()
	return nil
}

func joinCmd(c *cli.Context) error {
	custom, err := loadConfig(c)
	if err != nil {
		return err
	}

	if err := message.Register(func() message.Message { return &message.Text{} }); err != nil {
		return err
	}

	addr := c.String("addr")
	if addr == "" {
		found, err := tbnf.Discover(custom.Discovery.GameIdentifier)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return fmt.Errorf("no discoverable host answered")
		}
		addr = fmt.Sprintf("%s:%d", found[0].IP, found[0].Port)
		slog.Info("discovered host", "name", found[0].Name, "addr", addr)
	}

	handler := tbnf.NewHandler()
	if err := handler.Ignore(&message.InactivityCheck{}); err != nil {
		return err
	}
	err = handler.Bind(&message.Text{}, func(e *tbnf.Endpoint, m message.Message) {
		fmt.Printf("> %s\n", m.(*message.Text).Value)
	})
	if err != nil {
		return err
	}

	client, err := tbnf.NewClientEndpoint(addr, uint16(c.Int("discriminator")), handler)
	if err != nil {
		return err
	}
	client.InactivityCheckInterval = custom.InactivityCheckInterval()
	client.ConnectionTimeout = custom.ConnectionTimeout()
	client.OnConnectionSuccess(func(e *tbnf.Endpoint) {
		id, _ := e.NetworkIdentifier()
		slog.Info("connected", "network-identifier", id)
	})
	defer client.Close()

	client.Start()

	lines := bufio.NewScanner(os.Stdin)
	for lines.Scan() {
		if c.Context.Err() != nil {
			break
		}
		client.Enqueue(&message.Text{Value: lines.Text()})
	}
	return lines.Err()
}

func discoverCmd(c *cli.Context) error {
	found, err := tbnf.Discover(c.String("game"))
	if err != nil {
		return err
	}

	for _, endpoint := range found {
		fmt.Printf("%s:%d\t%s\t%s\n", endpoint.IP, endpoint.Port, endpoint.Name, endpoint.GameIdentifier)
	}

	if len(found) == 0 {
		fmt.Println("no discoverable host answered")
	}
	return nil
}

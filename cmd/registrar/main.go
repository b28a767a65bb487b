package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/ruteri/registrar-controller/cmd/flags"
	"github.com/ruteri/registrar-controller/interfaces"
	"github.com/ruteri/registrar-controller/registrar"
	"github.com/ruteri/registrar-controller/storage"
	"github.com/ruteri/registrar-controller/units"
)

var flagCommitmentStore = &cli.StringSliceFlag{
	Name:    "commitment-store",
	Value:   cli.NewStringSlice("file://./.registrar"),
	Usage:   "where commitment secrets are kept between commit and register: file:///path, vault://host:port/mount/path or s3://bucket/prefix; repeat to replicate",
	EnvVars: []string{"COMMITMENT_STORE"},
}
var flagSender = &cli.StringFlag{
	Name:     "sender",
	Required: true,
	Usage:    "account the transaction is sent from",
}
var flagOwner = &cli.StringFlag{
	Name:     "owner",
	Required: true,
	Usage:    "account that will own the name",
}
var flagSecret = &cli.StringFlag{
	Name:  "secret",
	Usage: "32-byte hex commitment secret; generated when omitted",
}
var flagDuration = &cli.Uint64Flag{
	Name:  "duration",
	Value: 365 * 24 * 60 * 60,
	Usage: "registration duration in seconds",
}
var flagPrice = &cli.StringFlag{
	Name:     "price",
	Required: true,
	Usage:    "value in ether sent with the transaction, e.g. 0.05",
}
var flagSkipLocalCheck = &cli.BoolFlag{
	Name:  "skip-local-check",
	Usage: "do not compare the controller's commitment with the locally computed one",
}

const usage string = `Query an ETHRegistrarController and build unsigned commit, register,
renew and withdraw transactions. Transactions are printed as JSON for an
external signer.`

func main() {
	appFlags := append([]cli.Flag{flagCommitmentStore}, flags.SessionFlags...)
	appFlags = append(appFlags, flags.LogFlags...)

	app := &cli.App{
		Name:  "registrar",
		Usage: usage,
		Flags: appFlags,
		Commands: []*cli.Command{
			{
				Name:      "price",
				Usage:     "rent price of a name",
				ArgsUsage: "NAME",
				Flags:     []cli.Flag{flagDuration},
				Action: withSession(func(c *cliContext) error {
					name, err := c.name()
					if err != nil {
						return err
					}
					duration := c.Uint64(flagDuration.Name)
					price, err := c.session.GetRentPrice(c.ctx(), name, duration)
					if err != nil {
						return err
					}
					return printJSON(map[string]interface{}{
						"name":        name,
						"duration":    duration,
						"price":       price.String(),
						"price_ether": units.FormatBaseUnits(price, units.Ether),
					})
				}),
			},
			{
				Name:      "valid",
				Usage:     "check whether the controller accepts a name",
				ArgsUsage: "NAME",
				Action: withSession(func(c *cliContext) error {
					name, err := c.name()
					if err != nil {
						return err
					}
					valid, err := c.session.CheckNameValidity(c.ctx(), name)
					if err != nil {
						return err
					}
					return printJSON(map[string]interface{}{"name": name, "valid": valid})
				}),
			},
			{
				Name:      "available",
				Usage:     "check whether a name can be registered",
				ArgsUsage: "NAME",
				Action: withSession(func(c *cliContext) error {
					name, err := c.name()
					if err != nil {
						return err
					}
					available, err := c.session.IsNameAvailable(c.ctx(), name)
					if err != nil {
						return err
					}
					return printJSON(map[string]interface{}{"name": name, "available": available})
				}),
			},
			{
				Name:  "ages",
				Usage: "print the controller's commitment age window",
				Action: withSession(func(c *cliContext) error {
					minAge, err := c.session.GetMinCommitmentAge(c.ctx())
					if err != nil {
						return err
					}
					maxAge, err := c.session.GetMaxCommitmentAge(c.ctx())
					if err != nil {
						return err
					}
					return printJSON(map[string]interface{}{
						"min_seconds": uint64(minAge.Seconds()),
						"max_seconds": uint64(maxAge.Seconds()),
					})
				}),
			},
			{
				Name:      "make-commitment",
				Usage:     "compute a commitment through the controller without tracking it",
				ArgsUsage: "NAME",
				Flags:     []cli.Flag{flagOwner, flagSecret},
				Action: withSession(func(c *cliContext) error {
					name, err := c.name()
					if err != nil {
						return err
					}
					owner, err := c.address(flagOwner.Name)
					if err != nil {
						return err
					}
					secret, err := c.secret()
					if err != nil {
						return err
					}
					commitment, err := c.session.CalculateCommitmentHash(c.ctx(), name, owner, secret)
					if err != nil {
						return err
					}
					return printJSON(map[string]interface{}{
						"name":       name,
						"owner":      owner.Hex(),
						"secret":     secret,
						"commitment": commitment,
					})
				}),
			},
			{
				Name:      "commit",
				Usage:     "build the commit transaction and remember the secret",
				ArgsUsage: "NAME",
				Flags:     []cli.Flag{flagSender, flagOwner, flagSecret, flagSkipLocalCheck},
				Action: withTracker(func(c *cliContext) error {
					name, err := c.name()
					if err != nil {
						return err
					}
					sender, err := c.address(flagSender.Name)
					if err != nil {
						return err
					}
					owner, err := c.address(flagOwner.Name)
					if err != nil {
						return err
					}
					secret, err := c.secret()
					if err != nil {
						return err
					}
					tx, record, err := c.tracker.Commit(c.ctx(), sender, name, owner, secret)
					if err != nil {
						return err
					}
					c.log.Info("Commitment recorded",
						slog.String("name", name),
						slog.String("store", c.store.LocationURI()))
					return printJSON(map[string]interface{}{"transaction": tx, "record": record})
				}),
			},
			{
				Name:      "register",
				Usage:     "build the register transaction for a committed name",
				ArgsUsage: "NAME",
				Flags:     []cli.Flag{flagSender, flagDuration, flagPrice},
				Action: withTracker(func(c *cliContext) error {
					name, err := c.name()
					if err != nil {
						return err
					}
					sender, err := c.address(flagSender.Name)
					if err != nil {
						return err
					}
					tx, err := c.tracker.Register(c.ctx(), sender, name, c.Uint64(flagDuration.Name), c.String(flagPrice.Name))
					if err != nil {
						return err
					}
					return printJSON(tx)
				}),
			},
			{
				Name:      "renew",
				Usage:     "build a renew transaction",
				ArgsUsage: "NAME",
				Flags:     []cli.Flag{flagSender, flagDuration, flagPrice},
				Action: withSession(func(c *cliContext) error {
					name, err := c.name()
					if err != nil {
						return err
					}
					sender, err := c.address(flagSender.Name)
					if err != nil {
						return err
					}
					tx, err := c.session.ExtendNameRegistration(c.ctx(), sender, name, c.Uint64(flagDuration.Name), c.String(flagPrice.Name))
					if err != nil {
						return err
					}
					return printJSON(tx)
				}),
			},
			{
				Name:  "withdraw",
				Usage: "build a withdraw transaction (controller owner only)",
				Flags: []cli.Flag{flagSender},
				Action: withSession(func(c *cliContext) error {
					sender, err := c.address(flagSender.Name)
					if err != nil {
						return err
					}
					tx, err := c.session.Withdraw(c.ctx(), sender)
					if err != nil {
						return err
					}
					return printJSON(tx)
				}),
			},
			{
				Name:      "status",
				Usage:     "show the tracked phase of a name, syncing the commit time from the controller",
				ArgsUsage: "NAME",
				Action: withTracker(func(c *cliContext) error {
					name, err := c.name()
					if err != nil {
						return err
					}
					record, err := c.tracker.Status(c.ctx(), name)
					if err != nil {
						return err
					}
					if record.Phase != interfaces.PhaseCommitted {
						return printJSON(record)
					}

					committedAt, err := c.session.GetCommitmentTimestamp(c.ctx(), record.Commitment)
					if err != nil {
						return err
					}
					if !committedAt.IsZero() && !committedAt.Equal(record.SubmittedAt) {
						record, err = c.tracker.ConfirmCommitment(c.ctx(), name, committedAt)
						if err != nil {
							return err
						}
					}
					return printJSON(map[string]interface{}{
						"record":   record,
						"on_chain": !committedAt.IsZero(),
						"age":      time.Since(record.SubmittedAt).Truncate(time.Second).String(),
					})
				}),
			},
			{
				Name:      "forget",
				Usage:     "drop the tracked record of a name",
				ArgsUsage: "NAME",
				Action: withTracker(func(c *cliContext) error {
					name, err := c.name()
					if err != nil {
						return err
					}
					return c.tracker.Forget(c.ctx(), name)
				}),
			},
			{
				Name:  "new-secret",
				Usage: "print a random commitment secret",
				Action: func(cCtx *cli.Context) error {
					secret, err := registrar.NewSecret()
					if err != nil {
						return err
					}
					fmt.Println(secret.String())
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type cliContext struct {
	*cli.Context
	log     *slog.Logger
	session *registrar.Session
	store   interfaces.CommitmentStore
	tracker *registrar.Tracker
}

func withSession(action func(c *cliContext) error) cli.ActionFunc {
	return func(cCtx *cli.Context) error {
		logger := flags.SetupLogger(cCtx)
		session, closeRPC, err := flags.ConnectSession(cCtx, logger)
		if err != nil {
			return err
		}
		defer closeRPC()

		return action(&cliContext{Context: cCtx, log: logger, session: session})
	}
}

func withTracker(action func(c *cliContext) error) cli.ActionFunc {
	return withSession(func(c *cliContext) error {
		var locations []interfaces.StorageBackendLocation
		for _, uri := range c.StringSlice(flagCommitmentStore.Name) {
			location, err := interfaces.NewStorageBackendLocation(uri)
			if err != nil {
				return err
			}
			locations = append(locations, location)
		}
		store, err := storage.NewStorageBackendFactory(c.log).StoreForAll(locations)
		if err != nil {
			return fmt.Errorf("could not open commitment store: %w", err)
		}
		if !store.Available(c.ctx()) {
			return fmt.Errorf("commitment store %s is not available", store.LocationURI())
		}

		var opts []registrar.TrackerOption
		opts = append(opts, registrar.WithTrackerLogger(c.log))
		if !c.Bool(flagSkipLocalCheck.Name) {
			opts = append(opts, registrar.WithLocalVerification())
		}

		c.store = store
		c.tracker = registrar.NewTracker(c.session, store, opts...)
		return action(c)
	})
}

func (c *cliContext) ctx() context.Context {
	return c.Context.Context
}

func (c *cliContext) name() (string, error) {
	if c.NArg() != 1 {
		return "", errors.New("expected exactly one NAME argument")
	}
	return c.Args().First(), nil
}

func (c *cliContext) address(flag string) (common.Address, error) {
	addr, err := interfaces.ParseAddress(c.String(flag))
	if err != nil {
		return common.Address{}, fmt.Errorf("--%s: %w", flag, err)
	}
	return addr, nil
}

func (c *cliContext) secret() (interfaces.Secret, error) {
	if raw := c.String(flagSecret.Name); raw != "" {
		secret, err := interfaces.NewSecretFromHex(raw)
		if err != nil {
			return interfaces.Secret{}, fmt.Errorf("--%s: %w", flagSecret.Name, err)
		}
		return secret, nil
	}
	return registrar.NewSecret()
}

func printJSON(v interface{}) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

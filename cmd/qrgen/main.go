// Command qrgen renders a payment QR code to a PNG file and prints its URI.
//
//	qrgen --currency eth --address 0xabc --amount 0.5 --out ./codes
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ngenohkevin/cryptopay/internals/currency"
	"github.com/ngenohkevin/cryptopay/internals/generator"
	"github.com/ngenohkevin/cryptopay/internals/paymenturi"
	"github.com/ngenohkevin/cryptopay/internals/qrcode"
	"github.com/ngenohkevin/cryptopay/internals/share"
	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "qrgen",
		Usage: "render a payment QR code and print its URI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "currency",
				Usage: "currency id, one of btc, eth, sol, usdt, ltc",
				Value: currency.Default().ID,
			},
			&cli.StringFlag{
				Name:  "address",
				Usage: "wallet address",
			},
			&cli.StringFlag{
				Name:  "amount",
				Usage: "optional amount",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "directory the PNG is written to",
				Value: ".",
			},
			&cli.StringFlag{
				Name:    "backend",
				Usage:   "QR backend: skip2 or barcode",
				Value:   "skip2",
				Sources: cli.EnvVars("QR_BACKEND"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "timeout for writing the code out",
				Value: 10 * time.Second,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
			return run(logger, c.String("currency"), c.String("address"), c.String("amount"),
				c.String("out"), c.String("backend"), c.Duration("timeout"))
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "qrgen:", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, currencyID, address, amount, out, backend string, timeout time.Duration) error {
	spec, ok := currency.Lookup(currencyID)
	if !ok {
		return fmt.Errorf("unsupported currency %q", currencyID)
	}
	if address == "" {
		return generator.ErrNoAddress
	}

	encoder, err := qrcode.New(backend)
	if err != nil {
		return err
	}

	gen := generator.New(generator.Config{Encoder: encoder, Logger: logger})
	defer gen.Close()

	gen.Apply(paymenturi.Request{Currency: spec, Address: address, Amount: amount})
	gen.Wait()

	if !gen.State().Current() {
		return fmt.Errorf("failed to render QR code for %s", gen.State().URI)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := gen.Copy(ctx, share.WriterClipboard{W: os.Stdout}); err != nil {
		return err
	}
	if err := gen.Download(ctx, share.DirSink{Dir: out}); err != nil {
		return err
	}

	st := gen.State()
	fmt.Fprintf(os.Stderr, "%s written to %s (%s)\n", st.ImageName, out, st.Request.Summary())
	return nil
}

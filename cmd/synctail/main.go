// Command synctail follows the sync channel as one actor and prints the
// reconciled order list on every change. It is the reference client of the
// protocol and a debugging aid for dispatchers.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"dispatch/internal/client/reconciler"
	"dispatch/internal/client/syncclient"
	"dispatch/internal/sync/protocol"

	"github.com/labstack/gommon/log"
	"github.com/spf13/viper"
)

func main() {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SYNC_URL", "ws://localhost:8080/api/v1/sync")
	v.SetDefault("RESYNC_GRACE", reconciler.DefaultGrace)

	token := v.GetString("SYNC_TOKEN")
	if token == "" {
		log.Fatal("SYNC_TOKEN is required")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := reconciler.New(reconciler.Options{
		Grace: v.GetDuration("RESYNC_GRACE"),
		OnTerminal: func(o protocol.Order) {
			fmt.Printf("order %s finished: %s %s\n", o.Reference, o.Status, o.CancelReason)
		},
	})
	client := syncclient.New(syncclient.Config{
		URL:   v.GetString("SYNC_URL"),
		Token: token,
	}, r, logger)
	client.OnMessage(func(env protocol.Envelope) {
		switch env.Type {
		case protocol.TypeOrderError:
			fmt.Printf("error on %s: %s\n", env.OrderID, env.Reason)
		case protocol.TypeNoDriversAvailable:
			fmt.Printf("no drivers for %s\n", env.OrderID)
		}
		printOrders(r.Orders())
	})

	if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

func printOrders(orders []protocol.Order) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REFERENCE\tSTATUS\tVERSION\tCOURIER\tPRICE")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\n", o.Reference, o.Status, o.Version, o.CourierID, o.PriceAmount)
	}
	_ = w.Flush()
}

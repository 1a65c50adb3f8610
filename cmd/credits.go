package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ai-companion-chat/client/internal/api"
	"ai-companion-chat/client/internal/realtime"
	"ai-companion-chat/client/internal/ui"
	apperrors "ai-companion-chat/client/pkg/errors"
)

var (
	buyPackID    string
	cancelOrder  bool
	watchCredits bool
)

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Show the credit balance and purchase options",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cancelOrder {
			if err := container.API.CancelActiveOrder(ctx); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "Active order cancelled")
			return nil
		}

		if buyPackID != "" {
			order, err := container.API.CreateOrder(ctx, api.OrderRequest{CreditPackID: buyPackID})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Order %s created (%s)\n", order.ID, order.Status)
			if order.CheckoutURL != "" {
				fmt.Fprintf(os.Stderr, "Complete checkout at: %s\n", order.CheckoutURL)
			}
			return nil
		}

		if watchCredits {
			return watchBalance(cmd)
		}

		sp := ui.NewSpinner("Loading credit packs...")
		sp.Start()
		packs, err := container.API.CreditPacks(ctx)
		sp.Stop()
		if err != nil {
			return err
		}
		container.Store.SetCreditPacks(packs)

		bold := color.New(color.Bold)
		dim := color.New(color.Faint)
		bold.Fprintf(os.Stdout, "Balance: %.2f\n\n", container.Store.Credits())
		for _, p := range packs {
			bold.Fprintf(os.Stdout, "%s", p.Name)
			dim.Fprintf(os.Stdout, "  (%s)\n", p.ID)
			fmt.Fprintf(os.Stdout, "  %.0f credits for %.2f\n", p.Credits, p.Price)
		}
		return nil
	},
}

// watchBalance keeps a live balance subscription open, printing every push
// until the socket closes or the command is interrupted.
func watchBalance(cmd *cobra.Command) error {
	if !container.Session.SignedIn() {
		return apperrors.NewError(apperrors.CodeNotSignedIn, "sign in first with `companion login`")
	}

	sub, err := realtime.Subscribe(cmd.Context(), container.Config.API.SocketURL,
		container.Session.Token(), container.Session.AccountID(), container.Logger)
	if err != nil {
		return err
	}
	defer sub.Close()

	bold := color.New(color.Bold)
	bold.Fprintf(os.Stdout, "Balance: %.2f\n", container.Store.Credits())

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				fmt.Fprintln(os.Stderr, "balance feed closed")
				return nil
			}
			container.Store.SetCredits(ev.Credit)
			bold.Fprintf(os.Stdout, "Balance: %.2f\n", ev.Credit)
		case <-cmd.Context().Done():
			return nil
		}
	}
}

func init() {
	creditsCmd.Flags().StringVar(&buyPackID, "buy", "", "Create a checkout order for the given credit pack id")
	creditsCmd.Flags().BoolVar(&cancelOrder, "cancel-order", false, "Cancel the active checkout order")
	creditsCmd.Flags().BoolVar(&watchCredits, "watch", false, "Keep a live balance feed open")
}

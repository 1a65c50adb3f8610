package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ai-companion-chat/client/internal/api"
	"ai-companion-chat/client/internal/ui"
)

var subscribePlanID string

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List paid plans or subscribe to one",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if subscribePlanID != "" {
			order, err := container.API.CreateOrder(ctx, api.OrderRequest{PlanID: subscribePlanID})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Order %s created (%s)\n", order.ID, order.Status)
			if order.CheckoutURL != "" {
				fmt.Fprintf(os.Stderr, "Complete checkout at: %s\n", order.CheckoutURL)
			}
			return nil
		}

		sp := ui.NewSpinner("Loading plans...")
		sp.Start()
		plans, err := container.API.PaidPlans(ctx)
		sp.Stop()
		if err != nil {
			return err
		}
		container.Store.SetPlans(plans)

		bold := color.New(color.Bold)
		dim := color.New(color.Faint)
		for _, p := range plans {
			bold.Fprintf(os.Stdout, "%s", p.Name)
			dim.Fprintf(os.Stdout, "  (%s)\n", p.ID)
			fmt.Fprintf(os.Stdout, "  %.2f / %s\n", p.Price, p.Interval)
			if len(p.Features) > 0 {
				fmt.Fprintf(os.Stdout, "  %s\n", strings.Join(p.Features, ", "))
			}
		}
		return nil
	},
}

func init() {
	plansCmd.Flags().StringVar(&subscribePlanID, "subscribe", "", "Create a checkout order for the given plan id")
}

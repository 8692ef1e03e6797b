package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"sim-trading-engine/internal/api"
	"sim-trading-engine/internal/types"
)

// clientCmds are thin gateway callers for poking a running server.
func clientCmds() []*cobra.Command {
	var server string
	newClient := func() *api.Client { return api.NewClient(server) }

	portfolio := &cobra.Command{
		Use:   "portfolio <userId>",
		Short: "Show a user's portfolio, positions and orders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newClient().Portfolio(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	quote := &cobra.Command{
		Use:   "quote [symbol...]",
		Short: "Show the latest market point per symbol",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newClient().MarketData(cmd.Context(), args...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	var req types.OrderRequest
	var price float64
	var side, orderType string
	order := &cobra.Command{
		Use:   "order",
		Short: "Submit an order",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Side = types.Side(strings.ToUpper(side))
			req.OrderType = types.OrderType(strings.ToUpper(orderType))
			if cmd.Flags().Changed("price") {
				req.Price = &price
			}
			out, err := newClient().CreateOrder(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	order.Flags().StringVar(&req.PortfolioID, "portfolio", "portfolio-1", "Portfolio id")
	order.Flags().StringVar(&req.Symbol, "symbol", "", "Symbol")
	order.Flags().StringVar(&side, "side", "BUY", "BUY or SELL")
	order.Flags().StringVar(&orderType, "type", "MARKET", "MARKET, LIMIT or STOP")
	order.Flags().IntVar(&req.Quantity, "qty", 1, "Quantity")
	order.Flags().Float64Var(&price, "price", 0, "Limit/stop price")

	var strategy string
	sig := &cobra.Command{
		Use:   "signal <symbol>",
		Short: "Generate a signal for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newClient().GenerateSignal(cmd.Context(), args[0], strategy)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	sig.Flags().StringVar(&strategy, "strategy", "", "Strategy label")

	cmds := []*cobra.Command{portfolio, quote, order, sig}
	for _, c := range cmds {
		c.Flags().StringVar(&server, "server", "http://localhost:5000", "Gateway base URL")
	}
	return cmds
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

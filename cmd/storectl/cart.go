package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/service"
)

func newCartCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and edit the cart",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return e.open(cmd.Context())
		},
	}

	var variants []string
	add := &cobra.Command{
		Use:     "add <product-id> [quantity]",
		Short:   "Add a product to the cart",
		Example: `  storectl cart add tee 2 --variant size=M --variant color=blue`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty := 1
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid quantity %q", args[1])
				}
				qty = n
			}
			sel, err := parseVariants(variants)
			if err != nil {
				return err
			}
			res, err := e.cart.AddItem(cmd.Context(), e.opts.owner(), service.AddItemInput{
				ProductID: args[0],
				Quantity:  qty,
				Variants:  sel,
			})
			if err != nil {
				return err
			}
			return e.print(res)
		},
	}
	add.Flags().StringArrayVar(&variants, "variant", nil, "variant selection as name=value (repeatable)")

	update := &cobra.Command{
		Use:   "update <line-key> <quantity>",
		Short: "Set the quantity of a cart line; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			res, err := e.cart.UpdateQuantity(cmd.Context(), e.opts.owner(), args[0], qty)
			if err != nil {
				return err
			}
			return e.print(res)
		},
	}

	remove := &cobra.Command{
		Use:   "remove <line-key>",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := e.cart.RemoveItem(cmd.Context(), e.opts.owner(), args[0])
			if err != nil {
				return err
			}
			return e.print(res)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := e.cart.Clear(cmd.Context(), e.opts.owner())
			if err != nil {
				return err
			}
			return e.print(res)
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := e.cart.GetCart(cmd.Context(), e.opts.owner())
			if err != nil {
				return err
			}
			return e.print(view)
		},
	}

	var containsVariants []string
	contains := &cobra.Command{
		Use:   "contains <product-id>",
		Short: "Report whether a product and variant selection is in the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := parseVariants(containsVariants)
			if err != nil {
				return err
			}
			in, err := e.cart.Contains(cmd.Context(), e.opts.owner(), args[0], sel)
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out, in)
			return nil
		},
	}
	contains.Flags().StringArrayVar(&containsVariants, "variant", nil, "variant selection as name=value (repeatable)")

	cmd.AddCommand(add, update, remove, clearCmd, show, contains)
	return cmd
}

func parseVariants(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variant %q (want name=value)", p)
		}
		out[name] = value
	}
	return out, nil
}

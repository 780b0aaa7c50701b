package main

import (
	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/service"
)

// newListCmd builds the wishlist or compare command. svc is resolved after
// the environment is opened.
func newListCmd(e *env, name string, svc func() *service.ListService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: "Show and edit the " + name,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return e.open(cmd.Context())
		},
	}

	mutation := func(use, short string, run func(cmd *cobra.Command, s *service.ListService, productID string) (*service.ListResult, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <product-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := run(cmd, svc(), args[0])
				if err != nil {
					return err
				}
				return e.print(res)
			},
		}
	}

	cmd.AddCommand(
		mutation("add", "Add a product to the "+name, func(cmd *cobra.Command, s *service.ListService, id string) (*service.ListResult, error) {
			return s.Add(cmd.Context(), e.opts.owner(), id)
		}),
		mutation("remove", "Remove a product from the "+name, func(cmd *cobra.Command, s *service.ListService, id string) (*service.ListResult, error) {
			return s.Remove(cmd.Context(), e.opts.owner(), id)
		}),
		mutation("toggle", "Add a product, or remove it when present", func(cmd *cobra.Command, s *service.ListService, id string) (*service.ListResult, error) {
			return s.Toggle(cmd.Context(), e.opts.owner(), id)
		}),
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the " + name,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				res, err := svc().Clear(cmd.Context(), e.opts.owner())
				if err != nil {
					return err
				}
				return e.print(res)
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the " + name,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				view, err := svc().Get(cmd.Context(), e.opts.owner())
				if err != nil {
					return err
				}
				return e.print(view)
			},
		},
	)
	return cmd
}

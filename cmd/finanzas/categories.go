package main

import (
	"fmt"

	"github.com/Veraticus/finanzas/internal/cli"
	"github.com/Veraticus/finanzas/internal/model"
	"github.com/Veraticus/finanzas/internal/service"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage transaction categories",
		Example: `  # List expense categories
  finanzas categories list --type expense

  # Add an income category
  finanzas categories add Dividends --type income --color "#10B981"`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var categoryType string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := newServices(store, cfg).Categories.List(ctx, service.CategoryFilter{
				Type:            model.CategoryType(categoryType),
				IncludeInactive: all,
			})
			if err != nil {
				return err
			}

			if len(categories) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render("No categories found."))
				return nil
			}

			rows := make([][]string, 0, len(categories))
			for _, c := range categories {
				state := "active"
				if !c.IsActive {
					state = cli.SubtleStyle.Render("inactive")
				}
				rows = append(rows, []string{c.Name, string(c.Type), c.Color, state, cli.SubtleStyle.Render(c.ID)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"NAME", "TYPE", "COLOR", "STATE", "ID"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&categoryType, "type", "", "Only show income or expense categories")
	cmd.Flags().BoolVar(&all, "all", false, "Include inactive categories")

	return cmd
}

func addCategoryCmd() *cobra.Command {
	var in service.CategoryInput

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			in.Name = args[0]
			category, err := newServices(store, cfg).Categories.Create(ctx, in)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Added %s category %s\n",
				cli.SuccessStyle.Render(cli.SuccessIcon),
				category.Type,
				cli.InfoStyle.Render(category.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Type, "type", "expense", "Category type (income or expense)")
	cmd.Flags().StringVar(&in.Color, "color", "", "Hex color such as #RRGGBB")
	cmd.Flags().StringVar(&in.Icon, "icon", "", "Icon name")

	return cmd
}

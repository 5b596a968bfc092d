package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio-studio/internal/types"
)

func newPalettesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "palettes",
		Short: "Manage saved color palettes",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved palettes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				sess, err := a.openSession(cmd.Context())
				if err != nil {
					return err
				}
				defer sess.close()

				selected, _ := sess.store.Get("siteTheme.palette")
				id, _ := selected.(string)
				a.printer.PrintPalettes(sess.store.SavedPalettes(cmd.Context()), id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <name> <accent> <accent2>",
			Short: "Save a palette and select it",
			Long:  "Saves the accent pair under name, replacing a palette of the same name ignoring case, and selects it.",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				sess, err := a.openSession(cmd.Context())
				if err != nil {
					return err
				}
				defer sess.close()

				p := types.SavedPalette{Name: args[0], Accent: args[1], Accent2: args[2]}
				if err := sess.store.SavePalette(cmd.Context(), p); err != nil {
					return err
				}
				if err := sess.flush(cmd.Context()); err != nil {
					return err
				}
				_, err = fmt.Fprintf(a.out, "✓ Saved palette %q\n", args[0])
				return err
			},
		},
		&cobra.Command{
			Use:   "rm <name>",
			Short: "Delete a saved palette",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				sess, err := a.openSession(cmd.Context())
				if err != nil {
					return err
				}
				defer sess.close()

				if err := sess.store.DeletePalette(cmd.Context(), args[0]); err != nil {
					return err
				}
				if err := sess.flush(cmd.Context()); err != nil {
					return err
				}
				_, err = fmt.Fprintf(a.out, "✓ Deleted palette %q\n", args[0])
				return err
			},
		},
	)
	return cmd
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio-studio/internal/validation"
)

func newDraftCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Manage the unpublished draft",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "save",
			Short: "Save the current document as the draft",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				sess, err := a.openSession(cmd.Context())
				if err != nil {
					return err
				}
				defer sess.close()
				if err := sess.store.SaveDraft(cmd.Context()); err != nil {
					return err
				}
				_, err = fmt.Fprintln(a.out, "✓ Draft saved")
				return err
			},
		},
		&cobra.Command{
			Use:   "discard",
			Short: "Discard the draft and reload the published document",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				sess, err := a.openSession(cmd.Context())
				if err != nil {
					return err
				}
				defer sess.close()
				if err := sess.store.DiscardDraft(cmd.Context()); err != nil {
					return err
				}
				_, err = fmt.Fprintln(a.out, "✓ Draft discarded")
				return err
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether a draft is pending",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				sess, err := a.openSession(cmd.Context())
				if err != nil {
					return err
				}
				defer sess.close()
				a.printer.PrintDraftStatus(sess.store.DraftActive(), sess.store.UndoDepth())
				a.printer.PrintCounts(sess.store.Counts())
				return nil
			},
		},
	)
	return cmd
}

func newPublishCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Validate and publish the current document",
		Long:  "Publishes the normalized document and clears the draft. Nothing is written when validation finds issues.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.close()

			if err := sess.store.Publish(cmd.Context()); err != nil {
				var vErr *validation.Error
				if errors.As(err, &vErr) {
					a.printer.PrintIssues(vErr.Issues)
				}
				return err
			}
			_, err = fmt.Fprintln(a.out, "✓ Published")
			return err
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the published document and draft",
		Long:  "Reverts to the default document and removes both the published document and the draft from storage.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("reset deletes the published site; rerun with --yes to confirm")
			}
			sess, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.close()

			if err := sess.store.Reset(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, "✓ Portfolio reset to defaults")
			return err
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}

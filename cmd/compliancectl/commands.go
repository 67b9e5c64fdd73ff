package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/compliance-review-api/internal/dto"
	"github.com/noah-isme/compliance-review-api/internal/models"
	"github.com/noah-isme/compliance-review-api/internal/service"
)

type reviewActions interface {
	RecomputeFolder(ctx context.Context, folderID string, actorID string) (*dto.FolderReviewResult, error)
	SyncDocumentStatus(ctx context.Context, documentID string, req dto.SyncDocumentStatusRequest, actorID string) (*dto.DocumentReviewResult, error)
}

type actionsOpener func(ctx context.Context) (reviewActions, func(), error)

func newRootCommand(resolver *service.CategoryResolver, open actionsOpener) *cobra.Command {
	var actor string

	root := &cobra.Command{
		Use:           "compliancectl",
		Short:         "Maintenance commands for compliance folder reviews",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&actor, "actor", "compliancectl", "Actor recorded in the audit trail")

	root.AddCommand(
		categoriesCommand(resolver),
		recomputeCommand(open, &actor),
		statusCommand(open, &actor, "expire", "Mark a document as expired", models.ReviewStatusExpired),
		statusCommand(open, &actor, "mark-to-update", "Ask the contractor to update a document", models.ReviewStatusToUpdate),
	)
	return root
}

func categoriesCommand(resolver *service.CategoryResolver) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Print the category table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printCategories(cmd.OutOrStdout(), resolver.Specs())
		},
	}
}

func printCategories(out io.Writer, specs []models.CategorySpec) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tLABEL\tKIND\tOWNER FIELD")
	for _, spec := range specs {
		owner := spec.OwnerField
		if owner == "" {
			owner = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", spec.Category, spec.Label, spec.Kind, owner)
	}
	return w.Flush()
}

func recomputeCommand(open actionsOpener, actor *string) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute <folder-id>",
		Short: "Re-derive a folder status from its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actions, cleanup, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := actions.RecomputeFolder(cmd.Context(), strings.TrimSpace(args[0]), *actor)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !result.FolderChanged {
				fmt.Fprintf(out, "folder %s already %s\n", result.FolderID, result.FolderStatus)
				return nil
			}
			fmt.Fprintf(out, "folder %s: %s -> %s\n", result.FolderID, result.PreviousStatus, result.FolderStatus)
			printWarnings(out, result.Warnings)
			return nil
		},
	}
}

func statusCommand(open actionsOpener, actor *string, use, short string, status models.ReviewStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <document-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actions, cleanup, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := actions.SyncDocumentStatus(cmd.Context(), strings.TrimSpace(args[0]), dto.SyncDocumentStatusRequest{Status: status}, *actor)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "document %s: %s\n", result.DocumentID, result.Status)
			if result.FolderChanged {
				fmt.Fprintf(out, "folder %s: %s -> %s\n", result.FolderID, result.PreviousFolder, result.FolderStatus)
			}
			printWarnings(out, result.Warnings)
			return nil
		},
	}
}

func printWarnings(out io.Writer, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
}

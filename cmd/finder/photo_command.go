package main

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"therapyfinder/internal/places"
	"therapyfinder/internal/services"
	"therapyfinder/internal/store"
)

func newPhotoCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "photo <provider-slug>",
		Short: "Download a provider's photo from the places source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequirePlacesKey(); err != nil {
				return err
			}
			client, err := places.New(cfg.Places.APIKey, cfg.Places.BaseURL, places.WithTimeout(cfg.PlacesTimeout()))
			if err != nil {
				return err
			}
			runCtx, stop := ctx.runContext(cmd)
			defer stop()

			return ctx.withStore(func(st *store.Store) error {
				provider, err := st.ProviderBySlug(runCtx, strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if provider == nil {
					return services.Wrap(services.ErrNotFound, "cli", "photo", fmt.Sprintf("no provider with slug %q", args[0]), nil)
				}
				if provider.PhotoRef == "" {
					return services.Wrap(services.ErrNotFound, "cli", "photo", fmt.Sprintf("%s has no photo", provider.Name), nil)
				}

				data, contentType, err := client.FetchPhoto(runCtx, provider.PhotoRef, cfg.Places.PhotoMaxPx)
				if err != nil {
					if errors.Is(err, services.ErrQuotaExceeded) {
						return fmt.Errorf("photo quota exhausted or key lacks media permission: %w", err)
					}
					return err
				}

				target := output
				if target == "" {
					target = provider.Slug + photoExtension(contentType)
				}
				if dir := filepath.Dir(target); dir != "." {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						return fmt.Errorf("create output directory: %w", err)
					}
				}
				if err := os.WriteFile(target, data, 0o644); err != nil {
					return fmt.Errorf("write photo: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %d bytes to %s\n", len(data), target)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (defaults to <slug>.<ext>)")
	return cmd
}

func photoExtension(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".jpg"
	}
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
		return exts[0]
	}
	return ".jpg"
}

package cli

import (
	"fmt"
	"path/filepath"

	"github.com/skybi/imagefx/internal/image"
	"github.com/skybi/imagefx/internal/imagefx"
	"github.com/skybi/imagefx/internal/prompt"
	"github.com/spf13/cobra"
)

func (app *app) generateCommand() *cobra.Command {
	var (
		text    string
		count   int
		seed    int
		model   string
		ratio   string
		dir     string
		retries int
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate images from a text prompt and save them",
		Args:  cobra.NoArgs,
		RunE: app.run(func(cmd *cobra.Command, _ []string) error {
			p := prompt.Prompt{Text: text, Seed: seed, ImageCount: count}
			var err error
			if p.Model, err = prompt.ParseModel(model); err != nil {
				return err
			}
			if p.AspectRatio, err = prompt.ParseAspectRatio(ratio); err != nil {
				return err
			}

			client, err := app.client(cmd.Context())
			if err != nil {
				return err
			}
			images, err := client.GenerateImage(cmd.Context(), p, retries)
			if err != nil {
				return err
			}

			for i, img := range images {
				path, err := img.Save(fmt.Sprintf("%s-%d", image.DefaultName(app.now()), i+1), dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", img.MediaID, path)
			}
			app.recordGeneration(cmd, client, p, images)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&text, "prompt", "p", "", "Text describing the image(s) to generate")
	cmd.Flags().IntVarP(&count, "count", "n", prompt.DefaultImageCount, "Number of images to generate")
	cmd.Flags().IntVar(&seed, "seed", 0, "Seed of the generation (0 lets the service choose)")
	cmd.Flags().StringVarP(&model, "model", "m", string(prompt.DefaultModel), "Model to use (e.g. imagen-3, imagen-3.5)")
	cmd.Flags().StringVarP(&ratio, "ratio", "r", prompt.DefaultAspectRatio.ShortName(), "Aspect ratio (square, portrait, landscape, ...)")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory to save the images in")
	cmd.Flags().IntVar(&retries, "retries", app.cfg.MaxRetries, "How often a failed generation is re-attempted")
	cmd.MarkFlagRequired("prompt")
	return cmd
}

// recordGeneration records a generation if a database is configured; failures are only logged
func (app *app) recordGeneration(cmd *cobra.Command, client *imagefx.Client, p prompt.Prompt, images []*image.GeneratedImage) {
	recorder, err := app.history(cmd.Context())
	if err != nil {
		return
	}
	account, err := client.User(cmd.Context())
	if err == nil {
		_, _, err = recorder.RecordGeneration(cmd.Context(), account, p, images)
	}
	if err != nil {
		app.logger.Error().Err(err).Msg("could not record the generation")
	}
}

func (app *app) fetchCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "fetch <media id>",
		Short: "Fetch a previously generated image and save it",
		Args:  cobra.ExactArgs(1),
		RunE: app.run(func(cmd *cobra.Command, args []string) error {
			client, err := app.client(cmd.Context())
			if err != nil {
				return err
			}
			img, err := client.GetImageByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			path, err := img.Save(filepath.Base(args[0]), dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory to save the image in")
	return cmd
}

func (app *app) captionCommand() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "caption <image file>",
		Short: "Generate captions describing an image",
		Args:  cobra.ExactArgs(1),
		RunE: app.run(func(cmd *cobra.Command, args []string) error {
			encoded, mimeType, err := image.LoadFile(args[0])
			if err != nil {
				return err
			}
			client, err := app.client(cmd.Context())
			if err != nil {
				return err
			}
			captions, err := client.GenerateCaptions(cmd.Context(), encoded, mimeType, count)
			if err != nil {
				return err
			}
			for _, caption := range captions {
				fmt.Fprintln(cmd.OutOrStdout(), caption)
			}

			if recorder, err := app.history(cmd.Context()); err == nil {
				account, err := client.User(cmd.Context())
				if err == nil {
					_, err = recorder.RecordCaptions(cmd.Context(), account, args[0], imagefx.NormalizeMimeType(mimeType), captions)
				}
				if err != nil {
					app.logger.Error().Err(err).Msg("could not record the captions")
				}
			}
			return nil
		}),
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of captions to generate")
	return cmd
}

package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/skybi/imagefx/internal/history"
	"github.com/skybi/imagefx/internal/user"
	"github.com/spf13/cobra"
)

func (app *app) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the account the credential belongs to",
		Args:  cobra.NoArgs,
		RunE: app.run(func(cmd *cobra.Command, _ []string) error {
			client, err := app.client(cmd.Context())
			if err != nil {
				return err
			}
			account, err := client.User(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", account.Name, account.Email)
			return nil
		}),
	}
}

func (app *app) historyCommand() *cobra.Command {
	var limit uint64
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded prompts and images",
	}
	cmd.PersistentFlags().Uint64VarP(&limit, "limit", "l", history.DefaultLimit, "Maximum number of entries to list")

	promptsCmd := &cobra.Command{
		Use:   "prompts",
		Short: "List the latest recorded prompts",
		Args:  cobra.NoArgs,
		RunE: app.run(func(cmd *cobra.Command, _ []string) error {
			obj, err := app.currentUser(cmd)
			if err != nil {
				return err
			}
			prompts, err := app.driver.History().GetPrompts(cmd.Context(), obj.ID, limit)
			if err != nil {
				return err
			}

			var data [][]string
			for _, obj := range prompts {
				data = append(data, []string{obj.CreatedAt.Format(time.DateTime), string(obj.Model), obj.AspectRatio.ShortName(), strconv.Itoa(obj.ImageCount), obj.Text})
			}
			renderTable(cmd.OutOrStdout(), []string{"CREATED", "MODEL", "RATIO", "COUNT", "PROMPT"}, data)
			return nil
		}),
	}

	imagesCmd := &cobra.Command{
		Use:   "images",
		Short: "List the latest recorded images",
		Args:  cobra.NoArgs,
		RunE: app.run(func(cmd *cobra.Command, _ []string) error {
			obj, err := app.currentUser(cmd)
			if err != nil {
				return err
			}
			images, err := app.driver.History().GetImages(cmd.Context(), obj.ID, limit)
			if err != nil {
				return err
			}

			var data [][]string
			for _, obj := range images {
				data = append(data, []string{obj.CreatedAt.Format(time.DateTime), obj.MediaID, strconv.Itoa(obj.Seed), obj.PromptText})
			}
			renderTable(cmd.OutOrStdout(), []string{"CREATED", "MEDIA ID", "SEED", "PROMPT"}, data)
			return nil
		}),
	}

	cmd.AddCommand(promptsCmd, imagesCmd)
	return cmd
}

func renderTable(out io.Writer, header []string, data [][]string) {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}

// currentUser resolves the stored user of the account the credential belongs to
func (app *app) currentUser(cmd *cobra.Command) (*user.User, error) {
	recorder, err := app.history(cmd.Context())
	if err != nil {
		return nil, err
	}
	client, err := app.client(cmd.Context())
	if err != nil {
		return nil, err
	}
	account, err := client.User(cmd.Context())
	if err != nil {
		return nil, err
	}
	return recorder.ResolveUser(cmd.Context(), account)
}

func (app *app) sessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Maintain the recorded ImageFX sessions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete every expired session record",
		Args:  cobra.NoArgs,
		RunE: app.run(func(cmd *cobra.Command, _ []string) error {
			driver, err := app.storage(cmd.Context())
			if err != nil {
				return err
			}
			n, err := driver.Sessions().TerminateExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired session(s)\n", n)
			return nil
		}),
	}, &cobra.Command{
		Use:   "forget",
		Short: "Delete every recorded session of the current account",
		Args:  cobra.NoArgs,
		RunE: app.run(func(cmd *cobra.Command, _ []string) error {
			recorder, err := app.history(cmd.Context())
			if err != nil {
				return err
			}
			client, err := app.client(cmd.Context())
			if err != nil {
				return err
			}
			account, err := client.User(cmd.Context())
			if err != nil {
				return err
			}
			obj, err := recorder.ForgetSessions(cmd.Context(), account)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "forgot the sessions of %s\n", obj.Email)
			return nil
		}),
	})
	return cmd
}

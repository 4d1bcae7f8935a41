package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
	"github.com/fivetwenty-io/storyblok-docs/pkg/storyblok"
)

// NewStoriesCommand creates the stories command group.
func NewStoriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "stories",
		Aliases: []string{"story"},
		Short:   "Read stories",
		Long:    "List and inspect stories of the space",
	}

	cmd.AddCommand(newStoriesListCommand())
	cmd.AddCommand(newStoriesGetCommand())

	return cmd
}

func newStoriesListCommand() *cobra.Command {
	var (
		startsWith  string
		contentType string
		search      string
		sortBy      string
		tags        []string
		page        int
		perPage     int
		all         bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stories",
		Long:  "List stories, optionally filtered by folder, content type, tag or search term",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			params := versionParams(cmd).
				WithStartsWith(startsWith).
				WithContentType(contentType).
				WithSearchTerm(search).
				WithSortBy(sortBy).
				WithTag(tags...)

			var stories []storyblok.Story

			if all {
				stories, err = client.Stories().All(cmd.Context(), params)
				if err != nil {
					return fmt.Errorf("failed to list stories: %w", err)
				}
			} else {
				resp, err := client.Stories().List(cmd.Context(), params.WithPage(page).WithPerPage(perPage))
				if err != nil {
					return fmt.Errorf("failed to list stories: %w", err)
				}

				stories = resp.Resources

				if len(stories) > 0 && resp.Pagination.HasNext() {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Page %d of %d (%d stories). Use --all to fetch every page.\n",
						resp.Pagination.Page, resp.Pagination.TotalPages(), resp.Pagination.Total)
				}
			}

			return printOutput(cmd, stories, func(table *tablewriter.Table) error {
				table.Header("ID", "Name", "Full Slug", "Component", "Published", "Tags")

				for _, story := range stories {
					err := table.Append([]string{
						strconv.FormatInt(story.ID, 10),
						story.Name,
						story.FullSlug,
						story.Content.Component(),
						formatTime(story.PublishedAt),
						strings.Join(story.TagList, ", "),
					})
					if err != nil {
						return fmt.Errorf("failed to append row: %w", err)
					}
				}

				return nil
			})
		},
	}

	addContentFlags(cmd)
	cmd.Flags().StringVar(&startsWith, "starts-with", "", "folder prefix, e.g. docs/")
	cmd.Flags().StringVar(&contentType, "content-type", "", "filter by root component")
	cmd.Flags().StringVar(&search, "search", "", "full text search term")
	cmd.Flags().StringVar(&sortBy, "sort-by", "", "sort expression, e.g. position:asc")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "filter by tag (repeatable)")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", constants.DefaultPerPage, "results per page")
	cmd.Flags().BoolVar(&all, "all", false, "fetch all pages")

	return cmd
}

func newStoriesGetCommand() *cobra.Command {
	var (
		id               int64
		uuid             string
		resolveRelations []string
	)

	cmd := &cobra.Command{
		Use:   "get [FULL_SLUG]",
		Short: "Get a story",
		Long:  "Display a story by full slug, id or uuid",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && id == 0 && uuid == "" {
				return ErrSlugRequired
			}

			client, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}

			params := versionParams(cmd).WithResolveRelations(resolveRelations...)

			var resp *storyblok.StoryResponse

			switch {
			case id != 0:
				resp, err = client.Stories().GetByID(cmd.Context(), id, params)
			case uuid != "":
				resp, err = client.Stories().GetByUUID(cmd.Context(), uuid, params)
			default:
				resp, err = client.Stories().Get(cmd.Context(), args[0], params)
			}

			if err != nil {
				return fmt.Errorf("failed to get story: %w", err)
			}

			story := resp.Story

			return printOutput(cmd, resp, propertyTable([][]string{
				{"ID", strconv.FormatInt(story.ID, 10)},
				{"UUID", story.UUID},
				{"Name", story.Name},
				{"Full Slug", story.FullSlug},
				{"Component", orNotAvailable(story.Content.Component())},
				{"Language", orNotAvailable(story.Lang)},
				{"Startpage", formatBool(story.IsStartpage)},
				{"Tags", orNotAvailable(strings.Join(story.TagList, ", "))},
				{"Created", formatTime(story.CreatedAt)},
				{"Published", formatTime(story.PublishedAt)},
				{"Cache Version", strconv.FormatInt(resp.CV, 10)},
			}))
		},
	}

	addContentFlags(cmd)
	cmd.Flags().Int64Var(&id, "id", 0, "story id")
	cmd.Flags().StringVar(&uuid, "uuid", "", "story uuid")
	cmd.Flags().StringSliceVar(&resolveRelations, "resolve-relations", nil, "component.field relations to resolve")

	return cmd
}

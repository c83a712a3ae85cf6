package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"nextcloud-notes/pkg/notesapi"
)

var errUsage = errors.New("invalid usage")

// run выполняет команду CLI args[0] через api и печатает результат в out
func run(ctx context.Context, api notesapi.API, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "version":
		version, err := api.APIVersion(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, version)
		return err
	case "list":
		return runList(ctx, api, rest, out)
	case "get":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		note, err := api.GetNote(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(out, note)
	case "create":
		return runCreate(ctx, api, rest, out)
	case "update":
		return runUpdate(ctx, api, rest, out)
	case "delete":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		if err := api.DeleteNote(ctx, id); err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "deleted note %d\n", id)
		return err
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

// runList печатает все заметки; с -watch опрашивает сервер и печатает список только при изменениях
func runList(ctx context.Context, api notesapi.API, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	watch := fs.Duration("watch", 0, "poll interval")
	count := fs.Int("count", 0, "number of polls with -watch (0 - until interrupted)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	var previous []notesapi.Note
	for i := 0; ; i++ {
		list, err := api.ListNotes(ctx)
		if err != nil {
			return err
		}
		notes, err := list.Notes()
		if err != nil {
			return err
		}

		if i == 0 || !slices.Equal(previous, notes) {
			if err := printJSON(out, notes); err != nil {
				return err
			}
		}
		previous = notes

		if *watch <= 0 || (*count > 0 && i+1 >= *count) {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(*watch):
		}
	}
}

func runCreate(ctx context.Context, api notesapi.API, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	title := fs.String("title", "", "note title")
	content := fs.String("content", "", "note content")
	category := fs.String("category", "", "note category")
	favorite := fs.Bool("favorite", false, "mark as favorite")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	note := notesapi.NewNote(*title, *content,
		notesapi.WithCategory(*category),
		notesapi.WithFavorite(*favorite),
	)
	created, err := api.CreateNote(ctx, note)
	if err != nil {
		return err
	}
	return printJSON(out, created)
}

// runUpdate читает заметку, применяет только явно переданные флаги и сохраняет ее
func runUpdate(ctx context.Context, api notesapi.API, args []string, out io.Writer) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	title := fs.String("title", "", "note title")
	content := fs.String("content", "", "note content")
	category := fs.String("category", "", "note category")
	favorite := fs.Bool("favorite", false, "mark as favorite")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	note, err := api.GetNote(ctx, id)
	if err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			note.Title = *title
		case "content":
			note.Content = *content
		case "category":
			note.Category = *category
		case "favorite":
			note.Favorite = *favorite
		}
	})

	updated, err := api.UpdateNote(ctx, note)
	if err != nil {
		return err
	}
	return printJSON(out, updated)
}

func parseID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: note id required", errUsage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid note id %q", errUsage, args[0])
	}
	return id, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

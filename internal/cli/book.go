package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mesh-intelligence/stacks/pkg/types"
)

// bookFlags collects the editable book fields.
type bookFlags struct {
	title  string
	author string
	isbn   string
	year   int
	genre  string
	copies int
}

func (f *bookFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.title, "title", "", "book title")
	fs.StringVar(&f.author, "author", "", "book author")
	fs.StringVar(&f.isbn, "isbn", "", "10-digit ISBN")
	fs.IntVar(&f.year, "year", 0, "publication year")
	fs.StringVar(&f.genre, "genre", "", "genre")
	fs.IntVar(&f.copies, "copies", 0, "total physical copies")
}

// apply copies the flags the user set onto b.
func (f *bookFlags) apply(fs *pflag.FlagSet, b *types.Book) {
	if fs.Changed("title") {
		b.Title = f.title
	}
	if fs.Changed("author") {
		b.Author = f.author
	}
	if fs.Changed("isbn") {
		b.ISBN = f.isbn
	}
	if fs.Changed("year") {
		b.Year = f.year
	}
	if fs.Changed("genre") {
		b.Genre = f.genre
	}
	if fs.Changed("copies") {
		b.TotalCopies = f.copies
	}
}

func newBookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Manage the catalog",
	}
	cmd.AddCommand(newBookListCmd(a))
	cmd.AddCommand(newBookSearchCmd(a))
	cmd.AddCommand(newBookAvailableCmd(a))
	cmd.AddCommand(newBookShowCmd(a))
	cmd.AddCommand(newBookAddCmd(a))
	cmd.AddCommand(newBookUpdateCmd(a))
	cmd.AddCommand(newBookDeleteCmd(a))
	return cmd
}

func newBookListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all books sorted by genre",
		Args:  wrapArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			books := a.lib.Books()
			return a.emit(cmd, books, func(w io.Writer) error { return writeBooks(w, books) })
		},
	}
}

func newBookSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search books by title, author, genre or ISBN",
		Args:  wrapArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			books := a.lib.SearchBooks(args[0])
			return a.emit(cmd, books, func(w io.Writer) error { return writeBooks(w, books) })
		},
	}
}

func newBookAvailableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "available",
		Short: "List books with at least one free copy",
		Args:  wrapArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			books := a.lib.AvailableBooks()
			return a.emit(cmd, books, func(w io.Writer) error { return writeBooks(w, books) })
		},
	}
}

func newBookShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one book",
		Args:  wrapArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := a.lib.Book(args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd, book, func(w io.Writer) error { return writeBook(w, book) })
		},
	}
}

func newBookAddCmd(a *app) *cobra.Command {
	var f bookFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the catalog",
		Args:  wrapArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLibrarian(); err != nil {
				return err
			}
			var book types.Book
			f.apply(cmd.Flags(), &book)
			added, _, err := a.lib.AddBook(book)
			if err != nil {
				return err
			}
			return a.emit(cmd, added, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Added book %s (%s)\n", added.ID, added.Title)
				return err
			})
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func newBookUpdateCmd(a *app) *cobra.Command {
	var f bookFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a book's fields",
		Long:  "Update a book. Only the flags given are changed; on-hold counts are kept.",
		Args:  wrapArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLibrarian(); err != nil {
				return err
			}
			book, err := a.lib.Book(args[0])
			if err != nil {
				return err
			}
			f.apply(cmd.Flags(), &book)
			updated, _, err := a.lib.UpdateBook(book)
			if err != nil {
				return err
			}
			return a.emit(cmd, updated, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Updated book %s (%s)\n", updated.ID, updated.Title)
				return err
			})
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func newBookDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a book from the catalog",
		Args:  wrapArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLibrarian(); err != nil {
				return err
			}
			if _, err := a.lib.DeleteBook(args[0]); err != nil {
				return err
			}
			return a.emit(cmd, map[string]string{"deleted": args[0]}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Deleted book %s\n", args[0])
				return err
			})
		},
	}
}

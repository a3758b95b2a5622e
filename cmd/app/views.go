package main

import (
	"errors"
	"fmt"

	"reelrate/proj/internal/clients/backend"
	"reelrate/proj/internal/domain/models"
	"reelrate/proj/internal/lib/validator"
	"reelrate/proj/internal/services/catalog"
	"reelrate/proj/internal/services/reviews"
	"reelrate/proj/internal/session"

	"github.com/fatih/color"
)

func (app *Application) renderWelcome() {
	color.New(color.Bold).Fprintf(app.out, "Movie Reviews v%s\n", version)
	app.renderHealth()
	if user := app.services.Auth.CurrentUser(); user != nil {
		fmt.Fprintf(app.out, "Signed in as %s. Type 'help' for commands.\n", color.GreenString(user.Username))
		return
	}
	fmt.Fprintln(app.out, "Browse anonymously with 'list', or 'login' / 'register' to add movies and reviews.")
}

func (app *Application) renderHelp() {
	fmt.Fprintln(app.out, `Commands:
  list [title]                   show movies (optional title search)
  reviews <movie-id>             show a movie's reviews
  login | register | logout      manage your session
  add                            add a movie (login required)
  edit <movie-id>                edit a movie you added
  rm <movie-id>                  delete a movie you added
  review <movie-id> <1-5> [txt]  post a review
  editrev <movie-id> <review-id> edit your review
  rmrev <movie-id> <review-id>   delete your review
  cancel                         abandon a review edit
  health | help | quit`)
}

func (app *Application) renderHealth() {
	switch app.health.Load() {
	case healthOK:
		fmt.Fprintf(app.out, "Backend: %s\n", color.GreenString("Healthy"))
	case healthDown:
		fmt.Fprintf(app.out, "Backend: %s\n", color.RedString("Unavailable"))
	default:
		fmt.Fprintln(app.out, "Backend: Checking...")
	}
}

func (app *Application) renderInfo(format string, args ...any) {
	fmt.Fprintf(app.out, format+"\n", args...)
}

// renderError is the single place failures reach the user: server text
// verbatim when present, a generic fallback otherwise, never fatal.
func (app *Application) renderError(err error) {
	var reqErr *backend.RequestError
	var fieldErrs validator.FieldErrors
	switch {
	case errors.Is(err, session.ErrNoToken):
		fmt.Fprintln(app.out, color.YellowString("You must be logged in to do that."))
	case errors.Is(err, catalog.ErrMovieNotLoaded):
		fmt.Fprintln(app.out, color.YellowString("Unknown movie id — run 'list' first."))
	case errors.As(err, &fieldErrs):
		for field, msg := range fieldErrs {
			fmt.Fprintln(app.out, color.YellowString("%s: %s", field, msg))
		}
	case errors.As(err, &reqErr):
		fmt.Fprintln(app.out, color.RedString(reqErr.Error()))
	case errors.Is(err, backend.ErrUnavailable):
		fmt.Fprintln(app.out, color.RedString("Backend unreachable. Is it running?"))
	default:
		app.log.Error(err.Error())
		fmt.Fprintln(app.out, color.RedString("Something went wrong. Please try again later."))
	}
}

func (app *Application) renderMovies(movies []models.Movie) {
	if len(movies) == 0 {
		fmt.Fprintln(app.out, "No movies yet.")
		return
	}
	user := app.services.Auth.CurrentUser()
	for _, m := range movies {
		title := m.Title
		if m.Year != 0 {
			title = fmt.Sprintf("%s (%d)", m.Title, m.Year)
		}
		rating := "No rating"
		if m.Rating != nil {
			rating = fmt.Sprintf("%s ⭐ (%d reviews)", m.Rating.String(), m.RatingCount)
		}
		line := fmt.Sprintf("%-6s %s — %s", m.ID, color.New(color.Bold).Sprint(title), rating)
		// edit/delete controls exist only for the movie's creator
		if m.OwnedBy(user) {
			line += color.GreenString("  [yours: edit/rm]")
		}
		fmt.Fprintln(app.out, line)
		if m.Genre != "" || m.Description != "" {
			fmt.Fprintf(app.out, "       %s — %s\n", m.Genre, m.Description)
		}
	}
}

func (app *Application) renderThread(movieID string, thread *reviews.Thread) {
	if thread.Avg != nil {
		fmt.Fprintf(app.out, "Average: %s ⭐ (%d reviews)\n", thread.Avg.String(), thread.Count)
	}
	if len(thread.Reviews) == 0 {
		fmt.Fprintln(app.out, "No reviews yet.")
		return
	}
	user := app.services.Auth.CurrentUser()
	for _, r := range thread.Reviews {
		line := fmt.Sprintf("%-6s %s — %d ⭐", r.ID, color.New(color.Bold).Sprint(r.Author.Username), r.Rating)
		if r.OwnedBy(user) {
			line += color.GreenString("  [yours: editrev/rmrev]")
		}
		fmt.Fprintln(app.out, line)
		fmt.Fprintf(app.out, "       %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04"))
		if r.Comment != "" {
			fmt.Fprintf(app.out, "       %s\n", r.Comment)
		}
	}
	if editingID, ok := app.services.Reviews.Editing(); ok {
		fmt.Fprintf(app.out, "Editing review %s — submit with 'review %s <rating> [comment]' or 'cancel'.\n", editingID, movieID)
	}
}

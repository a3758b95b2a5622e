package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"reelrate/proj/internal/domain/filters"
	"reelrate/proj/internal/services/catalog"
)

func listParams(title string) filters.ListParams {
	return filters.ListParams{Title: title}
}

// run is the cooperative event loop: one command in, one render out. It
// returns when the user quits.
func (app *Application) run() {
	ctx := context.Background()
	app.bootstrap(ctx)
	app.startHealthPolling()
	defer close(app.done)

	app.renderWelcome()
	for {
		fmt.Fprint(app.out, "> ")
		if !app.in.Scan() {
			return
		}
		line := strings.TrimSpace(app.in.Text())
		if line == "" {
			continue
		}
		args := strings.Fields(line)
		switch args[0] {
		case "help":
			app.renderHelp()
		case "health":
			app.checkHealth(ctx)
			app.renderHealth()
		case "login":
			app.cmdLogin(ctx)
		case "register":
			app.cmdRegister(ctx)
		case "logout":
			app.cmdLogout()
		case "list":
			app.cmdList(ctx, strings.Join(args[1:], " "))
		case "add":
			app.cmdAddMovie(ctx)
		case "edit":
			app.cmdEditMovie(ctx, args[1:])
		case "rm":
			app.cmdDeleteMovie(ctx, args[1:])
		case "reviews":
			app.cmdReviews(ctx, args[1:])
		case "review":
			app.cmdSubmitReview(ctx, args[1:])
		case "editrev":
			app.cmdEditReview(ctx, args[1:])
		case "cancel":
			app.services.Reviews.CancelEdit()
			app.renderInfo("Edit cancelled.")
		case "rmrev":
			app.cmdDeleteReview(ctx, args[1:])
		case "quit", "exit":
			return
		default:
			app.renderInfo("Unknown command %q, try 'help'.", args[0])
		}
	}
}

func (app *Application) readLine(prompt string) string {
	fmt.Fprint(app.out, prompt)
	if !app.in.Scan() {
		return ""
	}
	return strings.TrimSpace(app.in.Text())
}

// confirm gates destructive actions; declining means no request is sent.
func (app *Application) confirm(prompt string) bool {
	answer := app.readLine(prompt + " [y/N] ")
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}

func (app *Application) cmdLogin(ctx context.Context) {
	username := app.readLine("Username: ")
	password := app.readLine("Password: ")
	user, err := app.services.Auth.Login(ctx, username, password)
	if err != nil {
		app.renderError(err)
		return
	}
	app.renderInfo("Signed in as %s.", user.Username)
	if _, err := app.services.Catalog.Refresh(ctx, listParams("")); err != nil {
		app.renderError(err)
	}
}

func (app *Application) cmdRegister(ctx context.Context) {
	username := app.readLine("Username: ")
	password := app.readLine("Password: ")
	if err := app.services.Auth.Register(ctx, username, password); err != nil {
		app.renderError(err)
		return
	}
	app.renderInfo("Registered — now log in.")
}

func (app *Application) cmdLogout() {
	if err := app.services.Auth.Logout(); err != nil {
		app.renderError(err)
		return
	}
	app.services.Reviews.Reset()
	app.renderInfo("Logged out.")
}

func (app *Application) cmdList(ctx context.Context, title string) {
	movies, err := app.services.Catalog.Refresh(ctx, listParams(title))
	if err != nil {
		app.renderError(err)
		return
	}
	app.renderMovies(movies)
}

func (app *Application) cmdAddMovie(ctx context.Context) {
	form := catalog.MovieForm{Title: app.readLine("Title (required): ")}
	if year, ok := app.readYear(""); ok {
		form.Year = year
	} else {
		return
	}
	form.Genre = app.readLine("Genre: ")
	form.Description = app.readLine("Description: ")
	if err := app.services.Catalog.Add(ctx, form); err != nil {
		app.renderError(err)
		return
	}
	app.renderInfo("Movie added.")
	app.renderMovies(app.services.Catalog.Movies())
}

func (app *Application) cmdEditMovie(ctx context.Context, args []string) {
	if len(args) != 1 {
		app.renderInfo("Usage: edit <movie-id>")
		return
	}
	movie, err := app.services.Catalog.Movie(args[0])
	if err != nil {
		app.renderError(err)
		return
	}
	form := catalog.MovieForm{
		Title:       movie.Title,
		Year:        movie.Year,
		Genre:       movie.Genre,
		Description: movie.Description,
	}
	if v := app.readLine(fmt.Sprintf("Title [%s]: ", movie.Title)); v != "" {
		form.Title = v
	}
	if year, ok := app.readYear(fmt.Sprintf(" [%d]", movie.Year)); ok {
		if year != 0 {
			form.Year = year
		}
	} else {
		return
	}
	if v := app.readLine(fmt.Sprintf("Genre [%s]: ", movie.Genre)); v != "" {
		form.Genre = v
	}
	if v := app.readLine(fmt.Sprintf("Description [%s]: ", movie.Description)); v != "" {
		form.Description = v
	}
	if err := app.services.Catalog.Update(ctx, movie.ID, form); err != nil {
		app.renderError(err)
		return
	}
	app.renderInfo("Movie updated.")
	app.renderMovies(app.services.Catalog.Movies())
}

func (app *Application) readYear(suffix string) (int32, bool) {
	raw := app.readLine("Year" + suffix + ": ")
	if raw == "" {
		return 0, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		app.renderInfo("Year must be a number.")
		return 0, false
	}
	return int32(year), true
}

func (app *Application) cmdDeleteMovie(ctx context.Context, args []string) {
	if len(args) != 1 {
		app.renderInfo("Usage: rm <movie-id>")
		return
	}
	if !app.confirm("Delete this movie?") {
		return
	}
	if err := app.services.Catalog.Delete(ctx, args[0]); err != nil {
		app.renderError(err)
		return
	}
	app.renderInfo("Movie deleted.")
	app.renderMovies(app.services.Catalog.Movies())
}

func (app *Application) cmdReviews(ctx context.Context, args []string) {
	if len(args) != 1 {
		app.renderInfo("Usage: reviews <movie-id>")
		return
	}
	thread, err := app.services.Reviews.Load(ctx, args[0])
	if err != nil {
		app.renderError(err)
		return
	}
	app.renderThread(args[0], thread)
}

func (app *Application) cmdSubmitReview(ctx context.Context, args []string) {
	if len(args) < 2 {
		app.renderInfo("Usage: review <movie-id> <rating 1-5> [comment]")
		return
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		app.renderInfo("Rating must be a number between 1 and 5.")
		return
	}
	comment := strings.Join(args[2:], " ")
	if err := app.services.Reviews.Submit(ctx, args[0], rating, comment); err != nil {
		app.renderError(err)
		return
	}
	app.renderInfo("Review saved.")
	if thread, ok := app.services.Reviews.Thread(args[0]); ok {
		app.renderThread(args[0], thread)
	}
}

func (app *Application) cmdEditReview(ctx context.Context, args []string) {
	if len(args) != 2 {
		app.renderInfo("Usage: editrev <movie-id> <review-id>")
		return
	}
	movieID, reviewID := args[0], args[1]
	thread, ok := app.services.Reviews.Thread(movieID)
	if !ok {
		app.renderInfo("Load the reviews first: reviews %s", movieID)
		return
	}
	for _, review := range thread.Reviews {
		if review.ID != reviewID {
			continue
		}
		app.services.Reviews.BeginEdit(review)
		form := app.services.Reviews.Form()
		rating := form.Rating
		if raw := app.readLine(fmt.Sprintf("Rating [%d]: ", form.Rating)); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				app.renderInfo("Rating must be a number between 1 and 5.")
				app.services.Reviews.CancelEdit()
				return
			}
			rating = parsed
		}
		comment := form.Comment
		if raw := app.readLine(fmt.Sprintf("Comment [%s]: ", form.Comment)); raw != "" {
			comment = raw
		}
		if err := app.services.Reviews.Submit(ctx, movieID, rating, comment); err != nil {
			app.renderError(err)
			return
		}
		app.renderInfo("Review updated.")
		return
	}
	app.renderInfo("No review %s in that thread.", reviewID)
}

func (app *Application) cmdDeleteReview(ctx context.Context, args []string) {
	if len(args) != 2 {
		app.renderInfo("Usage: rmrev <movie-id> <review-id>")
		return
	}
	if !app.confirm("Delete your review?") {
		return
	}
	if err := app.services.Reviews.Delete(ctx, args[1], args[0]); err != nil {
		app.renderError(err)
		return
	}
	app.renderInfo("Review deleted.")
	if thread, ok := app.services.Reviews.Thread(args[0]); ok {
		app.renderThread(args[0], thread)
	}
}

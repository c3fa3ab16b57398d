package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/ramonehamilton/PTCG-Companion/internal/charts"
	"github.com/ramonehamilton/PTCG-Companion/internal/collection"
	"github.com/ramonehamilton/PTCG-Companion/internal/companion"
	"github.com/ramonehamilton/PTCG-Companion/internal/display"
	"github.com/ramonehamilton/PTCG-Companion/internal/export"
)

// Terminal seams, replaced in tests.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// env is what every command runs against.
type env struct {
	ctx context.Context
	app *companion.App
	in  *bufio.Reader
	out io.Writer

	// fd is the input's file descriptor, -1 when it has none
	fd int
}

type command struct {
	name    string
	summary string
	run     func(e *env, args []string) error
}

var commandList = []command{
	{"login", "Log in (-email, -password; prompts when omitted)", cmdLogin},
	{"logout", "Log out", cmdLogout},
	{"register", "Create an account (-name, -email, -password)", cmdRegister},
	{"whoami", "Show the current session", cmdWhoami},
	{"profile", "Show your profile", cmdProfile},
	{"avatar", "Select avatar <index>", cmdAvatar},
	{"sets", "List card sets", cmdSets},
	{"set", "List cards of <set-id> [filter]", cmdSet},
	{"search", "Search cards by <name>", cmdSearch},
	{"card", "Show <card-id> with its market price", cmdCard},
	{"collection", "List your collection", cmdCollection},
	{"add", "Add <card-id> to your collection", cmdAdd},
	{"remove", "Remove collection <entry-id>", cmdRemove},
	{"value", "Show your collection value", cmdValue},
	{"series", "Show cards per series", cmdSeries},
	{"spend", "Show money spent per day (-cumulative)", cmdSpend},
	{"charts", "Render charts to HTML (-out dir, -open)", cmdCharts},
	{"export", "Export your collection (-format csv|json, -out file, -force)", cmdExport},
}

// run dispatches args[0] to its command.
func run(ctx context.Context, app *companion.App, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("no command given")
	}

	e := &env{ctx: ctx, app: app, in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(interface{ Fd() uintptr }); ok {
		e.fd = int(f.Fd())
	}
	for _, c := range commandList {
		if c.name == args[0] {
			return c.run(e, args[1:])
		}
	}
	return fmt.Errorf("unknown command %q", args[0])
}

// prompt reads one line from stdin when value is empty.
func (e *env) prompt(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(e.out, "%s: ", label)
	line, err := e.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo when the input is a
// terminal, and falls back to a plain line otherwise.
func (e *env) promptPassword(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	if e.fd < 0 || !isTerminal(e.fd) {
		return e.prompt(label, "")
	}

	fmt.Fprintf(e.out, "%s: ", label)
	password, err := readPassword(e.fd)
	fmt.Fprintln(e.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(password)), nil
}

func cmdLogin(e *env, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *email, err = e.prompt("Email", *email); err != nil {
		return err
	}
	if *password, err = e.promptPassword("Password", *password); err != nil {
		return err
	}

	state, err := e.app.Session.Login(e.ctx, *email, *password)
	if err != nil {
		return err
	}
	return display.Session(e.out, state)
}

func cmdLogout(e *env, _ []string) error {
	e.app.Session.Logout(e.ctx)
	_, err := fmt.Fprintln(e.out, "Logged out.")
	return err
}

func cmdRegister(e *env, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *name, err = e.prompt("Name", *name); err != nil {
		return err
	}
	if *email, err = e.prompt("Email", *email); err != nil {
		return err
	}
	if *password, err = e.promptPassword("Password", *password); err != nil {
		return err
	}
	confirm := *password
	if !hasFlag(fs, "password") {
		if confirm, err = e.promptPassword("Confirm password", ""); err != nil {
			return err
		}
	}

	message, err := e.app.Session.Register(e.ctx, companion.RegisterInput{
		Name:            *name,
		Email:           *email,
		Password:        *password,
		ConfirmPassword: confirm,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.out, message)
	return err
}

func hasFlag(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func cmdWhoami(e *env, _ []string) error {
	return display.Session(e.out, e.app.Session.State())
}

func cmdProfile(e *env, _ []string) error {
	profile, err := e.app.Collection.Profile(e.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s <%s>\n", profile.User.Name, profile.User.Email)
	if profile.MemberSince != "" {
		fmt.Fprintf(e.out, "Member since %s\n", profile.MemberSince)
	}
	_, err = fmt.Fprintf(e.out, "Avatar %d\n", profile.Avatar)
	return err
}

func cmdAvatar(e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: avatar <index>")
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid avatar index %q", args[0])
	}
	state, err := e.app.Session.SetAvatar(e.ctx, index)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.out, "Avatar set to %d.\n", state.Avatar)
	return err
}

func cmdSets(e *env, _ []string) error {
	sets, err := e.app.CatalogUI.ListSets(e.ctx)
	if err != nil {
		return err
	}
	return display.Sets(e.out, sets)
}

// collectedIDs is empty when logged out.
func (e *env) collectedIDs() collection.IDSet {
	if !e.app.Sessions.IsAuthenticated() {
		return nil
	}
	snap, err := e.app.Collection.Snapshot(e.ctx)
	if err != nil {
		return nil
	}
	return collection.CollectedIDs(collection.Entries(snap.Entries))
}

func cmdSet(e *env, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: set <set-id> [filter]")
	}
	filter := ""
	if len(args) == 2 {
		filter = args[1]
	}
	cards, err := e.app.CatalogUI.SetCards(e.ctx, args[0], filter)
	if err != nil {
		return err
	}
	return display.Cards(e.out, cards, e.collectedIDs())
}

func cmdSearch(e *env, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: search <name>")
	}
	cards, err := e.app.CatalogUI.SearchCards(e.ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	return display.Cards(e.out, cards, e.collectedIDs())
}

func cmdCard(e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: card <card-id>")
	}
	detail, err := e.app.CatalogUI.CardDetail(e.ctx, args[0])
	if err != nil {
		return err
	}

	c := detail.Card
	fmt.Fprintf(e.out, "%s (%s)\n", c.Name, c.ID)
	fmt.Fprintf(e.out, "Set: %s, %s series\n", c.Set.Name, c.Set.Series)
	if c.Rarity != "" {
		fmt.Fprintf(e.out, "Rarity: %s\n", c.Rarity)
	}
	if detail.MarketPrice != nil {
		fmt.Fprintf(e.out, "Market price: $%.2f\n", *detail.MarketPrice)
	} else {
		fmt.Fprintln(e.out, "Market price: unavailable")
	}
	_, err = fmt.Fprintf(e.out, "Image: %s\n", c.Images.Large)
	return err
}

func cmdCollection(e *env, _ []string) error {
	snap, err := e.app.Collection.Refresh(e.ctx)
	if err != nil {
		return err
	}
	return display.Collection(e.out, snap)
}

func cmdAdd(e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: add <card-id>")
	}
	entry, err := e.app.Collection.Add(e.ctx, args[0])
	if err != nil {
		return err
	}
	name := entry.CardID
	if entry.Card != nil {
		name = entry.Card.Name
	}
	_, err = fmt.Fprintf(e.out, "Added %s (entry %d).\n", name, entry.ID)
	return err
}

func cmdRemove(e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: remove <entry-id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid entry id %q", args[0])
	}
	if err := e.app.Collection.Remove(e.ctx, id); err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.out, "Removed entry %d.\n", id)
	return err
}

func cmdValue(e *env, _ []string) error {
	value, err := e.app.Collection.Value(e.ctx)
	if err != nil {
		return err
	}
	return display.Value(e.out, value)
}

func cmdSeries(e *env, _ []string) error {
	series, err := e.app.Collection.Series(e.ctx)
	if err != nil {
		return err
	}
	return display.Series(e.out, series)
}

func cmdSpend(e *env, args []string) error {
	fs := flag.NewFlagSet("spend", flag.ContinueOnError)
	cumulative := fs.Bool("cumulative", false, "Show the running total")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mode := companion.SpendDaily
	if *cumulative {
		mode = companion.SpendCumulative
	}
	days, err := e.app.Collection.Spend(e.ctx, mode)
	if err != nil {
		return err
	}
	return display.Spend(e.out, days)
}

func cmdCharts(e *env, args []string) error {
	fs := flag.NewFlagSet("charts", flag.ContinueOnError)
	outDir := fs.String("out", ".", "Output directory")
	cumulative := fs.Bool("cumulative", false, "Plot the running total")
	open := fs.Bool("open", false, "Open the charts in a browser")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mode := companion.SpendDaily
	if *cumulative {
		mode = companion.SpendCumulative
	}

	files := map[string]func(io.Writer) error{
		"series.html": func(w io.Writer) error { return e.app.Collection.RenderSeriesChart(e.ctx, w) },
		"spend.html":  func(w io.Writer) error { return e.app.Collection.RenderSpendChart(e.ctx, w, mode) },
	}
	for _, name := range []string{"series.html", "spend.html"} {
		path := filepath.Join(*outDir, name)
		if err := charts.RenderToFile(path, files[name]); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "Wrote %s\n", path)
		if *open {
			if err := charts.OpenInBrowser(path); err != nil {
				fmt.Fprintf(e.out, "Could not open browser: %v\n", err)
			}
		}
	}
	return nil
}

func cmdExport(e *env, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	format := fs.String("format", "csv", "Export format (csv or json)")
	outPath := fs.String("out", "", "Output file (default: stdout)")
	force := fs.Bool("force", false, "Overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *outPath == "" {
		_, err := e.app.Collection.Export(e.ctx, e.out, *format)
		return err
	}

	parsed, err := export.ParseFormat(*format)
	if err != nil {
		return err
	}
	snap, err := e.app.Collection.Snapshot(e.ctx)
	if err != nil {
		return err
	}
	if err := export.WriteFile(*outPath, parsed, export.Rows(snap.Entries), *force); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Exported %d entries to %s\n", len(snap.Entries), *outPath)
	return nil
}

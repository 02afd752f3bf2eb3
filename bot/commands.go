package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/d4n3436/fergun/core/database"
	"github.com/d4n3436/fergun/core/interactive"
	"github.com/d4n3436/fergun/core/logger"
	"github.com/d4n3436/fergun/core/telegram/callbacks"
	tg "github.com/d4n3436/fergun/core/telegram"
	tghelpers "github.com/d4n3436/fergun/core/telegram/helpers"
	"github.com/d4n3436/fergun/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

const (
	helpPerPage  = 5
	statsPerPage = 10

	maxChoices    = 10
	chooseTimeout = 60 * time.Second

	blacklistUndoKey = "bl_undo"
)

var (
	errTooFewChoices   = errors.New("give at least two options separated by |")
	errTooManyChoices  = fmt.Errorf("at most %d options are supported", maxChoices)
	errBlacklistUsage  = errors.New("usage: /blacklist add <user id> [reason] | remove <user id> | list")
	errSessionsOffline = errors.New("interactive sessions are not running")
)

func (a *App) registerCommands() error {
	var errs []error
	add := func(name string, cmd tg.Command) {
		errs = append(errs, a.commands.RegisterCommand(name, cmd))
	}
	add("/help", tg.Command{
		Handler:     a.handleHelp,
		Description: "List available commands",
		Aliases:     []string{"commands"},
	})
	add("/choose", tg.Command{
		Handler:     a.handleChoose,
		Description: "Pick one of several options: /choose a | b | c",
	})
	add("/ask", tg.Command{
		Handler:     a.handleAsk,
		Description: "Answer by typing one of the options: /ask a | b | c",
	})
	add("/stats", tg.Command{
		Handler:     a.handleStats,
		Description: "Show command usage",
	})
	add("/blacklist", tg.Command{
		Handler:     a.handleBlacklist,
		Description: "Manage blacklisted users",
		AdminOnly:   true,
	})
	errs = append(errs, a.commands.RegisterCallback(blacklistUndoKey, a.handleBlacklistUndo))
	return errors.Join(errs...)
}

func reply(text string) tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, text)
	}
}

// invocation describes where a command was issued.
func invocation(c tele.Context) interactive.InvocationContext {
	var ic interactive.InvocationContext
	if chat := c.Chat(); chat != nil {
		ic.ChannelID = chat.ID
		if chat.Type != tele.ChatPrivate {
			ic.GuildID = chat.ID
		}
	}
	if u := c.Sender(); u != nil {
		ic.UserID = u.ID
	}
	return ic
}

func payload(c tele.Context) string {
	if m := c.Message(); m != nil {
		return strings.TrimSpace(m.Payload)
	}
	return ""
}

// paginatorInput maps the configured input onto buttons or reactions.
func (a *App) paginatorInput() interactive.InputType {
	if in := a.interactiveInput(); in == interactive.InputReactions {
		return in
	}
	return interactive.InputButtons
}

// paginate displays pages to the invoking user with the configured input.
func (a *App) paginate(c tele.Context, pages interactive.PageSource) error {
	sessions := a.sessions.Load()
	if sessions == nil {
		return errSessionsOffline
	}
	ic := invocation(c)
	opts := interactive.PaginatorOptions{
		Pages:           pages,
		Users:           []int64{ic.UserID},
		Input:           a.paginatorInput(),
		ActionOnCancel:  interactive.ActionDeleteMessage,
		ActionOnTimeout: interactive.ActionDeleteInput,
		JumpPrompt:      "Reply with a page number.",
	}
	if opts.Input == interactive.InputReactions {
		opts.Affordances = paginatorAffordances()
		opts.InfoText = paginatorReactionHelp
	}
	p, err := interactive.NewPaginator(opts)
	if err != nil {
		return err
	}
	ctx := tghelpers.BuildContext(c)
	ref, err := sessions.Display(ctx, ic, p)
	if err != nil {
		return err
	}
	logger.Debug(ctx, "app", "paginator.displayed",
		slog.String("message", ref.String()),
		slog.Int("pages", p.MaxPageIndex()+1),
	)
	return nil
}

func (a *App) handleHelp(c tele.Context) error {
	pages := helpPages(a.commands.ListCommands(true), helpPerPage)
	if len(pages) == 0 {
		return tghelpers.SendText(c, "No commands available.")
	}
	return a.paginate(c, interactive.StaticPages(pages...))
}

// helpPages renders the command list, perPage commands per page.
func helpPages(list []tele.Command, perPage int) []interactive.Page {
	if perPage <= 0 {
		perPage = helpPerPage
	}
	var pages []interactive.Page
	for i := 0; i < len(list); i += perPage {
		end := min(i+perPage, len(list))
		var b strings.Builder
		b.WriteString("Commands\n")
		for _, cmd := range list[i:end] {
			fmt.Fprintf(&b, "\n%s - %s", cmd.Text, cmd.Description)
		}
		pages = append(pages, interactive.Page{Text: b.String()})
	}
	return pages
}

// parseChoices splits "a | b | c" into distinct, non-empty options.
func parseChoices(s string) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	for _, part := range strings.Split(s, "|") {
		opt := strings.TrimSpace(part)
		if opt == "" {
			continue
		}
		key := strings.ToLower(opt)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, opt)
	}
	switch {
	case len(out) < 2:
		return nil, errTooFewChoices
	case len(out) > maxChoices:
		return nil, errTooManyChoices
	}
	return out, nil
}

// choiceSelection builds the selection shared by /choose and /ask.
func choiceSelection(choices []string, userID int64, input interactive.InputType, prompt string) (*interactive.Selection[string], error) {
	emotes := make(map[string]string, len(choices))
	for i, ch := range choices {
		emotes[ch] = candidateEmote(i)
	}
	return interactive.NewSelection(interactive.SelectionOptions[string]{
		Candidates:  choices,
		Stringify:   func(s string) string { return s },
		Equal:       strings.EqualFold,
		Emote:       func(s string) string { return emotes[s] },
		Prompt:      interactive.Page{Text: prompt},
		Users:       []int64{userID},
		AllowCancel: true,
		CancelEmote: cancelEmote,
		Input:       input,
		Timeout:     chooseTimeout,
		SuccessPage: func(s string) interactive.Page {
			return interactive.Page{Text: "You chose: " + s}
		},
		CanceledPage:    &interactive.Page{Text: "Selection canceled."},
		TimeoutPage:     &interactive.Page{Text: "Selection timed out."},
		ActionOnSuccess: interactive.ActionModifyMessage | interactive.ActionDeleteInput,
		ActionOnCancel:  interactive.ActionModifyMessage | interactive.ActionDeleteInput,
		ActionOnTimeout: interactive.ActionModifyMessage | interactive.ActionDeleteInput,
	})
}

// choose displays a selection over the command payload and blocks until it
// resolves.
func (a *App) choose(c tele.Context, input interactive.InputType, prompt string) (interactive.Result[string], bool, error) {
	choices, err := parseChoices(payload(c))
	if err != nil {
		return interactive.Result[string]{}, false, tghelpers.SendText(c, err.Error())
	}
	sessions := a.sessions.Load()
	if sessions == nil {
		return interactive.Result[string]{}, false, errSessionsOffline
	}
	ic := invocation(c)
	sel, err := choiceSelection(choices, ic.UserID, input, prompt)
	if err != nil {
		return interactive.Result[string]{}, false, err
	}
	ctx := tghelpers.BuildContext(c)
	ref, err := sessions.Display(ctx, ic, sel)
	if err != nil {
		return interactive.Result[string]{}, false, err
	}
	res, err := sel.Wait(ctx)
	if err != nil {
		return interactive.Result[string]{}, false, err
	}
	logger.Info(ctx, "app", "selection.resolved",
		slog.String("message", ref.String()),
		slog.String("status", res.Status.String()),
		slog.Int("candidates", len(choices)),
	)
	return res, true, nil
}

func (a *App) handleChoose(c tele.Context) error {
	_, _, err := a.choose(c, a.paginatorInput(), "Pick one:")
	return err
}

func (a *App) handleAsk(c tele.Context) error {
	choices, _ := parseChoices(payload(c))
	prompt := "Type one of: " + strings.Join(choices, ", ")
	res, ok, err := a.choose(c, interactive.InputMessages, prompt)
	if err != nil || !ok {
		return err
	}
	if !res.IsSuccess() {
		return nil
	}
	return tghelpers.SendText(c, "Noted: "+res.Value)
}

func (a *App) handleStats(c tele.Context) error {
	if a.usage == nil {
		return tghelpers.SendText(c, "Usage statistics are unavailable without a database.")
	}
	rows, err := a.usage.Top(tghelpers.BuildContext(c), 0)
	if err != nil {
		return fmt.Errorf("bot: load usage: %w", err)
	}
	if len(rows) == 0 {
		return tghelpers.SendText(c, "No commands used yet.")
	}
	return a.paginate(c, statsPages(rows, statsPerPage))
}

// statsPages renders usage rows lazily, perPage rows per page.
func statsPages(rows []database.CommandUsage, perPage int) interactive.PageSource {
	if perPage <= 0 {
		perPage = statsPerPage
	}
	maxIndex := (len(rows) - 1) / perPage
	return interactive.LazyPages(maxIndex, func(_ context.Context, index int) (interactive.Page, bool, error) {
		start := index * perPage
		if index < 0 || start >= len(rows) {
			return interactive.Page{}, false, nil
		}
		end := min(start+perPage, len(rows))
		var b strings.Builder
		b.WriteString("Command usage\n")
		for i, r := range rows[start:end] {
			fmt.Fprintf(&b, "\n%d. %s - %d", start+i+1, r.Command, r.Uses)
		}
		return interactive.Page{Text: b.String()}, true, nil
	})
}

type blacklistOp struct {
	action string
	userID int64
	reason string
}

// parseBlacklist parses "add <id> [reason]", "remove <id>" or "list".
func parseBlacklist(s string) (blacklistOp, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return blacklistOp{}, errBlacklistUsage
	}
	op := blacklistOp{action: strings.ToLower(fields[0])}
	switch op.action {
	case "list":
		return op, nil
	case "add", "remove":
	default:
		return blacklistOp{}, errBlacklistUsage
	}
	if len(fields) < 2 {
		return blacklistOp{}, errBlacklistUsage
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || id == 0 {
		return blacklistOp{}, errBlacklistUsage
	}
	op.userID = id
	if op.action == "add" {
		op.reason = strings.Join(fields[2:], " ")
	}
	return op, nil
}

func (a *App) handleBlacklist(c tele.Context) error {
	if a.blacklist == nil {
		return tghelpers.SendText(c, "The blacklist is unavailable without a database.")
	}
	op, err := parseBlacklist(payload(c))
	if err != nil {
		return tghelpers.SendText(c, err.Error())
	}
	ctx := tghelpers.BuildContext(c)

	switch op.action {
	case "list":
		entries, err := a.blacklist.List(ctx)
		if err != nil {
			return fmt.Errorf("bot: list blacklist: %w", err)
		}
		return tghelpers.SendText(c, formatBlacklist(entries))
	case "add":
		if op.userID == a.cfg.Telegram.AdminID {
			return tghelpers.SendText(c, "The bot owner cannot be blacklisted.")
		}
		if err := a.blacklist.Add(ctx, op.userID, op.reason); err != nil {
			return fmt.Errorf("bot: blacklist add: %w", err)
		}
		logger.Info(ctx, "app", "blacklist.added", slog.Int64("target_id", op.userID))
		markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{{
			Text:   "Undo",
			Unique: blacklistUndoKey,
			Data:   strconv.FormatInt(op.userID, 10),
		}})
		return tghelpers.SendMarkup(c, fmt.Sprintf("User %d blacklisted.", op.userID), markup)
	default:
		removed, err := a.blacklist.Remove(ctx, op.userID)
		if err != nil {
			return fmt.Errorf("bot: blacklist remove: %w", err)
		}
		if !removed {
			return tghelpers.SendText(c, fmt.Sprintf("User %d is not blacklisted.", op.userID))
		}
		logger.Info(ctx, "app", "blacklist.removed", slog.Int64("target_id", op.userID))
		return tghelpers.SendText(c, fmt.Sprintf("User %d removed from the blacklist.", op.userID))
	}
}

func (a *App) handleBlacklistUndo(c tele.Context) error {
	if a.blacklist == nil {
		return nil
	}
	if u := c.Sender(); u == nil || u.ID != a.cfg.Telegram.AdminID {
		return nil
	}
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return fmt.Errorf("bot: undo payload: %w", err)
	}
	ctx := tghelpers.BuildContext(c)
	if _, err := a.blacklist.Remove(ctx, id); err != nil {
		return fmt.Errorf("bot: blacklist undo: %w", err)
	}
	logger.Info(ctx, "app", "blacklist.undone", slog.Int64("target_id", id))
	return c.Edit(fmt.Sprintf("User %d blacklist undone.", id))
}

func formatBlacklist(entries []database.BlacklistEntry) string {
	if len(entries) == 0 {
		return "The blacklist is empty."
	}
	var b strings.Builder
	b.WriteString("Blacklisted users\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "\n%d", e.UserID)
		if e.Reason != "" {
			fmt.Fprintf(&b, " - %s", e.Reason)
		}
	}
	return b.String()
}

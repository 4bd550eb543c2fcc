package bot

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-planner/internal/model"
	"task-planner/internal/service"
)

const (
	btnSkip          = "⏭️ Skip"
	btnConfirm       = "✅ Confirm"
	btnCancel        = "↩️ Cancel"
	btnCancelDialog  = "⏪ Stop input"
	btnNoRepeat      = "🚫 No repeat"
	noList           = "No list"
	iconDefault      = "🟢"
	iconToday        = "📌"
	iconDue          = "⏳"
	iconOverdue      = "⚠️"
	iconRecurring    = "♻️"
	menuLabelNewTask = "➕ New task"
	menuLabelTasks   = "📋 Tasks"
	menuLabelLists   = "📂 Lists"
	menuLabelHelp    = "ℹ️ Help"
	maxNextCount     = 20
)

var errMissingTaskID = errors.New("missing task id")

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelLists),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func listKeyboard(lists []model.List) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, l := range lists {
		row = append(row, tgbotapi.NewKeyboardButton(l.Name))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnSkip),
		tgbotapi.NewKeyboardButton(btnCancelDialog),
	))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func recurrenceKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("daily"),
			tgbotapi.NewKeyboardButton("weekday"),
			tgbotapi.NewKeyboardButton("weekly"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("monthly"),
			tgbotapi.NewKeyboardButton("yearly"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnNoRepeat),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isNoRepeatInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return isSkipInput(value) || value == strings.ToLower(btnNoRepeat) || value == "no" || value == "none" || value == "off"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "confirm" || value == "yes"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancel" || value == "no"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "stop input"
}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func listLabel(name string) string {
	base := strings.TrimSpace(name)
	if base == "" {
		base = noList
	}
	var icon string
	switch strings.ToLower(base) {
	case "work":
		icon = "💼"
	case "study", "school":
		icon = "🎓"
	case "shopping", "groceries":
		icon = "🛒"
	case "health":
		icon = "🩺"
	case "home", "personal":
		icon = "🧩"
	case strings.ToLower(noList):
		icon = "📁"
	default:
		icon = "🏷️"
	}
	return fmt.Sprintf("%s %s", icon, escape(normalizeTitle(base)))
}

func formatLabels(task model.Task) string {
	names := task.LabelNames()
	if len(names) == 0 {
		return ""
	}
	tags := make([]string, 0, len(names))
	for _, n := range names {
		tags = append(tags, "#"+escape(n))
	}
	return " " + strings.Join(tags, " ")
}

func formatTask(task model.Task, now time.Time) string {
	var b strings.Builder
	icon := iconDefault
	if task.Date != nil {
		d := task.Date.In(now.Location())
		switch days := calendarDays(now, d); {
		case days < 0:
			icon = iconOverdue
		case days == 0:
			icon = iconToday
		case days <= 2:
			icon = iconDue
		}
	}
	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s%s\n", icon, task.ID, escape(normalizeTitle(task.Title)), formatLabels(task)))
	if task.Date != nil {
		d := task.Date.In(now.Location())
		switch days := calendarDays(now, d); {
		case days < 0:
			b.WriteString(fmt.Sprintf("   ⏰ %s · <b>overdue</b>\n", d.Format("2006-01-02")))
		case days == 0:
			b.WriteString(fmt.Sprintf("   ⏰ %s · today\n", d.Format("2006-01-02")))
		default:
			b.WriteString(fmt.Sprintf("   ⏰ %s · in %d d.\n", d.Format("2006-01-02"), days))
		}
	}
	if task.Notes != "" {
		b.WriteString(fmt.Sprintf("   📝 %s\n", escape(task.Notes)))
	}
	b.WriteByte('\n')
	return b.String()
}

func formatRecurringTask(task model.Task, view service.RecurrenceView, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s%s\n", iconRecurring, task.ID, escape(normalizeTitle(task.Title)), formatLabels(task)))
	b.WriteString(fmt.Sprintf("   🔁 %s\n", escape(view.Summary)))
	if task.Date != nil {
		b.WriteString(fmt.Sprintf("   📆 Current: %s\n", task.Date.In(now.Location()).Format("2006-01-02")))
	}
	switch {
	case !view.Active:
		b.WriteString("   🏁 Ended\n")
	case view.Next == nil:
		b.WriteString("   🏁 Last date in the series\n")
	default:
		b.WriteString(fmt.Sprintf("   ➡️ Then: %s\n", view.Next.In(now.Location()).Format("2006-01-02")))
	}
	if task.CompletedAt != nil {
		b.WriteString(fmt.Sprintf("   ✅ Last done: %s\n", task.CompletedAt.In(now.Location()).Format("2006-01-02")))
	} else {
		b.WriteString("   ✅ Not done yet\n")
	}
	b.WriteByte('\n')
	return b.String()
}

func formatHours(d time.Duration) string {
	hours := int(d / time.Hour)
	if hours == 1 {
		return "1 hour"
	}
	if hours > 0 && d%time.Hour == 0 {
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}

// calendarDays counts whole days from now to d, both taken at midnight in
// now's location.
func calendarDays(now, d time.Time) int {
	loc := now.Location()
	a := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	d = d.In(loc)
	b := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return int(b.Sub(a).Round(24*time.Hour) / (24 * time.Hour))
}

func parseTaskID(data, prefix string) (uint, error) {
	raw := strings.TrimPrefix(data, prefix)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

func parseTaskArg(args string) (uint, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(args), "#")
	if raw == "" {
		return 0, errMissingTaskID
	}
	id, err := parseTaskID(raw, "")
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, errMissingTaskID
	}
	return id, nil
}

// parseNextArgs reads "<id> [count]". Count defaults to defaultNextCount and
// is capped at maxNextCount.
func parseNextArgs(args string) (uint, int, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 || len(fields) > 2 {
		return 0, 0, errMissingTaskID
	}
	id, err := parseTaskArg(fields[0])
	if err != nil {
		return 0, 0, err
	}
	count := defaultNextCount
	if len(fields) == 2 {
		count, err = strconv.Atoi(fields[1])
		if err != nil || count <= 0 {
			return 0, 0, fmt.Errorf("invalid count %q", fields[1])
		}
	}
	if count > maxNextCount {
		count = maxNextCount
	}
	return id, count, nil
}

// parseSearchQuery splits free text from filter tokens: list:NAME,
// label:NAME or #NAME, and the flags recurring, active and done.
func parseSearchQuery(args string) service.Query {
	var q service.Query
	var words []string
	for _, token := range strings.Fields(args) {
		lower := strings.ToLower(token)
		switch {
		case strings.HasPrefix(lower, "list:") && len(token) > len("list:"):
			q.List = token[len("list:"):]
		case strings.HasPrefix(lower, "label:") && len(token) > len("label:"):
			q.Label = token[len("label:"):]
		case strings.HasPrefix(token, "#") && len(token) > 1:
			q.Label = token[1:]
		case lower == "recurring":
			q.RecurringOnly = true
		case lower == "active":
			q.ActiveOnly = true
		case lower == "done":
			q.IncludeCompleted = true
		default:
			words = append(words, token)
		}
	}
	q.Text = strings.Join(words, " ")
	return q
}

// parseLabels accepts labels separated by commas or spaces, with or
// without a leading #.
func parseLabels(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	seen := make(map[string]struct{}, len(fields))
	var out []string
	for _, f := range fields {
		name := strings.TrimLeft(strings.TrimSpace(f), "#")
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

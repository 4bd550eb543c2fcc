package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-planner/internal/model"
	"task-planner/internal/recurrence"
	"task-planner/internal/repository"
	"task-planner/internal/service"
	"task-planner/internal/timeparse"
)

const defaultNextCount = 5

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf(
		"👋 Hi, %s!\n<b>I keep track of your tasks, one-off and recurring.</b>\n\n"+
			"• /newtask to add a task\n"+
			"• /tasks to see what is open\n"+
			"• /help for everything else",
		escape(name),
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"• /newtask: add a task step by step\n" +
		"• /tasks: open tasks grouped by list, with buttons\n" +
		"• /complete &lt;id&gt;: mark done; recurring tasks move to their next date\n" +
		"• /delete &lt;id&gt;: remove a task for good\n" +
		"• /repeat &lt;id&gt; &lt;pattern|off&gt;: change how a task repeats\n" +
		"• /next &lt;id&gt; [n]: upcoming dates of a recurring task\n" +
		"• /remind &lt;id&gt; &lt;when&gt;: e.g. /remind 3 tomorrow 9am\n" +
		"• /search &lt;text&gt;: filters: list:name #label recurring active\n" +
		"• /lists, /labels: what you have used so far\n" +
		"• /tz &lt;Area/City&gt;: your time zone\n" +
		"• /interval &lt;hours&gt;: how often the report arrives\n" +
		"• /report: send the report now\n" +
		"• /cancel: stop the current dialog\n\n" +
		"Patterns: <code>daily</code>, <code>weekly</code>, <code>weekday</code>, <code>monthly</code>, <code>yearly</code>, " +
		"or JSON such as <code>{\"type\":\"weekly\",\"daysOfWeek\":[1,3]}</code>."
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.reminderSvc.DailySummary(ctx, user, time.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not build the report: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	log.Printf("[info] list tasks for user=%d", user.ID)
	return b.sendTaskList(ctx, msg.Chat.ID, user)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User) error {
	tasks, err := b.taskSvc.ListOpen(ctx, user)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load tasks: %s", escape(err.Error())))
	}

	groups := groupByList(tasks)
	if len(groups) == 0 {
		return b.sendText(chatID, "Nothing open. Add a task with /newtask.")
	}

	now := time.Now().In(b.taskSvc.Location(user))
	var builder strings.Builder
	builder.WriteString("📋 <b>Open tasks</b>\n")
	builder.WriteString("Tap a button to complete or delete a task.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, group := range groups {
		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", listLabel(group.name)))
		for _, task := range group.tasks {
			var row []tgbotapi.InlineKeyboardButton
			if view, ok := b.taskSvc.Describe(user, task, now); ok {
				builder.WriteString(formatRecurringTask(task, view, now))
				row = append(row,
					tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 16)), fmt.Sprintf("%s%d", cbCompletePrefix, task.ID)),
					tgbotapi.NewInlineKeyboardButtonData("📅 Next", fmt.Sprintf("%s%d", cbNextPrefix, task.ID)),
				)
			} else {
				builder.WriteString(formatTask(task, now))
				row = append(row,
					tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 20)), fmt.Sprintf("%s%d", cbCompletePrefix, task.ID)),
				)
			}
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)))
			buttons = append(buttons, row)
		}
		builder.WriteByte('\n')
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleComplete(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, err := parseTaskArg(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give me a task id: /complete 12")
	}
	return b.completeTaskAndRefresh(ctx, msg.Chat.ID, msg.From, taskID)
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, err := parseTaskArg(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give me a task id: /delete 12")
	}
	return b.askDeleteConfirmation(ctx, msg.Chat.ID, msg.From, taskID)
}

func (b *Bot) handleLists(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	lists, err := b.listSvc.List(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not load lists: %s", escape(err.Error())))
	}
	if len(lists) == 0 {
		return b.sendText(msg.Chat.ID, "No lists yet. Name one while creating a task.")
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Lists</b>\n")
	for _, list := range lists {
		builder.WriteString(fmt.Sprintf("• %s\n", listLabel(list.Name)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleLabels(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	labels, err := b.labelSvc.List(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not load labels: %s", escape(err.Error())))
	}
	if len(labels) == 0 {
		return b.sendText(msg.Chat.ID, "No labels yet.")
	}
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, "#"+escape(l.Name))
	}
	return b.sendText(msg.Chat.ID, "🏷 <b>Labels</b>\n"+strings.Join(names, " "))
}

func (b *Bot) handleSearch(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "What should I look for? /search milk, /search #home, /search recurring active")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	now := time.Now()
	results, err := b.searchSvc.Search(ctx, user, parseSearchQuery(args), now)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Search failed: %s", escape(err.Error())))
	}
	if len(results) == 0 {
		return b.sendText(msg.Chat.ID, "🔍 Nothing found.")
	}

	local := now.In(b.taskSvc.Location(user))
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🔍 <b>Found %d</b>\n\n", len(results)))
	for _, r := range results {
		if view, ok := b.taskSvc.Describe(user, r.Task, local); ok {
			builder.WriteString(formatRecurringTask(r.Task, view, local))
		} else {
			builder.WriteString(formatTask(r.Task, local))
		}
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleNext(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, count, err := parseNextArgs(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Usage: /next &lt;id&gt; [count], e.g. /next 4 10")
	}
	return b.sendNextDates(ctx, msg.Chat.ID, msg.From, taskID, count)
}

func (b *Bot) sendNextDates(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint, count int) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendText(chatID, userError(err))
	}
	pattern, ok := task.Pattern()
	if !ok || task.Date == nil {
		return b.sendText(chatID, fmt.Sprintf("«%s» does not repeat.", escape(normalizeTitle(task.Title))))
	}

	loc := b.taskSvc.Location(user)
	anchor := task.Date.In(loc)
	dates := recurrence.Occurrences(pattern, anchor, count)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📅 <b>%s</b>\n🔁 %s\n", escape(normalizeTitle(task.Title)), escape(recurrence.Summarize(pattern))))
	builder.WriteString(fmt.Sprintf("• %s (current)\n", anchor.Format("Mon 2006-01-02")))
	for _, d := range dates {
		builder.WriteString(fmt.Sprintf("• %s\n", d.Format("Mon 2006-01-02")))
	}
	if len(dates) < count {
		builder.WriteString("🏁 The series ends here.")
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleRepeat(ctx context.Context, msg *tgbotapi.Message) error {
	fields := strings.SplitN(strings.TrimSpace(msg.CommandArguments()), " ", 2)
	if len(fields) != 2 {
		return b.sendText(msg.Chat.ID, "Usage: /repeat &lt;id&gt; &lt;pattern|off&gt;, e.g. /repeat 4 weekday")
	}
	taskID, err := parseTaskArg(fields[0])
	if err != nil {
		return b.sendText(msg.Chat.ID, "The task id must be a number.")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	raw := strings.TrimSpace(fields[1])
	var task *model.Task
	if strings.EqualFold(raw, "off") {
		task, err = b.taskSvc.ClearRecurrence(ctx, user, taskID)
	} else {
		task, err = b.taskSvc.UpdatePattern(ctx, user, taskID, raw)
	}
	if err != nil {
		return b.sendText(msg.Chat.ID, userError(err))
	}

	view, ok := b.taskSvc.Describe(user, *task, time.Now())
	if !ok {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("«%s» no longer repeats.", escape(normalizeTitle(task.Title))))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🔁 «%s»: %s", escape(normalizeTitle(task.Title)), escape(view.Summary)))
}

func (b *Bot) handleRemind(ctx context.Context, msg *tgbotapi.Message) error {
	fields := strings.SplitN(strings.TrimSpace(msg.CommandArguments()), " ", 2)
	if len(fields) != 2 {
		return b.sendText(msg.Chat.ID, "Usage: /remind &lt;id&gt; &lt;when&gt;, e.g. /remind 4 2025-03-01 18:30")
	}
	taskID, err := parseTaskArg(fields[0])
	if err != nil {
		return b.sendText(msg.Chat.ID, "The task id must be a number.")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	loc := b.taskSvc.Location(user)
	now := time.Now()
	at, err := timeparse.ParseDateTime(fields[1], now, loc)
	if err != nil {
		return b.sendText(msg.Chat.ID, "I could not read that time. Try <code>2025-03-01 18:30</code> or <code>tomorrow 9am</code>.")
	}
	if !at.After(now) {
		return b.sendText(msg.Chat.ID, "That time has already passed.")
	}
	if _, err := b.taskSvc.AddReminder(ctx, user, taskID, at); err != nil {
		return b.sendText(msg.Chat.ID, userError(err))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🔔 I will remind you on %s.", at.In(loc).Format("Mon 2006-01-02 15:04")))
}

func (b *Bot) handleTimezone(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Your time zone is %s. Change it with /tz Europe/Berlin", escape(b.taskSvc.Location(user).String())))
	}
	if _, err := timeparse.LoadLocation(name); err != nil {
		return b.sendText(msg.Chat.ID, "Unknown time zone. Use a name such as <code>Europe/Berlin</code>.")
	}
	if err := b.userRepo.SetTimezone(ctx, user, name); err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🌍 Time zone set to %s.", escape(name)))
}

func (b *Bot) handleInterval(msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		b.mu.Lock()
		current := b.config.ReportInterval
		b.mu.Unlock()
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Reports arrive every %s. Change it with /interval 4", formatHours(current)))
	}
	hours, err := strconv.Atoi(args)
	if err != nil || hours <= 0 {
		return b.sendText(msg.Chat.ID, "The interval must be a positive number of hours, e.g. /interval 6")
	}
	interval := time.Duration(hours) * time.Hour

	b.mu.Lock()
	b.config.ReportInterval = interval
	scheduler, jobID := b.scheduler, b.reportJob
	b.mu.Unlock()

	if scheduler != nil {
		newID, err := scheduler.Reschedule(jobID, interval, b.reportJobFunc())
		if err != nil {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not reschedule: %s", escape(err.Error())))
		}
		b.mu.Lock()
		b.reportJob = newID
		b.mu.Unlock()
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Reports will arrive every %s.", formatHours(interval)))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	b.ack(cb)

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		taskID, err := parseTaskID(data, cbCompletePrefix)
		if err != nil {
			return nil
		}
		log.Printf("[info] callback complete user=%d task=%d", cb.From.ID, taskID)
		return b.askCompleteConfirmation(ctx, cb.Message.Chat.ID, cb.From, taskID)
	case strings.HasPrefix(data, cbDeletePrefix):
		taskID, err := parseTaskID(data, cbDeletePrefix)
		if err != nil {
			return nil
		}
		log.Printf("[info] callback delete user=%d task=%d", cb.From.ID, taskID)
		return b.askDeleteConfirmation(ctx, cb.Message.Chat.ID, cb.From, taskID)
	case strings.HasPrefix(data, cbNextPrefix):
		taskID, err := parseTaskID(data, cbNextPrefix)
		if err != nil {
			return nil
		}
		return b.sendNextDates(ctx, cb.Message.Chat.ID, cb.From, taskID, defaultNextCount)
	default:
		return nil
	}
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		if req.action == actionDelete {
			return b.deleteTaskAndRefresh(ctx, msg.Chat.ID, msg.From, req.taskID)
		}
		return b.completeTaskAndRefresh(ctx, msg.Chat.ID, msg.From, req.taskID)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		prompt := "Confirm or cancel completing the task."
		if req.action == actionDelete {
			prompt = "Confirm or cancel deleting the task."
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, confirmKeyboard())
	}
}

func (b *Bot) askCompleteConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendText(chatID, userError(err))
	}
	if task.IsCompleted && !task.IsRecurring {
		return b.sendText(chatID, "This task is already done.")
	}

	text := fmt.Sprintf("Mark «%s» (#%d) as done?", escape(normalizeTitle(task.Title)), task.ID)
	if view, ok := b.taskSvc.Describe(user, *task, time.Now()); ok {
		if view.Next != nil {
			text += fmt.Sprintf("\nIt will move to %s.", view.Next.Format("Mon 2006-01-02"))
		} else {
			text += "\nThe series has no further dates, so it will be closed."
		}
	}
	b.setConfirmation(from.ID, confirmationRequest{taskID: task.ID, action: actionComplete})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendText(chatID, userError(err))
	}

	text := fmt.Sprintf("Delete «%s» (#%d)?", escape(normalizeTitle(task.Title)), task.ID)
	if task.IsRecurring {
		text += "\nAll future dates go with it."
	}
	b.setConfirmation(from.ID, confirmationRequest{taskID: task.ID, action: actionDelete})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) completeTaskAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	current, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendTextWithRemove(chatID, userError(err))
	}
	if current.IsCompleted && !current.IsRecurring {
		return b.sendTextWithRemove(chatID, "This task was already done.")
	}

	task, err := b.taskSvc.CompleteTask(ctx, user, taskID, time.Now())
	if err != nil {
		return b.sendTextWithRemove(chatID, userError(err))
	}

	var info string
	switch {
	case task.IsRecurring && !task.IsCompleted && task.Date != nil:
		info = fmt.Sprintf("♻️ «%s» done. Next time: %s.", escape(normalizeTitle(task.Title)),
			task.Date.In(b.taskSvc.Location(user)).Format("Mon 2006-01-02"))
	case task.IsRecurring:
		info = fmt.Sprintf("🏁 «%s» done. The series is over.", escape(normalizeTitle(task.Title)))
	default:
		info = fmt.Sprintf("✅ «%s» done.", escape(normalizeTitle(task.Title)))
	}
	log.Printf("[info] task completed id=%d user=%d recurring=%t", task.ID, user.ID, task.IsRecurring)
	if err := b.sendTextWithRemove(chatID, info); err != nil {
		return err
	}

	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) deleteTaskAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendTextWithRemove(chatID, userError(err))
	}
	if err := b.taskSvc.DeleteTask(ctx, user, taskID); err != nil {
		return b.sendTextWithRemove(chatID, userError(err))
	}

	log.Printf("[info] task deleted id=%d user=%d", task.ID, user.ID)
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("🗑 «%s» deleted.", escape(normalizeTitle(task.Title)))); err != nil {
		return err
	}

	return b.sendTaskList(ctx, chatID, user)
}

type listGroup struct {
	name  string
	tasks []model.Task
}

// groupByList splits open tasks by list name. Named lists come first in
// alphabetical order; tasks without a list close the output.
func groupByList(tasks []model.Task) []listGroup {
	index := make(map[string]int)
	var groups []listGroup
	for _, task := range tasks {
		if task.IsCompleted && !task.IsRecurring {
			continue
		}
		name := ""
		if task.List != nil {
			name = strings.TrimSpace(task.List.Name)
		}
		key := strings.ToLower(name)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, listGroup{name: name})
		}
		groups[i].tasks = append(groups[i].tasks, task)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		switch {
		case groups[i].name == "":
			return false
		case groups[j].name == "":
			return true
		}
		return strings.ToLower(groups[i].name) < strings.ToLower(groups[j].name)
	})
	for _, g := range groups {
		sort.SliceStable(g.tasks, func(i, j int) bool {
			a, b := g.tasks[i], g.tasks[j]
			switch {
			case a.Date != nil && b.Date != nil && !a.Date.Equal(*b.Date):
				return a.Date.Before(*b.Date)
			case a.Date != nil && b.Date == nil:
				return true
			case a.Date == nil && b.Date != nil:
				return false
			}
			return a.ID < b.ID
		})
	}
	return groups
}

// userError turns service errors into a short HTML-safe message.
func userError(err error) string {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return "Task not found."
	case errors.Is(err, service.ErrInvalidPattern),
		errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrDateRequired),
		errors.Is(err, service.ErrInvalidPriority):
		return "⚠️ " + escape(err.Error())
	default:
		log.Printf("[warn] bot: %v", err)
		return "Something went wrong, please try again."
	}
}

package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-planner/internal/model"
	"task-planner/internal/recurrence"
	"task-planner/internal/service"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
	return &t
}

func TestParseSearchQuery(t *testing.T) {
	q := parseSearchQuery("buy list:Home #errands milk recurring active done")
	assert.Equal(t, "buy milk", q.Text)
	assert.Equal(t, "Home", q.List)
	assert.Equal(t, "errands", q.Label)
	assert.True(t, q.RecurringOnly)
	assert.True(t, q.ActiveOnly)
	assert.True(t, q.IncludeCompleted)

	q = parseSearchQuery("label:work list: #")
	assert.Equal(t, "work", q.Label)
	assert.Equal(t, "list: #", q.Text)
	assert.Empty(t, q.List)
}

func TestParseLabels(t *testing.T) {
	assert.Equal(t, []string{"home", "urgent", "Later"}, parseLabels("#home, urgent  #HOME,, Later"))
	assert.Empty(t, parseLabels(" , # "))
}

func TestParseNextArgs(t *testing.T) {
	id, n, err := parseNextArgs("12")
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)
	assert.Equal(t, defaultNextCount, n)

	id, n, err = parseNextArgs("#7 100")
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
	assert.Equal(t, maxNextCount, n)

	for _, bad := range []string{"", "abc", "3 0", "3 x", "1 2 3", "0"} {
		_, _, err := parseNextArgs(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseTaskArg(t *testing.T) {
	id, err := parseTaskArg(" #42 ")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = parseTaskArg("")
	assert.ErrorIs(t, err, errMissingTaskID)
	_, err = parseTaskArg("-1")
	assert.Error(t, err)
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "Buy milk", shortTitle("buy milk", 10))
	assert.Equal(t, "Buy a lot…", shortTitle("buy a lot of milk", 10))
	assert.Equal(t, "Line one line two", shortTitle("line one\nline two", 40))
}

func TestCalendarDaysAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	now := time.Date(2024, 3, 30, 22, 0, 0, 0, loc)
	assert.Equal(t, 1, calendarDays(now, time.Date(2024, 3, 31, 8, 0, 0, 0, loc)))
	assert.Equal(t, 0, calendarDays(now, time.Date(2024, 3, 30, 1, 0, 0, 0, loc)))
	assert.Equal(t, -1, calendarDays(now, time.Date(2024, 3, 29, 23, 0, 0, 0, loc)))
}

func TestFormatTaskIcons(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	overdue := formatTask(model.Task{ID: 1, Title: "pay", Date: date(2024, 1, 14)}, now)
	assert.Contains(t, overdue, iconOverdue+" <b>#1</b> Pay")
	assert.Contains(t, overdue, "<b>overdue</b>")

	today := formatTask(model.Task{ID: 2, Title: "call", Date: date(2024, 1, 15)}, now)
	assert.Contains(t, today, iconToday)
	assert.Contains(t, today, "· today")

	soon := formatTask(model.Task{ID: 3, Title: "read", Date: date(2024, 1, 17), Notes: "a & b"}, now)
	assert.Contains(t, soon, iconDue)
	assert.Contains(t, soon, "in 2 d.")
	assert.Contains(t, soon, "📝 a &amp; b")

	plain := formatTask(model.Task{ID: 4, Title: "x", Labels: []model.Label{{Name: "home"}}}, now)
	assert.Contains(t, plain, iconDefault+" <b>#4</b> X #home")
}

func TestFormatRecurringTask(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	task := model.Task{
		ID:               9,
		Title:            "gym",
		Date:             date(2024, 1, 15),
		IsRecurring:      true,
		RecurringPattern: `{"type":"weekly","interval":1,"daysOfWeek":[1,3]}`,
	}
	view, ok := service.DescribeRecurrence(task, time.UTC, now)
	require.True(t, ok)

	out := formatRecurringTask(task, view, now)
	assert.Contains(t, out, iconRecurring+" <b>#9</b> Gym")
	assert.Contains(t, out, "🔁 Every week on Mon, Wed")
	assert.Contains(t, out, "📆 Current: 2024-01-15")
	assert.Contains(t, out, "➡️ Then: 2024-01-22")
	assert.Contains(t, out, "Not done yet")

	task.RecurringPattern = recurrence.Encode(recurrence.Pattern{Type: recurrence.Daily, Interval: 1, EndDate: "2024-01-10"})
	view, ok = service.DescribeRecurrence(task, time.UTC, now)
	require.True(t, ok)
	assert.Contains(t, formatRecurringTask(task, view, now), "🏁 Ended")
}

func TestGroupByList(t *testing.T) {
	work := &model.List{Name: "Work"}
	home := &model.List{Name: "home"}
	tasks := []model.Task{
		{ID: 1, Title: "a"},
		{ID: 2, Title: "b", List: work, Date: date(2024, 2, 1)},
		{ID: 3, Title: "c", List: home},
		{ID: 4, Title: "d", List: work, Date: date(2024, 1, 1)},
		{ID: 5, Title: "e", List: work, IsCompleted: true},
	}

	groups := groupByList(tasks)
	require.Len(t, groups, 3)
	assert.Equal(t, "home", groups[0].name)
	assert.Equal(t, "Work", groups[1].name)
	assert.Equal(t, "", groups[2].name)

	require.Len(t, groups[1].tasks, 2)
	assert.Equal(t, uint(4), groups[1].tasks[0].ID)
	assert.Equal(t, uint(2), groups[1].tasks[1].ID)
}

func TestInputMatchers(t *testing.T) {
	assert.True(t, isSkipInput(" SKIP "))
	assert.True(t, isSkipInput(btnSkip))
	assert.True(t, isNoRepeatInput(btnNoRepeat))
	assert.True(t, isNoRepeatInput("off"))
	assert.False(t, isNoRepeatInput("daily"))
	assert.True(t, isConfirmInput(btnConfirm))
	assert.True(t, isCancelInput(btnCancel))
	assert.True(t, isCancelDialogInput(btnCancelDialog))
	assert.False(t, isCancelDialogInput(btnCancel))
}

func TestListLabel(t *testing.T) {
	assert.Equal(t, "📁 No list", listLabel(" "))
	assert.Equal(t, "💼 Work", listLabel("work"))
	assert.Equal(t, "🏷️ Side &lt;b&gt;", listLabel("side <b>"))
}

func TestFormatHours(t *testing.T) {
	assert.Equal(t, "1 hour", formatHours(time.Hour))
	assert.Equal(t, "5 hours", formatHours(5*time.Hour))
	assert.Equal(t, "1h30m0s", formatHours(90*time.Minute))
}

package notion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/fyrsmithlabs/secondbrain/internal/category"
)

func TestBuildRecordPropertiesTasks(t *testing.T) {
	props, err := buildRecordProperties(category.Tasks, RecordFields{
		Title:    "Fix the shed door",
		DueDate:  "2026-09-02",
		Priority: 2,
		Notes:    "hinge is rusted",
		Tags:     []string{"home"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Fix the shed door", gjson.GetBytes(props, "Title.title.0.text.content").String())
	assert.Equal(t, "To Do", gjson.GetBytes(props, "Status.select.name").String())
	assert.Equal(t, "2026-09-02", gjson.GetBytes(props, "Due Date.date.start").String())
	assert.Equal(t, int64(2), gjson.GetBytes(props, "Priority.number").Int())
	assert.Equal(t, "hinge is rusted", gjson.GetBytes(props, "Notes.rich_text.0.text.content").String())
	assert.Equal(t, "home", gjson.GetBytes(props, "Tags.multi_select.0.name").String())
}

func TestBuildRecordPropertiesWorkDefaultsProject(t *testing.T) {
	props, err := buildRecordProperties(category.Work, RecordFields{Title: "Draft the proposal"})
	require.NoError(t, err)

	assert.Equal(t, "Draft the proposal", gjson.GetBytes(props, "Title.title.0.text.content").String())
	assert.Equal(t, "Other", gjson.GetBytes(props, "Project.select.name").String())
}

func TestBuildRecordPropertiesPeopleUsesNameProperty(t *testing.T) {
	props, err := buildRecordProperties(category.People, RecordFields{
		Title:      "follow up with Sam",
		PersonName: "Sam",
		FollowUp:   "ask about the contract",
	})
	require.NoError(t, err)

	// People records title on Name, not Title.
	assert.Equal(t, "Sam", gjson.GetBytes(props, "Name.title.0.text.content").String())
	assert.False(t, gjson.GetBytes(props, "Title").Exists())
	assert.Equal(t, "ask about the contract", gjson.GetBytes(props, "Follow-up.rich_text.0.text.content").String())
}

func TestBuildRecordPropertiesAdminDefaultsKind(t *testing.T) {
	props, err := buildRecordProperties(category.Admin, RecordFields{Title: "Pay the gas bill"})
	require.NoError(t, err)
	assert.Equal(t, "Appointments", gjson.GetBytes(props, "Category.select.name").String())

	props, err = buildRecordProperties(category.Admin, RecordFields{Title: "Pay the gas bill", Kind: "Bills"})
	require.NoError(t, err)
	assert.Equal(t, "Bills", gjson.GetBytes(props, "Category.select.name").String())
}

func TestBuildFieldUpdate(t *testing.T) {
	props, err := buildFieldUpdate("status", "Done")
	require.NoError(t, err)
	assert.Equal(t, "Done", gjson.GetBytes(props, "Status.select.name").String())

	props, err = buildFieldUpdate("due_date", "2026-09-05")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-05", gjson.GetBytes(props, "Due Date.date.start").String())

	// The remove sentinel clears the date entirely.
	props, err = buildFieldUpdate("due_date", "remove")
	require.NoError(t, err)
	date := gjson.GetBytes(props, "Due Date.date")
	assert.True(t, date.Exists())
	assert.Equal(t, gjson.Null, date.Type)

	props, err = buildFieldUpdate("priority", "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gjson.GetBytes(props, "Priority.number").Int())

	_, err = buildFieldUpdate("priority", "high")
	assert.Error(t, err)

	_, err = buildFieldUpdate("owner", "me")
	assert.Error(t, err)
}

func TestBuildTagsUpdateReplacesSet(t *testing.T) {
	props, err := buildTagsUpdate([]string{"phone", "errands"})
	require.NoError(t, err)
	tags := gjson.GetBytes(props, "Tags.multi_select.#.name")
	assert.Equal(t, []string{"phone", "errands"}, resultStrings(tags))

	props, err = buildTagsUpdate(nil)
	require.NoError(t, err)
	assert.True(t, gjson.GetBytes(props, "Tags.multi_select").IsArray())
	assert.Zero(t, gjson.GetBytes(props, "Tags.multi_select.#").Int())
}

func TestParseItem(t *testing.T) {
	page := gjson.Parse(`{
		"id": "page-1",
		"properties": {
			"Name": {"title": [{"text": {"content": "Sam"}}]},
			"Follow-up": {"rich_text": [{"text": {"content": "ask about the contract"}}]},
			"Status": {"select": {"name": "To Do"}},
			"Due Date": {"date": {"start": "2026-09-02"}},
			"Priority": {"number": 2},
			"Tags": {"multi_select": [{"name": "phone"}]}
		}
	}`)
	item := parseItem(category.People, page)

	assert.Equal(t, "page-1", item.ID)
	assert.Equal(t, category.People, item.Database)
	assert.Equal(t, "Sam", item.Title)
	assert.Equal(t, "To Do", item.Status)
	assert.Equal(t, "2026-09-02", item.DueDate)
	assert.Equal(t, 2, item.Priority)
	assert.Equal(t, []string{"phone"}, item.Tags)
	assert.Equal(t, "ask about the contract", item.FollowUp)
	assert.Equal(t, "ask about the contract Sam", item.DisplayTitle())
}

func TestParseLogEntry(t *testing.T) {
	page := gjson.Parse(`{
		"id": "log-1",
		"properties": {
			"Original Text": {"title": [{"text": {"content": "pay the gas bill tomorrow"}}]},
			"Destination": {"select": {"name": "admin"}},
			"Confidence": {"number": 0.92},
			"Thread Key": {"rich_text": [{"text": {"content": "1725100000.000100"}}]},
			"Status": {"select": {"name": "Filed"}},
			"Payload": {"rich_text": [{"text": {"content": "page-9"}}]}
		}
	}`)
	entry := parseLogEntry(page)

	assert.Equal(t, "log-1", entry.ID)
	assert.Equal(t, "pay the gas bill tomorrow", entry.OriginalText)
	assert.Equal(t, category.Admin, entry.Category)
	assert.InDelta(t, 0.92, entry.Confidence, 0.0001)
	assert.Equal(t, "1725100000.000100", entry.ThreadKey)
	assert.Equal(t, StatusFiled, entry.Status)
	assert.Equal(t, "page-9", entry.Payload)
}

func resultStrings(r gjson.Result) []string {
	var out []string
	r.ForEach(func(_, v gjson.Result) bool {
		out = append(out, v.String())
		return true
	})
	return out
}

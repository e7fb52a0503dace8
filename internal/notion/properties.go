package notion

import (
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/fyrsmithlabs/secondbrain/internal/category"
)

// Property construction and parsing. Notion's property JSON is deeply
// nested and shape-per-type; everything here goes through sjson/gjson so
// the rest of the package works with flat Go values.

func queryBody(filter []byte, cursor string) ([]byte, error) {
	body := []byte(`{}`)
	var err error
	if filter != nil {
		body, err = sjson.SetRawBytes(body, "filter", filter)
		if err != nil {
			return nil, fmt.Errorf("notion: build query body: %w", err)
		}
	}
	if cursor != "" {
		body, err = sjson.SetBytes(body, "start_cursor", cursor)
		if err != nil {
			return nil, fmt.Errorf("notion: build query body: %w", err)
		}
	}
	return body, nil
}

func createPageBody(databaseID string, properties []byte) ([]byte, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "parent.database_id", databaseID)
	if err == nil {
		body, err = sjson.SetRawBytes(body, "properties", properties)
	}
	if err != nil {
		return nil, fmt.Errorf("notion: build create body: %w", err)
	}
	return body, nil
}

func createPageProperties(properties []byte) ([]byte, error) {
	body, err := sjson.SetRawBytes([]byte(`{}`), "properties", properties)
	if err != nil {
		return nil, fmt.Errorf("notion: build update body: %w", err)
	}
	return body, nil
}

func setTitle(props []byte, prop, content string) ([]byte, error) {
	return sjson.SetBytes(props, prop+".title.-1.text.content", content)
}

func setRichText(props []byte, prop, content string) ([]byte, error) {
	return sjson.SetBytes(props, prop+".rich_text.-1.text.content", content)
}

func setSelect(props []byte, prop, name string) ([]byte, error) {
	return sjson.SetBytes(props, prop+".select.name", name)
}

func setNumber(props []byte, prop string, n float64) ([]byte, error) {
	return sjson.SetBytes(props, prop+".number", n)
}

// buildRecordProperties lays out a new record's properties for its
// destination category. The title property name and the category-specific
// extras come from the schema table.
func buildRecordProperties(cat category.Category, f RecordFields) ([]byte, error) {
	schema := cat.Schema()
	props := []byte(`{}`)
	var err error

	title := f.Title
	if cat == category.People && f.PersonName != "" {
		title = f.PersonName
	}
	if props, err = setTitle(props, schema.TitleProp, title); err != nil {
		return nil, fmt.Errorf("notion: build record properties: %w", err)
	}
	if props, err = setSelect(props, "Status", "To Do"); err != nil {
		return nil, fmt.Errorf("notion: build record properties: %w", err)
	}
	if f.DueDate != "" {
		if props, err = sjson.SetBytes(props, "Due Date.date.start", f.DueDate); err != nil {
			return nil, fmt.Errorf("notion: build record properties: %w", err)
		}
	}
	if f.Priority != 0 {
		if props, err = sjson.SetBytes(props, "Priority.number", f.Priority); err != nil {
			return nil, fmt.Errorf("notion: build record properties: %w", err)
		}
	}
	if f.Notes != "" {
		if props, err = setRichText(props, "Notes", f.Notes); err != nil {
			return nil, fmt.Errorf("notion: build record properties: %w", err)
		}
	}
	for _, tag := range f.Tags {
		if props, err = sjson.SetBytes(props, "Tags.multi_select.-1.name", tag); err != nil {
			return nil, fmt.Errorf("notion: build record properties: %w", err)
		}
	}

	switch cat {
	case category.Work:
		project := f.Project
		if project == "" {
			project = "Other"
		}
		props, err = setSelect(props, "Project", project)
	case category.People:
		props, err = setRichText(props, "Follow-up", f.FollowUp)
	case category.Admin:
		kind := f.Kind
		if kind == "" {
			kind = "Appointments"
		}
		props, err = setSelect(props, "Category", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("notion: build record properties: %w", err)
	}
	return props, nil
}

// buildFieldUpdate translates one field change into a property patch.
// A due_date value of "remove" clears the date.
func buildFieldUpdate(field, value string) ([]byte, error) {
	switch field {
	case "status":
		return setSelect([]byte(`{}`), "Status", value)
	case "due_date":
		if value == "remove" {
			return sjson.SetRawBytes([]byte(`{}`), "Due Date.date", []byte("null"))
		}
		return sjson.SetBytes([]byte(`{}`), "Due Date.date.start", value)
	case "priority":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("notion: priority %q is not a number", value)
		}
		return sjson.SetBytes([]byte(`{}`), "Priority.number", n)
	default:
		return nil, fmt.Errorf("notion: unknown update field %q", field)
	}
}

func buildTagsUpdate(tags []string) ([]byte, error) {
	props := []byte(`{"Tags":{"multi_select":[]}}`)
	var err error
	for _, tag := range tags {
		if props, err = sjson.SetBytes(props, "Tags.multi_select.-1.name", tag); err != nil {
			return nil, fmt.Errorf("notion: build tags update: %w", err)
		}
	}
	return props, nil
}

// parseItem reads a database page into an Item.
func parseItem(cat category.Category, page gjson.Result) Item {
	props := page.Get("properties")
	item := Item{
		ID:       page.Get("id").String(),
		Database: cat,
		Title:    props.Get(cat.Schema().TitleProp + ".title.0.text.content").String(),
		Status:   props.Get("Status.select.name").String(),
		DueDate:  props.Get("Due Date.date.start").String(),
		Priority: int(props.Get("Priority.number").Int()),
		Project:  props.Get("Project.select.name").String(),
		Kind:     props.Get("Category.select.name").String(),
		FollowUp: props.Get("Follow-up.rich_text.0.text.content").String(),
	}
	props.Get("Tags.multi_select").ForEach(func(_, tag gjson.Result) bool {
		item.Tags = append(item.Tags, tag.Get("name").String())
		return true
	})
	return item
}

// DisplayTitle returns the human-facing line for an item. People records
// combine the follow-up action with the person's name.
func (i Item) DisplayTitle() string {
	if i.Database == category.People && i.FollowUp != "" {
		return i.FollowUp + " " + i.Title
	}
	return i.Title
}

// Filters.

func filterNotDone() ([]byte, error) {
	f, err := sjson.SetBytes([]byte(`{}`), "property", "Status")
	if err == nil {
		f, err = sjson.SetBytes(f, "select.does_not_equal", "Done")
	}
	return f, err
}

func filterTitleContains(titleProp, query string) ([]byte, error) {
	f, err := sjson.SetBytes([]byte(`{}`), "property", titleProp)
	if err == nil {
		f, err = sjson.SetBytes(f, "title.contains", query)
	}
	return f, err
}

func filterAnd(filters ...[]byte) ([]byte, error) {
	out := []byte(`{"and":[]}`)
	var err error
	for _, f := range filters {
		if out, err = sjson.SetRawBytes(out, "and.-1", f); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func filterTag(tag string) ([]byte, error) {
	notDone, err := filterNotDone()
	if err != nil {
		return nil, err
	}
	hasTag, err := sjson.SetBytes([]byte(`{}`), "property", "Tags")
	if err == nil {
		hasTag, err = sjson.SetBytes(hasTag, "multi_select.contains", tag)
	}
	if err != nil {
		return nil, err
	}
	return filterAnd(notDone, hasTag)
}

func filterCompletedSince(date string) ([]byte, error) {
	done, err := sjson.SetBytes([]byte(`{}`), "property", "Status")
	if err == nil {
		done, err = sjson.SetBytes(done, "select.equals", "Done")
	}
	if err != nil {
		return nil, err
	}
	edited, err := sjson.SetBytes([]byte(`{}`), "timestamp", "last_edited_time")
	if err == nil {
		edited, err = sjson.SetBytes(edited, "last_edited_time.on_or_after", date)
	}
	if err != nil {
		return nil, err
	}
	return filterAnd(done, edited)
}

func filterThreadKey(key string) ([]byte, error) {
	f, err := sjson.SetBytes([]byte(`{}`), "property", "Thread Key")
	if err == nil {
		f, err = sjson.SetBytes(f, "rich_text.equals", key)
	}
	return f, err
}

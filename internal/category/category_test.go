package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("accepts all category names", func(t *testing.T) {
		for _, want := range All {
			got, err := Parse(string(want))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("case insensitive with whitespace", func(t *testing.T) {
		got, err := Parse("  Work ")
		require.NoError(t, err)
		assert.Equal(t, Work, got)

		got, err = Parse("PEOPLE")
		require.NoError(t, err)
		assert.Equal(t, People, got)
	})

	t.Run("rejects unknown token", func(t *testing.T) {
		_, err := Parse("shopping")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tasks, work, people, admin")
	})
}

func TestValid(t *testing.T) {
	assert.True(t, Tasks.Valid())
	assert.True(t, Admin.Valid())
	assert.False(t, Category("groceries").Valid())
	assert.False(t, Category("").Valid())
}

func TestSchema(t *testing.T) {
	assert.Equal(t, "Title", Tasks.Schema().TitleProp)
	assert.Equal(t, "Name", People.Schema().TitleProp)
	assert.Equal(t, "People to follow up with", People.Schema().Label)
	assert.Equal(t, "admin", Admin.Schema().DatabaseKey)

	assert.Panics(t, func() {
		Category("nope").Schema()
	})
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"tasks", "work", "people", "admin"}, Names())
}

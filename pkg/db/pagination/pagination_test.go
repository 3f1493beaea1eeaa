package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "42", CreatedAt: "2024-01-01T00:00:00Z"})
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "42", cursor.ID)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("!!!")
	assert.ErrorIs(t, err, ErrInvalidPageToken)

	cursor, err := DecodeCursor("")
	assert.NoError(t, err)
	assert.Nil(t, cursor)
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3}
	out, info, err := Page(items, 2, func(v int) Cursor { return Cursor{ID: "x"} })
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, out)
	assert.True(t, info.HasMore)
	assert.NotEmpty(t, info.NextPageToken)

	out, info, err = Page(items, 5, func(v int) Cursor { return Cursor{} })
	require.NoError(t, err)
	assert.Len(t, out, 3)
	assert.False(t, info.HasMore)
}

func TestLimit(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Limit())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 1000}.Limit())
	assert.Equal(t, 7, Pagination{PageSize: 7}.Limit())
}

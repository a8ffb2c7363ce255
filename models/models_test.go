package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"calendar date", "2023-04-01", "2023-04-01", false},
		{"rfc3339 keeps the date", "2023-04-01T23:30:00Z", "2023-04-01", false},
		{"invalid month", "2023-13-01", "", true},
		{"free text", "last tuesday", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestNewDate_TruncatesTime(t *testing.T) {
	d := NewDate(time.Date(2022, 6, 15, 18, 45, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2022, 6, 15, 0, 0, 0, 0, time.UTC), d.Time)
}

func TestBook_JSON(t *testing.T) {
	book := Book{
		ID:       7,
		Title:    "Dune",
		Author:   "Frank Herbert",
		DateRead: NewDate(time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)),
	}

	data, err := json.Marshal(book)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2023-04-01", decoded["date_read"])
	assert.Contains(t, decoded, "isbn")
	assert.Nil(t, decoded["isbn"])
	assert.Nil(t, decoded["year_published"])
	assert.Equal(t, float64(7), decoded["id"])
}

func TestDate_UnmarshalJSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2021-02-03"`), &d))
	assert.Equal(t, "2021-02-03", d.String())

	assert.Error(t, json.Unmarshal([]byte(`20210203`), &d))
	assert.Error(t, json.Unmarshal([]byte(`"03/02/2021"`), &d))
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "books", Book{}.TableName())
	assert.Equal(t, "degrees", Degree{}.TableName())
}

func TestPatchableFields(t *testing.T) {
	assert.ElementsMatch(t, []string{"isbn", "title", "author", "year_published", "date_read"}, BookPatchableFields)
	assert.ElementsMatch(t, []string{"institution", "title", "category", "year_completed", "url", "location"}, DegreePatchableFields)
	assert.NotContains(t, BookPatchableFields, "id")
	assert.NotContains(t, DegreePatchableFields, "id")
}

package estimate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsnap/fieldsnap/internal/field"
)

func TestParseFields_WrapperObject(t *testing.T) {
	data := `{"fields":[
		{"label":"Full name","fieldType":"text","coordinates":{"left":10,"top":20,"width":30,"height":3}},
		{"label":"Agree","fieldType":"checkbox","coordinates":{"left":10,"top":30,"width":2,"height":2}}
	]}`

	fields, err := ParseFields([]byte(data), 3)
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, "Full name", fields[0].Label)
	assert.Equal(t, field.TypeText, fields[0].Type)
	assert.InDelta(t, 10.0, fields[0].Coordinates.Left, 1e-9)
	assert.Equal(t, 3, fields[0].Page)
	assert.Equal(t, field.TypeCheckbox, fields[1].Type)
}

func TestParseFields_BareArray(t *testing.T) {
	data := `[{"label":"City","fieldType":"text","coordinates":{"left":5,"top":5,"width":20,"height":3}}]`

	fields, err := ParseFields([]byte(data), 1)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "City", fields[0].Label)
}

func TestParseFields_CodeFences(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "json_fence",
			data: "```json\n{\"fields\":[{\"label\":\"x\",\"fieldType\":\"text\"}]}\n```",
		},
		{
			name: "plain_fence",
			data: "```\n{\"fields\":[{\"label\":\"x\",\"fieldType\":\"text\"}]}\n```",
		},
		{
			name: "surrounding_whitespace",
			data: "\n  {\"fields\":[{\"label\":\"x\",\"fieldType\":\"text\"}]}  \n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := ParseFields([]byte(tt.data), 1)
			require.NoError(t, err)
			require.Len(t, fields, 1)
			assert.Equal(t, "x", fields[0].Label)
		})
	}
}

func TestParseFields_UnknownTypeMapsToText(t *testing.T) {
	data := `{"fields":[{"label":"pick","fieldType":"dropdown"}]}`

	fields, err := ParseFields([]byte(data), 1)
	require.NoError(t, err)
	assert.Equal(t, field.TypeText, fields[0].Type)
}

func TestParseFields_DateSegments(t *testing.T) {
	data := `{"fields":[{
		"label":"Date of birth","fieldType":"linkedDate",
		"coordinates":{"left":10,"top":50,"width":22,"height":3},
		"dateSegments":[
			{"part":"dd","coordinates":{"left":10,"top":50,"width":5,"height":3}},
			{"part":"MM","coordinates":{"left":17,"top":50,"width":5,"height":3}},
			{"part":"yy","coordinates":{"left":24,"top":50,"width":8,"height":3}}
		]
	}]}`

	fields, err := ParseFields([]byte(data), 1)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	require.Len(t, fields[0].DateSegments, 3)

	assert.Equal(t, field.DatePartDay, fields[0].DateSegments[0].Part)
	assert.Equal(t, field.DatePartMonth, fields[0].DateSegments[1].Part)
	assert.Equal(t, field.DatePartYearShort, fields[0].DateSegments[2].Part)
}

func TestParseFields_UnknownDatePartDefaultsToYear(t *testing.T) {
	data := `{"fields":[{
		"label":"d","fieldType":"linkedDate",
		"dateSegments":[{"part":"century","coordinates":{"left":1,"top":1,"width":1,"height":1}}]
	}]}`

	fields, err := ParseFields([]byte(data), 1)
	require.NoError(t, err)
	assert.Equal(t, field.DatePartYear, fields[0].DateSegments[0].Part)
}

func TestParseFields_TableConfig(t *testing.T) {
	data := `{"fields":[{
		"label":"Expenses","fieldType":"table",
		"coordinates":{"left":10,"top":30,"width":60,"height":20},
		"tableConfig":{
			"columnHeaders":["Date","Amount"],
			"dataRows":4,
			"coordinates":{"left":10,"top":30,"width":60,"height":20}
		}
	}]}`

	fields, err := ParseFields([]byte(data), 1)
	require.NoError(t, err)
	require.NotNil(t, fields[0].TableConfig)
	assert.Equal(t, []string{"Date", "Amount"}, fields[0].TableConfig.ColumnHeaders)
	assert.Equal(t, 4, fields[0].TableConfig.DataRows)
	require.NotNil(t, fields[0].TableConfig.Coordinates)
}

func TestParseFields_TableConfigInheritsFieldBox(t *testing.T) {
	// Table box given only at the field level.
	data := `{"fields":[{
		"label":"Grid","fieldType":"table",
		"coordinates":{"left":10,"top":30,"width":60,"height":20},
		"tableConfig":{"columnHeaders":["a"],"dataRows":2}
	}]}`

	fields, err := ParseFields([]byte(data), 1)
	require.NoError(t, err)
	require.NotNil(t, fields[0].TableConfig.Coordinates)
	assert.InDelta(t, 10.0, fields[0].TableConfig.Coordinates.Left, 1e-9)
	assert.InDelta(t, 60.0, fields[0].TableConfig.Coordinates.Width, 1e-9)
}

func TestParseFields_OptionsAndSegments(t *testing.T) {
	data := `{"fields":[{
		"label":"Plan","fieldType":"circle_choice","groupLabel":"Coverage",
		"options":[
			{"label":"Single","coordinates":{"left":10,"top":40,"width":8,"height":3}},
			{"label":"Family","coordinates":{"left":22,"top":40,"width":8,"height":3}}
		]
	},{
		"label":"Address","fieldType":"linkedText",
		"segments":[
			{"coordinates":{"left":10,"top":50,"width":80,"height":3}},
			{"coordinates":{"left":10,"top":55,"width":60,"height":3}}
		]
	}]}`

	fields, err := ParseFields([]byte(data), 1)
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, field.TypeCircleChoice, fields[0].Type)
	assert.Equal(t, "Coverage", fields[0].GroupLabel)
	require.Len(t, fields[0].Options, 2)
	assert.Equal(t, "Single", fields[0].Options[0].Label)

	assert.Equal(t, field.TypeLinkedText, fields[1].Type)
	assert.Len(t, fields[1].Segments, 2)
}

func TestParseFields_MalformedJSON(t *testing.T) {
	_, err := ParseFields([]byte("this is not json"), 1)
	assert.Error(t, err)
}

func TestParseFields_EmptyFieldList(t *testing.T) {
	fields, err := ParseFields([]byte(`{"fields":[]}`), 1)
	require.NoError(t, err)
	assert.Empty(t, fields)
}

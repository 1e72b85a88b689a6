package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMessage(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	valid := []string{
		`{"type":"set_point","data":{"key":"A","value":-5}}`,
		`{"type":"clear_point","data":{"key":"D"}}`,
		`{"type":"white_win","data":{"key":"C"}}`,
		`{"type":"shorthand","data":{"text":"an 5 binh 3"}}`,
		`{"type":"submit"}`,
		`{"type":"reset"}`,
	}
	for _, raw := range valid {
		assert.NoError(t, v.ValidateMessage([]byte(raw)), raw)
	}

	invalid := []string{
		`not json`,
		`{}`,
		`{"type":"dance"}`,
		`{"type":"set_point"}`,
		`{"type":"set_point","data":{"key":"E","value":1}}`,
		`{"type":"set_point","data":{"key":"A","value":1.5}}`,
		`{"type":"set_point","data":{"key":"A","value":1,"extra":true}}`,
		`{"type":"shorthand","data":{}}`,
		`{"type":"submit","extra":1}`,
	}
	for _, raw := range invalid {
		assert.Error(t, v.ValidateMessage([]byte(raw)), raw)
	}
}

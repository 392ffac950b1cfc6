package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStruct(t *testing.T) {
	type payload struct {
		Name  string
		Note  *string
		Count int
	}

	note := "  <b>hello</b>  "
	p := &payload{
		Name:  "  <script>alert(1)</script>  ",
		Note:  &note,
		Count: 3,
	}

	SanitizeStruct(p)

	assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;", p.Name)
	assert.Equal(t, "&lt;b&gt;hello&lt;/b&gt;", *p.Note)
	assert.Equal(t, 3, p.Count)
}

func TestSanitizeStruct_IgnoresNonStructs(t *testing.T) {
	s := "  text  "
	SanitizeStruct(&s)
	assert.Equal(t, "  text  ", s)

	SanitizeStruct(nil)
}

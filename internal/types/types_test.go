package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDraft_SetGet(t *testing.T) {
	var d Draft
	for _, f := range Fields {
		assert.True(t, d.Set(f, f+"-value"))
	}
	for _, f := range Fields {
		v, ok := d.Get(f)
		assert.True(t, ok)
		assert.Equal(t, f+"-value", v)
	}

	assert.False(t, d.Set("age", "20"))
	_, ok := d.Get("age")
	assert.False(t, ok)
}

func TestDraft_IsEmpty(t *testing.T) {
	var d Draft
	assert.True(t, d.IsEmpty())

	d.Phone = " "
	assert.False(t, d.IsEmpty())
}

func TestDraft_Trimmed(t *testing.T) {
	d := Draft{
		Name:       "  Jo Lee ",
		RegNo:      " R100",
		Email:      "jo@x.com  ",
		Phone:      " 9876543210 ",
		Department: "TECHNICAL",
	}

	assert.Equal(t, NewStudent{
		Name:       "Jo Lee",
		RegNo:      "R100",
		Email:      "jo@x.com",
		Phone:      "9876543210",
		Department: "TECHNICAL",
	}, d.Trimmed())
}

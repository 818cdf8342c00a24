package form_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/whoyou/whoyou/internal/api/form"
)

func sampleForm() form.Form {
	return form.Form{Fields: []form.Field{
		{Name: "name", Kind: form.String, Required: true},
		{Name: "password", Kind: form.Password, MinLength: 6},
		{Name: "description", Kind: form.Text},
		{Name: "teams", Kind: form.MultiSelect, Options: []string{"team1", "team2"}},
		{Name: "url", Kind: form.Hidden},
	}}
}

func TestParse_Valid(t *testing.T) {
	values, errs := sampleForm().Parse(url.Values{
		"name":        {"jdoe"},
		"password":    {"secret1"},
		"description": {"hello"},
		"teams":       {"team1", "team2"},
	})

	assert.Empty(t, errs)
	assert.Equal(t, "jdoe", values.Get("name"))
	assert.Equal(t, "secret1", values.Get("password"))
	assert.Equal(t, []string{"team1", "team2"}, values.List("teams"))
	assert.Equal(t, "", values.Get("url"))
}

func TestParse_RequiredMissing(t *testing.T) {
	_, errs := sampleForm().Parse(url.Values{})

	if assert.Len(t, errs, 1) {
		assert.Equal(t, "name", errs[0].Field)
	}
}

func TestParse_MinLength(t *testing.T) {
	_, errs := sampleForm().Parse(url.Values{
		"name":     {"jdoe"},
		"password": {"abc"},
	})

	if assert.Len(t, errs, 1) {
		assert.Equal(t, "password", errs[0].Field)
	}
}

func TestParse_UnknownOptionRejected(t *testing.T) {
	values, errs := sampleForm().Parse(url.Values{
		"name":  {"jdoe"},
		"teams": {"team1", "ghost"},
	})

	if assert.Len(t, errs, 1) {
		assert.Equal(t, "teams", errs[0].Field)
	}
	assert.Equal(t, []string{"team1"}, values.List("teams"))
}

func TestWithout(t *testing.T) {
	f := sampleForm().Without("password", "url")

	names := make([]string, 0, len(f.Fields))
	for _, field := range f.Fields {
		names = append(names, field.Name)
	}
	assert.Equal(t, []string{"name", "description", "teams"}, names)
	// Original untouched.
	assert.Len(t, sampleForm().Fields, 5)
}

func TestWithOptions(t *testing.T) {
	f := sampleForm().WithOptions("teams", []string{"a-team"}, []string{"a-team"})

	for _, field := range f.Fields {
		if field.Name == "teams" {
			assert.Equal(t, []string{"a-team"}, field.Options)
			assert.Equal(t, []string{"a-team"}, field.Default)
		}
	}
}

package models

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosi/internal/registry/forms"
	"cosi/pkg/domainerrors"
)

func TestPersonFormValidateDOB(t *testing.T) {
	cases := []struct {
		name string
		dob  string
		ok   bool
	}{
		{"valid", "1990-02-28", true},
		{"valid leap day", "2000-02-29", true},
		{"too short", "1990-2-28", false},
		{"wrong separators", "1990/02/28", false},
		{"non numeric year", "199a-02-28", false},
		{"year at cutoff", "1800-01-01", false},
		{"year before cutoff", "1699-02-30", false},
		{"month out of range", "1990-13-01", false},
		{"day out of range", "1990-01-32", false},
		{"not a calendar date", "1990-02-30", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := PersonForm{DOB: forms.Some(tc.dob)}
			err := f.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, domainerrors.HasCode(err, domainerrors.CodeValidation))
		})
	}
}

func TestPersonFormValidateSkipsAbsentDOB(t *testing.T) {
	assert.NoError(t, PersonForm{}.Validate())
	assert.NoError(t, PersonForm{DOB: forms.Null[string]()}.Validate())
}

func TestDecodePersonForm(t *testing.T) {
	vs := url.Values{
		"first_name":  {"Jane"},
		"middle_name": {""},
		"nicks":       {"JJ", "Janie"},
		"age":         {"34"},
	}
	f, err := DecodePersonForm(vs)
	require.NoError(t, err)

	first, _ := f.FirstName.Get()
	assert.Equal(t, "Jane", first)
	assert.True(t, f.MiddleName.IsNull())
	assert.True(t, f.LastName.Omitted())
	nicks, _ := f.Nicks.Get()
	assert.Equal(t, []string{"JJ", "Janie"}, nicks)
	age, _ := f.Age.Get()
	assert.Equal(t, 34, age)
}

func TestDecodePersonFormRejectsBadAge(t *testing.T) {
	_, err := DecodePersonForm(url.Values{"age": {"abc"}})
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeBadRequest))
}

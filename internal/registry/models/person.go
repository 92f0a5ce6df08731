package models

import (
	"net/url"
	"strconv"
	"time"

	"cosi/internal/registry/forms"
	"cosi/pkg/domainerrors"
)

type Sex string

const (
	SexMale      Sex = "male"
	SexFemale    Sex = "female"
	SexUndefined Sex = "undefined"
)

// Person has no embedded relations; its domain and storage forms coincide.
type Person struct {
	FirstName  string   `bson:"first_name" json:"first_name"`
	MiddleName string   `bson:"middle_name" json:"middle_name"`
	LastName   string   `bson:"last_name" json:"last_name"`
	Nicks      []string `bson:"nicks" json:"nicks"`
	DOB        *string  `bson:"dob" json:"dob"`
	Age        *int     `bson:"age" json:"age"`
	Sex        Sex      `bson:"sex" json:"sex"`
}

type PersonForm struct {
	FirstName  forms.Optional[string]   `json:"first_name"`
	MiddleName forms.Optional[string]   `json:"middle_name"`
	LastName   forms.Optional[string]   `json:"last_name"`
	Nicks      forms.Optional[[]string] `json:"nicks"`
	DOB        forms.Optional[string]   `json:"dob"`
	Age        forms.Optional[int]      `json:"age"`
	Sex        forms.Optional[string]   `json:"sex"`
}

func (f PersonForm) Fields() []forms.Field {
	return []forms.Field{
		{Name: "first_name", Value: f.FirstName},
		{Name: "middle_name", Value: f.MiddleName},
		{Name: "last_name", Value: f.LastName},
		{Name: "nicks", Value: f.Nicks},
		{Name: "dob", Value: f.DOB},
		{Name: "age", Value: f.Age},
		{Name: "sex", Value: f.Sex},
	}
}

// Validate runs the structural checks an insert must pass. The date of
// birth arrives as free text and is rejected before any storage call.
func (f PersonForm) Validate() error {
	if dob, ok := f.DOB.Get(); ok {
		if err := validateDOB(dob); err != nil {
			return err
		}
	}
	return nil
}

// validateDOB requires YYYY-MM-DD with exact numeric widths and a year
// after 1800.
func validateDOB(s string) error {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return domainerrors.Newf(domainerrors.CodeValidation, "dob must use YYYY-MM-DD, got %q", s)
	}
	year, err := parseDigits(s[0:4])
	if err != nil {
		return domainerrors.New(domainerrors.CodeValidation, "dob year must be a 4-digit number")
	}
	month, err := parseDigits(s[5:7])
	if err != nil {
		return domainerrors.New(domainerrors.CodeValidation, "dob month must be a 2-digit number")
	}
	day, err := parseDigits(s[8:10])
	if err != nil {
		return domainerrors.New(domainerrors.CodeValidation, "dob day must be a 2-digit number")
	}
	if year <= 1800 {
		return domainerrors.Newf(domainerrors.CodeValidation, "dob year %d must be after 1800", year)
	}
	if month < 1 || month > 12 {
		return domainerrors.Newf(domainerrors.CodeValidation, "dob month %d out of range", month)
	}
	if day < 1 || day > 31 {
		return domainerrors.Newf(domainerrors.CodeValidation, "dob day %d out of range", day)
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return domainerrors.Newf(domainerrors.CodeValidation, "dob %q is not a calendar date", s)
	}
	return nil
}

func parseDigits(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

func DecodePersonForm(vs url.Values) (PersonForm, error) {
	age, err := forms.QueryInt(vs, "age")
	if err != nil {
		return PersonForm{}, err
	}
	return PersonForm{
		FirstName:  forms.QueryString(vs, "first_name"),
		MiddleName: forms.QueryString(vs, "middle_name"),
		LastName:   forms.QueryString(vs, "last_name"),
		Nicks:      forms.QueryStrings(vs, "nicks"),
		DOB:        forms.QueryString(vs, "dob"),
		Age:        age,
		Sex:        forms.QueryString(vs, "sex"),
	}, nil
}

func PersonCodec() Identity[Person] {
	return NewIdentity[Person](CollectionPerson)
}

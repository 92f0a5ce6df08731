package models

import (
	"net/url"

	"cosi/internal/registry/forms"
)

// Address is referenced by households; it has no references of its own.
type Address struct {
	LineOne    string  `bson:"line_one" json:"line_one"`
	LineTwo    string  `bson:"line_two" json:"line_two"`
	LineThree  string  `bson:"line_three" json:"line_three"`
	City       string  `bson:"city" json:"city"`
	Region     string  `bson:"region" json:"region"`
	PostalCode *string `bson:"postal_code" json:"postal_code"`
	County     *string `bson:"county" json:"county"`
	Country    *string `bson:"country" json:"country"`
}

type AddressForm struct {
	LineOne    forms.Optional[string] `json:"line_one"`
	LineTwo    forms.Optional[string] `json:"line_two"`
	LineThree  forms.Optional[string] `json:"line_three"`
	City       forms.Optional[string] `json:"city"`
	Region     forms.Optional[string] `json:"region"`
	PostalCode forms.Optional[string] `json:"postal_code"`
	County     forms.Optional[string] `json:"county"`
	Country    forms.Optional[string] `json:"country"`
}

func (f AddressForm) Fields() []forms.Field {
	return []forms.Field{
		{Name: "line_one", Value: f.LineOne},
		{Name: "line_two", Value: f.LineTwo},
		{Name: "line_three", Value: f.LineThree},
		{Name: "city", Value: f.City},
		{Name: "region", Value: f.Region},
		{Name: "postal_code", Value: f.PostalCode},
		{Name: "county", Value: f.County},
		{Name: "country", Value: f.Country},
	}
}

func DecodeAddressForm(vs url.Values) (AddressForm, error) {
	return AddressForm{
		LineOne:    forms.QueryString(vs, "line_one"),
		LineTwo:    forms.QueryString(vs, "line_two"),
		LineThree:  forms.QueryString(vs, "line_three"),
		City:       forms.QueryString(vs, "city"),
		Region:     forms.QueryString(vs, "region"),
		PostalCode: forms.QueryString(vs, "postal_code"),
		County:     forms.QueryString(vs, "county"),
		Country:    forms.QueryString(vs, "country"),
	}, nil
}

func AddressCodec() Identity[Address] {
	return NewIdentity[Address](CollectionAddress)
}

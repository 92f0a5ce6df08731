package models

import (
	"net/url"

	"cosi/internal/registry/forms"
)

// User backs the login flow's lookups. Password material lives in a
// separate collection owned by the auth layer, not here.
type User struct {
	Username string `bson:"username" json:"username"`
	Email    string `bson:"email" json:"email"`
	Token    string `bson:"token" json:"token"`
}

type UserForm struct {
	Username forms.Optional[string] `json:"username"`
	Email    forms.Optional[string] `json:"email"`
	Token    forms.Optional[string] `json:"token"`
}

func (f UserForm) Fields() []forms.Field {
	return []forms.Field{
		{Name: "username", Value: f.Username},
		{Name: "email", Value: f.Email},
		{Name: "token", Value: f.Token},
	}
}

func DecodeUserForm(vs url.Values) (UserForm, error) {
	return UserForm{
		Username: forms.QueryString(vs, "username"),
		Email:    forms.QueryString(vs, "email"),
		Token:    forms.QueryString(vs, "token"),
	}, nil
}

func UserCodec() Identity[User] {
	return NewIdentity[User](CollectionUser)
}

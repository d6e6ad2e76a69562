package models

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRole is the closed set of roles a user can hold.
type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleInstructor UserRole = "instructor"
	RoleAdmin      UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// User is a document in the users collection. Sign-in providers send more
// than the named fields; the rest is kept in Extra.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name     string             `bson:"name,omitempty" json:"name,omitempty"`
	Email    string             `bson:"email,omitempty" json:"email,omitempty"`
	Role     UserRole           `bson:"role,omitempty" json:"role,omitempty" validate:"omitempty,oneof=student instructor admin"`
	PhotoURL string             `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Extra    bson.M             `bson:",inline" json:"-"`
}

var userFields = fieldSet{
	"_id":      kindID,
	"name":     kindString,
	"email":    kindString,
	"role":     kindString,
	"photoURL": kindString,
}

type userDocument User

// UnmarshalBSON decodes a stored user, moving mistyped fields to Extra.
func (u *User) UnmarshalBSON(data []byte) error {
	var doc userDocument
	stray, err := decodeStoredDocument(data, userFields, &doc)
	if err != nil {
		return err
	}
	doc.Extra = mergeExtra(doc.Extra, stray)
	*u = User(doc)
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	return encodeJSONDocument(userDocument(u), userFields, u.Extra)
}

func (u *User) UnmarshalJSON(data []byte) error {
	var doc userDocument
	extra, err := decodeJSONDocument(data, userFields, &doc)
	if err != nil {
		return err
	}
	doc.Extra = extra
	*u = User(doc)
	return nil
}

// Public profile fields exposed by the instructor and student showcases.
var UserProfileFields = []string{"name", "email", "photoURL"}

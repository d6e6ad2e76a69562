package models

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClassStatus tracks the review state of an instructor submission.
type ClassStatus string

const (
	ClassStatusPending  ClassStatus = "pending"
	ClassStatusApproved ClassStatus = "approved"
	ClassStatusDenied   ClassStatus = "denied"
)

// Valid reports whether s is one of the known statuses.
func (s ClassStatus) Valid() bool {
	switch s {
	case ClassStatusPending, ClassStatusApproved, ClassStatusDenied:
		return true
	}
	return false
}

// Class is a course offering in the classes collection. Numeric fields are
// pointers so projected reads omit them instead of reporting zero. Members
// the struct does not name are kept in Extra and written back unchanged.
type Class struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ClassName             string             `bson:"className,omitempty" json:"className,omitempty"`
	ClassImage            string             `bson:"classImage,omitempty" json:"classImage,omitempty"`
	InstructorName        string             `bson:"instructorName,omitempty" json:"instructorName,omitempty"`
	InstructorEmail       string             `bson:"instructorEmail,omitempty" json:"instructorEmail,omitempty"`
	Price                 *float64           `bson:"price,omitempty" json:"price,omitempty"`
	AvailableSeats        *int               `bson:"availableSeats,omitempty" json:"availableSeats,omitempty"`
	TotalEnrolledStudents *int               `bson:"totalEnrolledStudents,omitempty" json:"totalEnrolledStudents,omitempty"`
	Status                ClassStatus        `bson:"status,omitempty" json:"status,omitempty" validate:"omitempty,oneof=pending approved denied"`
	Feedback              string             `bson:"feedback,omitempty" json:"feedback,omitempty"`
	Extra                 bson.M             `bson:",inline" json:"-"`
}

var classFields = fieldSet{
	"_id":                   kindID,
	"className":             kindString,
	"classImage":            kindString,
	"instructorName":        kindString,
	"instructorEmail":       kindString,
	"price":                 kindFloat,
	"availableSeats":        kindInt,
	"totalEnrolledStudents": kindInt,
	"status":                kindString,
	"feedback":              kindString,
}

type classDocument Class

// UnmarshalBSON decodes a stored class. Numeric strings are read as numbers;
// other mistyped fields are moved to Extra instead of failing the read.
func (c *Class) UnmarshalBSON(data []byte) error {
	var doc classDocument
	stray, err := decodeStoredDocument(data, classFields, &doc)
	if err != nil {
		return err
	}
	doc.Extra = mergeExtra(doc.Extra, stray)
	*c = Class(doc)
	return nil
}

// MarshalJSON renders the named fields followed by the extra members.
func (c Class) MarshalJSON() ([]byte, error) {
	return encodeJSONDocument(classDocument(c), classFields, c.Extra)
}

// UnmarshalJSON decodes a submitted class, keeping unnamed members in Extra.
func (c *Class) UnmarshalJSON(data []byte) error {
	var doc classDocument
	extra, err := decodeJSONDocument(data, classFields, &doc)
	if err != nil {
		return err
	}
	doc.Extra = extra
	*c = Class(doc)
	return nil
}

// Fields returned by the popular classes view.
var ClassCardFields = []string{"className", "classImage", "totalEnrolledStudents"}

package models

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentStatus tracks whether a selected class has been paid for.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Valid reports whether s is one of the known payment states.
func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusPending || s == PaymentStatusPaid
}

// Enrollment is a studentsData document: a student's selection of a class,
// carrying a copy of the class fields at selection time. Members the struct
// does not name are kept in Extra.
type Enrollment struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ClassID         string             `bson:"classId,omitempty" json:"classId,omitempty"`
	ClassName       string             `bson:"className,omitempty" json:"className,omitempty"`
	ClassImage      string             `bson:"classImage,omitempty" json:"classImage,omitempty"`
	InstructorName  string             `bson:"instructorName,omitempty" json:"instructorName,omitempty"`
	InstructorEmail string             `bson:"instructorEmail,omitempty" json:"instructorEmail,omitempty"`
	Price           *float64           `bson:"price,omitempty" json:"price,omitempty"`
	AvailableSeats  *int               `bson:"availableSeats,omitempty" json:"availableSeats,omitempty"`
	StudentName     string             `bson:"studentName,omitempty" json:"studentName,omitempty"`
	StudentEmail    string             `bson:"studentEmail,omitempty" json:"studentEmail,omitempty"`
	PaymentStatus   PaymentStatus      `bson:"paymentStatus,omitempty" json:"paymentStatus,omitempty" validate:"omitempty,oneof=pending paid"`
	Extra           bson.M             `bson:",inline" json:"-"`
}

var enrollmentFields = fieldSet{
	"_id":             kindID,
	"classId":         kindString,
	"className":       kindString,
	"classImage":      kindString,
	"instructorName":  kindString,
	"instructorEmail": kindString,
	"price":           kindFloat,
	"availableSeats":  kindInt,
	"studentName":     kindString,
	"studentEmail":    kindString,
	"paymentStatus":   kindString,
}

type enrollmentDocument Enrollment

// UnmarshalBSON decodes a stored enrollment, moving mistyped fields to Extra.
func (e *Enrollment) UnmarshalBSON(data []byte) error {
	var doc enrollmentDocument
	stray, err := decodeStoredDocument(data, enrollmentFields, &doc)
	if err != nil {
		return err
	}
	doc.Extra = mergeExtra(doc.Extra, stray)
	*e = Enrollment(doc)
	return nil
}

func (e Enrollment) MarshalJSON() ([]byte, error) {
	return encodeJSONDocument(enrollmentDocument(e), enrollmentFields, e.Extra)
}

func (e *Enrollment) UnmarshalJSON(data []byte) error {
	var doc enrollmentDocument
	extra, err := decodeJSONDocument(data, enrollmentFields, &doc)
	if err != nil {
		return err
	}
	doc.Extra = extra
	*e = Enrollment(doc)
	return nil
}

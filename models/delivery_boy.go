package models

import (
	"regexp"
	"time"
)

type CourierStatus string

const (
	CourierStatusAvailable CourierStatus = "available"
	CourierStatusBusy      CourierStatus = "busy"
	CourierStatusOffline   CourierStatus = "offline"
)

func (s CourierStatus) Valid() bool {
	switch s {
	case CourierStatusAvailable, CourierStatusBusy, CourierStatusOffline:
		return true
	}
	return false
}

type VehicleType string

const (
	VehicleTypeCar     VehicleType = "car"
	VehicleTypeBike    VehicleType = "bike"
	VehicleTypeScooter VehicleType = "scooter"
)

func (t VehicleType) Valid() bool {
	switch t {
	case VehicleTypeCar, VehicleTypeBike, VehicleTypeScooter:
		return true
	}
	return false
}

type DeliveryBoy struct {
	ID             string         `json:"id" bson:"_id"`
	Name           string         `json:"name" bson:"name"`
	PhoneNumber    string         `json:"phone_number" bson:"phone_number"`
	PasswordHash   string         `json:"-" bson:"password_hash"`
	VehicleDetails VehicleDetails `json:"vehicle_details" bson:"vehicle_details"`
	Location       GeoPoint       `json:"location" bson:"location"`
	Status         CourierStatus  `json:"status" bson:"status"`
	// Orders holds the ids of in-flight orders assigned to this courier.
	Orders    []string  `json:"orders" bson:"orders"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type VehicleDetails struct {
	Type         VehicleType `json:"type" bson:"type"`
	Model        string      `json:"model" bson:"model"`
	LicensePlate string      `json:"license_plate" bson:"license_plate"`
}

func (v VehicleDetails) Validate() bool {
	return v.Type.Valid() && v.Model != "" && v.LicensePlate != ""
}

// GeoPoint is a GeoJSON point, coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

func NewGeoPoint(longitude, latitude float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{longitude, latitude}}
}

func (p GeoPoint) Valid() bool {
	if p.Type != "Point" || len(p.Coordinates) != 2 {
		return false
	}
	lon, lat := p.Coordinates[0], p.Coordinates[1]
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}

var phoneNumberRe = regexp.MustCompile(`^[0-9]{10}$`)

func ValidPhoneNumber(phone string) bool {
	return phoneNumberRe.MatchString(phone)
}

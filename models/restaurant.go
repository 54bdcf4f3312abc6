package models

import (
	"regexp"
	"time"
)

type Restaurant struct {
	ID               string            `json:"id" bson:"_id"`
	Name             string            `json:"name" bson:"name"`
	Address          Address           `json:"address" bson:"address"`
	Phone            string            `json:"phone" bson:"phone"`
	Email            string            `json:"email" bson:"email"`
	Description      string            `json:"description" bson:"description"`
	Rating           float64           `json:"rating" bson:"rating"`
	Image            string            `json:"image,omitempty" bson:"image,omitempty"`
	OpeningHours     string            `json:"opening_hours,omitempty" bson:"opening_hours,omitempty"`
	Website          string            `json:"website,omitempty" bson:"website,omitempty"`
	Cuisines         []string          `json:"cuisines,omitempty" bson:"cuisines,omitempty"`
	Location         GeoPoint          `json:"location" bson:"location"`
	SocialMediaLinks map[string]string `json:"social_media_links,omitempty" bson:"social_media_links,omitempty"`
	CreatedAt        time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" bson:"updated_at"`
}

type Address struct {
	Street  string `json:"street" bson:"street"`
	City    string `json:"city" bson:"city"`
	State   string `json:"state" bson:"state"`
	ZipCode string `json:"zip_code" bson:"zip_code"`
}

type MenuItem struct {
	ID           string    `json:"id" bson:"_id"`
	RestaurantID string    `json:"restaurant_id" bson:"restaurant_id"`
	Name         string    `json:"name" bson:"name"`
	Price        float64   `json:"price" bson:"price"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

var (
	// E.164 style, up to 15 digits.
	restaurantPhoneRe = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	emailRe           = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Day/time-range grammar, e.g. "Mo 9:00-18:00; Sa 10:00-14:00".
	openingHoursRe = regexp.MustCompile(`^(Mo|Tu|We|Th|Fr|Sa|Su)\s\d{1,2}:\d{2}-\d{1,2}:\d{2}(;\s(Mo|Tu|We|Th|Fr|Sa|Su)\s\d{1,2}:\d{2}-\d{1,2}:\d{2})*$`)
)

func ValidRestaurantPhone(phone string) bool {
	return restaurantPhoneRe.MatchString(phone)
}

func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

func ValidOpeningHours(hours string) bool {
	return openingHoursRe.MatchString(hours)
}

func ValidRating(rating float64) bool {
	return rating >= 0 && rating <= 5
}

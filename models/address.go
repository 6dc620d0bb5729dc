package models

import "time"

type AddressType string

const (
	AddressTypeShipping AddressType = "shipping"
	AddressTypeBilling  AddressType = "billing"
)

type UserAddress struct {
	ID            int64       `json:"id"`
	UserID        int64       `json:"user_id"`
	AddressType   AddressType `json:"address_type"`
	RecipientName string      `json:"recipient_name"`
	Phone         string      `json:"phone"`
	AddressLine   string      `json:"address_line"`
	SubDistrict   string      `json:"sub_district"`
	District      string      `json:"district"`
	Province      string      `json:"province"`
	Zipcode       string      `json:"zipcode"`
	Country       string      `json:"country"`
	IsDefault     bool        `json:"is_default"`
	CreatedAt     time.Time   `json:"created_at"`
}

type CreateAddressRequest struct {
	AddressType   AddressType `json:"address_type" binding:"required,oneof=shipping billing"`
	RecipientName string      `json:"recipient_name" binding:"required,max=255"`
	Phone         string      `json:"phone" binding:"max=32"`
	AddressLine   string      `json:"address_line" binding:"required"`
	SubDistrict   string      `json:"sub_district"`
	District      string      `json:"district"`
	Province      string      `json:"province"`
	Zipcode       string      `json:"zipcode" binding:"max=16"`
	Country       string      `json:"country"`
	IsDefault     bool        `json:"is_default"`
}

package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Delivery is a delivery method index. DeliveryUnset marks a cart line
// that is not selected for checkout.
type Delivery int32

const (
	DeliveryUnset    Delivery = -1
	DeliveryStandard Delivery = 0
	DeliveryExpress  Delivery = 1
	DeliveryPriority Delivery = 2
)

// SecondsPerDay is the length of a delivery day.
const SecondsPerDay int64 = 86400

var (
	deliveryDays      = [...]int64{5, 3, 1}
	deliverySurcharge = [...]float64{0, 3, 6}
	deliveryNames     = [...]string{"standard", "express", "priority"}
)

// Selected reports whether a delivery method was chosen.
func (d Delivery) Selected() bool { return d != DeliveryUnset }

// Valid reports whether d is one of the known delivery methods.
func (d Delivery) Valid() bool { return d >= 0 && int(d) < len(deliveryDays) }

// Days is the delivery duration; unknown methods arrive immediately.
func (d Delivery) Days() int64 {
	if !d.Valid() {
		return 0
	}
	return deliveryDays[d]
}

// Surcharge is the fixed per-order delivery price.
func (d Delivery) Surcharge() float64 {
	if !d.Valid() {
		return 0
	}
	return deliverySurcharge[d]
}

func (d Delivery) String() string {
	if d == DeliveryUnset {
		return "unset"
	}
	if !d.Valid() {
		return "unknown(" + strconv.Itoa(int(d)) + ")"
	}
	return deliveryNames[d]
}

// ParseDelivery accepts a method index or name; "none" and "unset" clear
// the selection.
func ParseDelivery(s string) (Delivery, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "none", "unset", "-1":
		return DeliveryUnset, nil
	}
	for i, name := range deliveryNames {
		if s == name {
			return Delivery(i), nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || !Delivery(n).Valid() {
		return DeliveryUnset, fmt.Errorf("unknown delivery method %q (allowed: 0|1|2|standard|express|priority|none)", s)
	}
	return Delivery(n), nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ShippingMethod is a configured fulfillment option.
type ShippingMethod struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code      string         `gorm:"column:code;not null;uniqueIndex"`
	Name      string         `gorm:"column:name;not null"`
	Priority  int            `gorm:"column:priority;not null;default:0"`
	IsActive  bool           `gorm:"column:is_active;not null;default:true"`
	Zones     []ShippingZone `gorm:"foreignKey:ShippingMethodID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// ShippingZone limits a shipping method to a set of countries. A null
// countries list marks the zone as global.
type ShippingZone struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShippingMethodID uuid.UUID      `gorm:"column:shipping_method_id;type:uuid;not null;index"`
	Name             string         `gorm:"column:name;not null"`
	Countries        pq.StringArray `gorm:"column:countries;type:text[]"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// CoversCountry reports whether the zone ships to the given country. Zones
// without a countries list cover everywhere.
func (z ShippingZone) CoversCountry(countryCode string) bool {
	if len(z.Countries) == 0 {
		return true
	}
	for _, code := range z.Countries {
		if code == countryCode {
			return true
		}
	}
	return false
}

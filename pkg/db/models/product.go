package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/merchantpulse/pricing-backend/pkg/db/types"
	"github.com/merchantpulse/pricing-backend/pkg/types"
)

// Product is the canonical catalog listing. Pricing only needs its scope
// (site), category membership, and the attribute bag rule conditions match on.
type Product struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SiteID      *uuid.UUID         `gorm:"column:site_id;type:uuid"`
	Name        string             `gorm:"column:name;not null"`
	Slug        string             `gorm:"column:slug;not null;uniqueIndex"`
	CategoryIDs dbtypes.UUIDArray  `gorm:"column:category_ids;type:uuid[];not null;default:'{}'"`
	Attributes  types.AttributeMap `gorm:"column:attributes;type:jsonb;not null;default:'{}'"`
	IsActive    bool               `gorm:"column:is_active;not null;default:true"`
	Variants    []ProductVariant   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariant is a purchasable SKU of a product.
type ProductVariant struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	SKU         string    `gorm:"column:sku;not null;uniqueIndex"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	IsAvailable bool      `gorm:"column:is_available;not null;default:true"`
	Product     *Product  `gorm:"foreignKey:ProductID"`
	Prices      []Price   `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

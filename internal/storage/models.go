package storage

import (
	"time"

	"gorm.io/gorm"
)

// Delivery status of a recorded buy alert
const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// BuyAlert records one buy that passed classification and was handed to
// the alert senders
type BuyAlert struct {
	ID             int64   `gorm:"primaryKey;autoIncrement"`
	TxHash         string  `gorm:"uniqueIndex;size:128;not null"`
	TokenAddress   string  `gorm:"size:64;not null;index"`
	PairAddress    string  `gorm:"size:64;not null"`
	Buyer          string  `gorm:"size:64;not null;index"`
	AmountUSD      float64 `gorm:"type:decimal(24,6);not null"`
	AmountNative   float64 `gorm:"type:decimal(36,18);not null"`
	TokensReceived float64 `gorm:"type:decimal(48,18);not null"`
	PriceUSD       float64 `gorm:"type:decimal(36,18);not null"`
	MarketCapUSD   float64 `gorm:"type:decimal(24,2);not null;default:0"`
	Delivery       string  `gorm:"size:16;not null"`
	CreatedTS      int64   `gorm:"not null;index"`
}

func (BuyAlert) TableName() string {
	return "buy_alerts"
}

// BeforeCreate hook for timestamps
func (a *BuyAlert) BeforeCreate(tx *gorm.DB) error {
	if a.CreatedTS == 0 {
		a.CreatedTS = time.Now().Unix()
	}
	return nil
}

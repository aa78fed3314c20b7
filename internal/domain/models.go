// Package domain defines the persistence models for users, items, orders,
// groups, and their embedded chat messages. These types are mapped with GORM
// and form the core data layer of the marketplace application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Order statuses. An order starts as pending and is marked completed by the
// seller once the trade is settled.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
)

// SupportedCurrencies is the closed set of ISO currency codes an item may be
// listed in.
var SupportedCurrencies = []string{
	"NGN", "USD", "GBP", "KES", "GHS", "ZAR", "XAF", "XOF", "ETB", "EGP",
}

// IsSupportedCurrency reports whether code is one of SupportedCurrencies.
func IsSupportedCurrency(code string) bool {
	for _, c := range SupportedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

// User represents an account. The password hash is never serialized.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Email: unique login identifier, stored lowercase.
//   - PasswordHash: bcrypt hash; excluded from JSON.
//   - Avatar: public URL (or data URL for the generated placeholder).
type User struct {
	ID           string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Name         string         `json:"name"       gorm:"type:varchar(120);not null"`
	Email        string         `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string         `json:"-"          gorm:"type:varchar(100);not null"`
	Avatar       string         `json:"avatar"     gorm:"type:text"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Item is a marketplace listing owned by a seller.
//
// Images holds the public URLs of the uploaded media, serialized as JSON in a
// single column (the list is small and only ever read as a whole).
type Item struct {
	ID          string         `json:"id"          gorm:"type:char(36);primaryKey"`
	Name        string         `json:"name"        gorm:"type:varchar(255);not null"`
	Description string         `json:"description" gorm:"type:text;not null"`
	Price       float64        `json:"price"       gorm:"not null"`
	Currency    string         `json:"currency"    gorm:"type:varchar(3);not null"`
	Category    string         `json:"category"    gorm:"type:varchar(120);not null;index"`
	Location    string         `json:"location"    gorm:"type:varchar(255);not null"`
	Images      []string       `json:"images"      gorm:"serializer:json;type:text"`
	SellerID    string         `json:"seller_id"   gorm:"type:char(36);not null;index:idx_seller_items"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"           gorm:"index"`

	// Seller is the listing owner, populated on reads.
	Seller *User `json:"seller,omitempty" gorm:"foreignKey:SellerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Item.
func (Item) TableName() string { return "items" }

// Order is the buyer/seller aggregate created when an offer is accepted.
// It owns an append-only sequence of OrderMessage rows: the embedded chat
// between the two parties.
type Order struct {
	ID        string         `json:"id"        gorm:"type:char(36);primaryKey"`
	BuyerID   string         `json:"buyer_id"  gorm:"type:char(36);not null;index:idx_buyer_orders"`
	SellerID  string         `json:"seller_id" gorm:"type:char(36);not null;index:idx_seller_orders"`
	ItemID    string         `json:"item_id"   gorm:"type:char(36);not null"`
	Price     float64        `json:"price"     gorm:"not null"`
	Status    string         `json:"status"    gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','completed')"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"         gorm:"index"`

	Buyer  *User `json:"buyer,omitempty"  gorm:"foreignKey:BuyerID;references:ID"`
	Seller *User `json:"seller,omitempty" gorm:"foreignKey:SellerID;references:ID"`
	Item   *Item `json:"item,omitempty"   gorm:"foreignKey:ItemID;references:ID"`

	// Messages is the order-scoped chat, oldest first.
	Messages []OrderMessage `json:"messages,omitempty" gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// Counterparty returns the other party of the order relative to userID.
// The second return value is false when userID is neither buyer nor seller.
func (o *Order) Counterparty(userID string) (string, bool) {
	switch userID {
	case o.BuyerID:
		return o.SellerID, true
	case o.SellerID:
		return o.BuyerID, true
	}
	return "", false
}

// OrderMessage is one immutable utterance in an order chat. Appends are single
// row inserts; rows are never updated or deleted by the application.
type OrderMessage struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	OrderID   string    `json:"order_id"  gorm:"type:char(36);not null;index:idx_order_msgs,priority:1"`
	SenderID  string    `json:"sender_id" gorm:"type:char(36);not null"`
	Body      string    `json:"message"   gorm:"type:text;not null"`
	CreatedAt time.Time `json:"timestamp" gorm:"index:idx_order_msgs,priority:2"`

	Sender *User `json:"sender,omitempty" gorm:"foreignKey:SenderID;references:ID"`

	// Order is the parent aggregate. Messages are cascade-deleted with it.
	Order Order `json:"-" gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for OrderMessage.
func (OrderMessage) TableName() string { return "order_messages" }

// Group is a named community with a member set and a group-scoped chat.
type Group struct {
	ID          string         `json:"id"          gorm:"type:char(36);primaryKey"`
	Name        string         `json:"name"        gorm:"type:varchar(255);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Category    string         `json:"category"    gorm:"type:varchar(120)"`
	CoverImage  string         `json:"cover_image" gorm:"type:text"`
	Location    string         `json:"location"    gorm:"type:varchar(255)"`
	CreatedBy   string         `json:"created_by"  gorm:"type:char(36);not null"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"           gorm:"index"`

	// Members is the durable membership set (join table group_members).
	Members []User `json:"members,omitempty" gorm:"many2many:group_members"`
}

// TableName returns the database table name for Group.
func (Group) TableName() string { return "groups" }

// GroupMessage is one immutable utterance in a group chat. SenderName is
// denormalized at write time so broadcasts and history reads need no join.
type GroupMessage struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	GroupID    string    `json:"group_id"    gorm:"type:char(36);not null;index:idx_group_msgs,priority:1"`
	SenderID   string    `json:"sender_id"   gorm:"type:char(36);not null"`
	SenderName string    `json:"sender_name" gorm:"type:varchar(120);not null"`
	Body       string    `json:"text"        gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"timestamp"   gorm:"index:idx_group_msgs,priority:2"`

	Group Group `json:"-" gorm:"foreignKey:GroupID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for GroupMessage.
func (GroupMessage) TableName() string { return "group_messages" }

// DirectMessage is a user-to-user message outside any order or group.
type DirectMessage struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	SenderID   string    `json:"sender_id"   gorm:"type:char(36);not null;index:idx_dm_sender"`
	ReceiverID string    `json:"receiver_id" gorm:"type:char(36);not null;index:idx_dm_receiver"`
	Body       string    `json:"message"     gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"timestamp"`
}

// TableName returns the database table name for DirectMessage.
func (DirectMessage) TableName() string { return "direct_messages" }

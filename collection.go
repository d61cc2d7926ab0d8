package bggcrawl

import (
	"context"
	"strings"
	"time"
)

// CollectionItem is one user's relation to one game: a rating comment or
// an entry of the user's collection.
type CollectionItem struct {
	ID       string   `json:"itemId"`
	GameID   EntityID `json:"bggId"`
	UserName string   `json:"bggUserName"`

	Rating      float64 `json:"bggUserRating,omitempty"`
	Owned       bool    `json:"bggUserOwned,omitempty"`
	PrevOwned   bool    `json:"bggUserPrevOwned,omitempty"`
	ForTrade    bool    `json:"bggUserForTrade,omitempty"`
	WantInTrade bool    `json:"bggUserWantInTrade,omitempty"`
	WantToPlay  bool    `json:"bggUserWantToPlay,omitempty"`
	WantToBuy   bool    `json:"bggUserWantToBuy,omitempty"`
	Preordered  bool    `json:"bggUserPreordered,omitempty"`
	Wishlist    int     `json:"bggUserWishlist,omitempty"`
	PlayCount   int     `json:"bggUserPlayCount,omitempty"`
	Comment     string  `json:"comment,omitempty"`

	UpdatedAt time.Time `json:"updatedAt,omitzero"`
	ScrapedAt time.Time `json:"scrapedAt"`
}

// Validate returns an error if the item cannot be linked to a game and a user.
func (c *CollectionItem) Validate() error {
	if c.GameID <= 0 {
		return Errorf(EINVALID, "collection item game ID required")
	}
	if c.UserName == "" {
		return Errorf(EINVALID, "collection item user name required")
	}
	return nil
}

// CollectionItemID returns the fallback item ID "<user>:<game>" used when the
// upstream collection ID is missing.
func CollectionItemID(userName string, gameID EntityID) string {
	return strings.ToLower(userName) + ":" + gameID.String()
}

// User is a user profile.
type User struct {
	ID          int64       `json:"itemId,omitempty"`
	Name        string      `json:"bggUserName"`
	FirstName   string      `json:"firstName,omitempty"`
	LastName    string      `json:"lastName,omitempty"`
	Registered  int         `json:"registered,omitempty"`
	LastLogin   time.Time   `json:"lastLogin,omitzero"`
	Country     string      `json:"country,omitempty"`
	Region      string      `json:"region,omitempty"`
	City        string      `json:"city,omitempty"`
	ExternalURL string      `json:"externalLink,omitempty"`
	ImageURL    string      `json:"imageUrl,omitempty"`
	ExternalIDs ExternalIDs `json:"externalIds,omitempty"`
	ScrapedAt   time.Time   `json:"scrapedAt"`
}

// Validate returns an error if the user has no name.
func (u *User) Validate() error {
	if u.Name == "" {
		return Errorf(EINVALID, "user name required")
	}
	return nil
}

// CollectionService represents a service for managing collection items.
type CollectionService interface {
	// UpsertCollectionItem inserts the item or replaces the stored version.
	UpsertCollectionItem(ctx context.Context, item *CollectionItem) error

	// FindCollection retrieves all items of one user.
	FindCollection(ctx context.Context, userName string) ([]*CollectionItem, error)
}

// UserService represents a service for managing users.
type UserService interface {
	// UpsertUser inserts the user or replaces the stored version.
	UpsertUser(ctx context.Context, user *User) error

	// FindUserByName retrieves a user by name.
	// Returns ENOTFOUND if the user does not exist.
	FindUserByName(ctx context.Context, name string) (*User, error)
}

// ItemStore receives the assembled records of a crawl.
type ItemStore interface {
	SaveGame(ctx context.Context, game *Game) error
	SaveCollectionItem(ctx context.Context, item *CollectionItem) error
	SaveUser(ctx context.Context, user *User) error
}
